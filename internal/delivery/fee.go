package delivery

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDistance    = errors.New("invalid delivery distance")
	ErrGeocodeUnavailable = errors.New("address could not be geocoded")
)

// EstimateFee rounds distanceKm × ratePerKm to whole currency units,
// half away from zero.
func EstimateFee(distanceKm float64, ratePerKm decimal.Decimal) (decimal.Decimal, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return decimal.Zero, fmt.Errorf("%w: %v km", ErrInvalidDistance, distanceKm)
	}
	if ratePerKm.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative rate %s", ErrInvalidDistance, ratePerKm)
	}
	return decimal.NewFromFloat(distanceKm).Mul(ratePerKm).Round(0), nil
}
