package delivery

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	shop := Coordinates{Lat: 39.96596, Lng: 32.94215}
	other := Coordinates{Lat: 41.0082, Lng: 28.9784}

	assert.Equal(t, 0.0, Distance(shop, shop))
	assert.InDelta(t, Distance(shop, other), Distance(other, shop), 1e-9)

	oneDegree := Distance(Coordinates{}, Coordinates{Lng: 1})
	assert.InDelta(t, 111.195, oneDegree, 0.001)

	antipode := Distance(Coordinates{}, Coordinates{Lng: 180})
	assert.InDelta(t, math.Pi*earthRadiusKm, antipode, 1e-6)
}

func TestEstimateFee(t *testing.T) {
	rate := decimal.NewFromInt(39)

	tests := map[string]struct {
		km   float64
		rate decimal.Decimal
		want string
	}{
		"zero distance":      {km: 0, rate: rate, want: "0"},
		"one km":             {km: 1, rate: rate, want: "39"},
		"rounds half up":     {km: 2.5, rate: rate, want: "98"},
		"rounds down":        {km: 1.01, rate: rate, want: "39"},
		"fractional rate":    {km: 3, rate: decimal.RequireFromString("2.75"), want: "8"},
		"zero rate":          {km: 12, rate: decimal.Zero, want: "0"},
		"one degree equator": {km: 111.19492664455873, rate: rate, want: "4337"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fee, err := EstimateFee(tt.km, tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fee.String())
		})
	}
}

func TestEstimateFeeRejects(t *testing.T) {
	rate := decimal.NewFromInt(39)
	for name, km := range map[string]float64{
		"negative": -1,
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := EstimateFee(km, rate)
			assert.True(t, errors.Is(err, ErrInvalidDistance), "got %v", err)
		})
	}

	_, err := EstimateFee(1, decimal.NewFromInt(-1))
	assert.True(t, errors.Is(err, ErrInvalidDistance))
}

func TestEstimateFeeMonotonic(t *testing.T) {
	rate := decimal.NewFromInt(39)
	prev := decimal.Zero
	for km := 0.0; km < 50; km += 0.37 {
		fee, err := EstimateFee(km, rate)
		require.NoError(t, err)
		require.True(t, fee.GreaterThanOrEqual(prev), "fee dropped at %v km", km)
		prev = fee
	}
}
