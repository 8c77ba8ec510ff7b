package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
)

// Validate checks the cart first and then the customer fields, returning
// the first problem found.
func Validate(c Customer, ledger *cart.Ledger) error {
	if ledger == nil || ledger.IsEmpty() {
		return ErrEmptyCart
	}
	if !c.DeliveryMethod.Valid() {
		return &MissingFieldError{Field: "deliveryMethod"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return &MissingFieldError{Field: "phone"}
	}
	if c.DeliveryMethod == delivery.MethodDelivery && strings.TrimSpace(c.Address) == "" {
		return &MissingFieldError{Field: "address"}
	}
	return nil
}

// BuildOrder snapshots the ledger into an Order. The fee from quote is
// only charged for home delivery.
func BuildOrder(sessionID string, c Customer, ledger *cart.Ledger, m cart.Menu, quote delivery.Quote, now time.Time) (Order, error) {
	if err := Validate(c, ledger); err != nil {
		return Order{}, err
	}

	fee := decimal.Zero
	var distance *float64
	if c.DeliveryMethod == delivery.MethodDelivery {
		if quote.Fee.IsNegative() {
			return Order{}, fmt.Errorf("%w: negative fee %s", delivery.ErrInvalidDistance, quote.Fee)
		}
		fee = quote.Fee
		if quote.DistanceKm != nil {
			d := *quote.DistanceKm
			distance = &d
		}
	}

	priced := cart.Price(m, ledger)
	if len(priced) == 0 {
		return Order{}, ErrEmptyCart
	}
	lines := make([]OrderLine, 0, len(priced))
	subtotal := decimal.Zero
	for _, p := range priced {
		lines = append(lines, OrderLine{
			ItemID:    p.ItemID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			Subtotal:  p.Subtotal,
		})
		subtotal = subtotal.Add(p.Subtotal)
	}

	return Order{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		CustomerName:   strings.TrimSpace(c.Name),
		Phone:          strings.TrimSpace(c.Phone),
		Address:        strings.TrimSpace(c.Address),
		Note:           strings.TrimSpace(c.Note),
		PreferredTime:  strings.TrimSpace(c.PreferredTime),
		DeliveryMethod: c.DeliveryMethod,
		DistanceKm:     distance,
		Lines:          lines,
		Subtotal:       subtotal,
		DeliveryFee:    fee,
		Total:          subtotal.Add(fee),
		CreatedAt:      now.UTC(),
	}, nil
}
