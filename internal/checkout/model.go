package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
)

// Customer is what the order form collects.
type Customer struct {
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Note           string          `json:"note,omitempty"`
	PreferredTime  string          `json:"preferredTime,omitempty"`
	DeliveryMethod delivery.Method `json:"deliveryMethod"`
}

type OrderLine struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is an immutable snapshot handed to a transport.
type Order struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"sessionId"`
	CustomerName   string          `json:"customerName"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Note           string          `json:"note,omitempty"`
	PreferredTime  string          `json:"preferredTime,omitempty"`
	DeliveryMethod delivery.Method `json:"deliveryMethod"`
	DistanceKm     *float64        `json:"distanceKm,omitempty"`
	Lines          []OrderLine     `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Result is what a checkout attempt reports back to the caller.
type Result struct {
	State        State  `json:"state"`
	Order        *Order `json:"order,omitempty"`
	Transport    string `json:"transport,omitempty"`
	SavedLocally bool   `json:"savedLocally"`
	Error        string `json:"error,omitempty"`
}
