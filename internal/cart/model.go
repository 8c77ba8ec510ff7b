package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one persisted cart entry. Quantity is always positive.
type Line struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// PricedLine is a Line resolved against the menu for display.
type PricedLine struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Snapshot is what the repository stores for a session.
type Snapshot struct {
	SessionID string    `json:"sessionId"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updatedAt"`
}
