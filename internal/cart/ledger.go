package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxQuantity caps a single line. It also keeps quantities inside the
// cart_lines.quantity INTEGER column.
const MaxQuantity = 9999

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrUnknownItem     = errors.New("item not on the menu")
)

// PriceLookup resolves the unit price of a menu item.
type PriceLookup interface {
	Price(itemID string) (decimal.Decimal, bool)
}

// Ledger holds the lines of one session's cart. It is not safe for
// concurrent use; Service serializes access per session.
type Ledger struct {
	prices PriceLookup
	qty    map[string]int
	order  []string
}

func NewLedger(prices PriceLookup) *Ledger {
	return &Ledger{
		prices: prices,
		qty:    make(map[string]int),
	}
}

// Restore rebuilds a ledger from stored lines. Lines with a quantity
// outside 1..MaxQuantity are dropped; repeated item ids are summed and
// capped at MaxQuantity.
func Restore(prices PriceLookup, lines []Line) *Ledger {
	l := NewLedger(prices)
	for _, ln := range lines {
		if ln.Quantity <= 0 || ln.Quantity > MaxQuantity || ln.ItemID == "" {
			continue
		}
		l.add(ln.ItemID, min(ln.Quantity, MaxQuantity-l.qty[ln.ItemID]))
	}
	return l
}

func (l *Ledger) AddItem(itemID string, quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if _, ok := l.prices.Price(itemID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	if current := l.qty[itemID]; quantity > MaxQuantity-current {
		return fmt.Errorf("%w: %d + %d exceeds %d", ErrInvalidQuantity, current, quantity, MaxQuantity)
	}
	l.add(itemID, quantity)
	return nil
}

// ChangeQuantity adds delta to an existing line. A line that drops to
// zero or below is removed; a line pushed above MaxQuantity is rejected.
func (l *Ledger) ChangeQuantity(itemID string, delta int) error {
	current, ok := l.qty[itemID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}
	if delta > MaxQuantity-current {
		return fmt.Errorf("%w: %d + %d exceeds %d", ErrInvalidQuantity, current, delta, MaxQuantity)
	}
	next := current + delta
	if next <= 0 {
		l.RemoveItem(itemID)
		return nil
	}
	l.qty[itemID] = next
	return nil
}

func (l *Ledger) RemoveItem(itemID string) {
	if _, ok := l.qty[itemID]; !ok {
		return
	}
	delete(l.qty, itemID)
	for i, id := range l.order {
		if id == itemID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *Ledger) Clear() {
	l.qty = make(map[string]int)
	l.order = nil
}

// Subtotal sums quantity × unit price over all lines.
func (l *Ledger) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for id, q := range l.qty {
		price, ok := l.prices.Price(id)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(q))))
	}
	return total
}

func (l *Ledger) IsEmpty() bool {
	for _, q := range l.qty {
		if q > 0 {
			return false
		}
	}
	return true
}

func (l *Ledger) Quantity(itemID string) int {
	return l.qty[itemID]
}

// Lines returns copies of the lines in the order they were first added.
func (l *Ledger) Lines() []Line {
	out := make([]Line, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, Line{ItemID: id, Quantity: l.qty[id]})
	}
	return out
}

func (l *Ledger) add(itemID string, quantity int) {
	if _, ok := l.qty[itemID]; !ok {
		l.order = append(l.order, itemID)
	}
	l.qty[itemID] += quantity
}
