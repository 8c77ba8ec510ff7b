package cart

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priceTable map[string]decimal.Decimal

func (p priceTable) Price(id string) (decimal.Decimal, bool) {
	v, ok := p[id]
	return v, ok
}

func testPrices() priceTable {
	return priceTable{
		"halwa":         decimal.NewFromInt(45),
		"spring_roll":   decimal.NewFromInt(25),
		"chicken_tikka": decimal.NewFromInt(120),
		"tea":           decimal.RequireFromString("7.5"),
	}
}

func TestLedgerAddItem(t *testing.T) {
	l := NewLedger(testPrices())

	require.NoError(t, l.AddItem("chicken_tikka", 2))
	require.NoError(t, l.AddItem("halwa", 1))
	require.NoError(t, l.AddItem("chicken_tikka", 1))

	assert.Equal(t, []Line{
		{ItemID: "chicken_tikka", Quantity: 3},
		{ItemID: "halwa", Quantity: 1},
	}, l.Lines())
	assert.True(t, l.Subtotal().Equal(decimal.NewFromInt(405)), "subtotal=%s", l.Subtotal())
	assert.False(t, l.IsEmpty())
}

func TestLedgerAddItemRejects(t *testing.T) {
	tests := map[string]struct {
		item    string
		qty     int
		wantErr error
	}{
		"zero quantity":     {item: "halwa", qty: 0, wantErr: ErrInvalidQuantity},
		"negative quantity": {item: "halwa", qty: -3, wantErr: ErrInvalidQuantity},
		"above the cap":     {item: "halwa", qty: MaxQuantity + 1, wantErr: ErrInvalidQuantity},
		"max int":           {item: "halwa", qty: math.MaxInt, wantErr: ErrInvalidQuantity},
		"unknown item":      {item: "pizza", qty: 1, wantErr: ErrUnknownItem},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := NewLedger(testPrices())
			err := l.AddItem(tt.item, tt.qty)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.True(t, l.IsEmpty())
		})
	}
}

func TestLedgerChangeQuantity(t *testing.T) {
	l := NewLedger(testPrices())
	require.NoError(t, l.AddItem("halwa", 2))

	require.NoError(t, l.ChangeQuantity("halwa", 3))
	assert.Equal(t, 5, l.Quantity("halwa"))

	require.NoError(t, l.ChangeQuantity("halwa", -1))
	assert.Equal(t, 4, l.Quantity("halwa"))

	require.NoError(t, l.ChangeQuantity("halwa", -4))
	assert.True(t, l.IsEmpty())
	assert.Empty(t, l.Lines())

	err := l.ChangeQuantity("halwa", 1)
	assert.True(t, errors.Is(err, ErrItemNotFound), "got %v", err)
}

func TestLedgerChangeQuantityBelowZeroRemoves(t *testing.T) {
	l := NewLedger(testPrices())
	require.NoError(t, l.AddItem("tea", 1))
	require.NoError(t, l.AddItem("halwa", 1))

	require.NoError(t, l.ChangeQuantity("tea", -10))
	assert.Equal(t, []Line{{ItemID: "halwa", Quantity: 1}}, l.Lines())
}

func TestLedgerRemoveAndClear(t *testing.T) {
	l := NewLedger(testPrices())
	require.NoError(t, l.AddItem("tea", 2))
	require.NoError(t, l.AddItem("halwa", 1))

	l.RemoveItem("tea")
	l.RemoveItem("not-there")
	assert.Equal(t, []Line{{ItemID: "halwa", Quantity: 1}}, l.Lines())

	l.Clear()
	assert.True(t, l.IsEmpty())
	assert.True(t, l.Subtotal().IsZero())
}

func TestLedgerAddItemCannotOverflow(t *testing.T) {
	l := NewLedger(testPrices())
	require.NoError(t, l.AddItem("halwa", MaxQuantity))

	err := l.AddItem("halwa", 2)
	assert.True(t, errors.Is(err, ErrInvalidQuantity), "got %v", err)
	err = l.AddItem("halwa", math.MaxInt)
	assert.True(t, errors.Is(err, ErrInvalidQuantity), "got %v", err)

	assert.Equal(t, MaxQuantity, l.Quantity("halwa"))
	assert.Equal(t, "449955", l.Subtotal().String())
}

func TestLedgerChangeQuantityCannotOverflow(t *testing.T) {
	l := NewLedger(testPrices())
	require.NoError(t, l.AddItem("halwa", 1))

	err := l.ChangeQuantity("halwa", math.MaxInt)
	assert.True(t, errors.Is(err, ErrInvalidQuantity), "got %v", err)
	err = l.ChangeQuantity("halwa", MaxQuantity)
	assert.True(t, errors.Is(err, ErrInvalidQuantity), "got %v", err)
	assert.Equal(t, 1, l.Quantity("halwa"), "a rejected change leaves the line alone")

	require.NoError(t, l.ChangeQuantity("halwa", MaxQuantity-1))
	assert.Equal(t, MaxQuantity, l.Quantity("halwa"))

	require.NoError(t, l.ChangeQuantity("halwa", math.MinInt))
	assert.True(t, l.IsEmpty())
}

func TestRestoreCapsQuantities(t *testing.T) {
	l := Restore(testPrices(), []Line{
		{ItemID: "tea", Quantity: math.MaxInt},
		{ItemID: "halwa", Quantity: MaxQuantity - 1},
		{ItemID: "halwa", Quantity: 5},
	})
	assert.Equal(t, []Line{{ItemID: "halwa", Quantity: MaxQuantity}}, l.Lines())
}

func TestLedgerDecimalSubtotal(t *testing.T) {
	l := NewLedger(testPrices())
	require.NoError(t, l.AddItem("tea", 3))
	assert.Equal(t, "22.5", l.Subtotal().String())
}

func TestRestoreDropsInvalidLines(t *testing.T) {
	l := Restore(testPrices(), []Line{
		{ItemID: "halwa", Quantity: 1},
		{ItemID: "tea", Quantity: 0},
		{ItemID: "", Quantity: 2},
		{ItemID: "halwa", Quantity: 2},
	})
	assert.Equal(t, []Line{{ItemID: "halwa", Quantity: 3}}, l.Lines())
}

func TestLinesReturnsCopy(t *testing.T) {
	l := NewLedger(testPrices())
	require.NoError(t, l.AddItem("halwa", 1))

	lines := l.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, l.Quantity("halwa"))
}

// Random add/change/remove sequences must always leave positive lines and
// a subtotal equal to the sum over those lines.
func TestLedgerRandomSequences(t *testing.T) {
	prices := testPrices()
	ids := []string{"halwa", "spring_roll", "chicken_tikka", "tea", "unknown"}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		l := NewLedger(prices)
		for step := 0; step < 30; step++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(4) {
			case 0, 1:
				_ = l.AddItem(id, rng.Intn(5)-1)
			case 2:
				_ = l.ChangeQuantity(id, rng.Intn(7)-3)
			case 3:
				l.RemoveItem(id)
			}

			want := decimal.Zero
			for _, ln := range l.Lines() {
				require.Greater(t, ln.Quantity, 0)
				p, ok := prices.Price(ln.ItemID)
				require.True(t, ok)
				want = want.Add(p.Mul(decimal.NewFromInt(int64(ln.Quantity))))
			}
			require.True(t, l.Subtotal().Equal(want), "run %d step %d: got %s want %s", run, step, l.Subtotal(), want)
			require.Equal(t, len(l.Lines()) == 0, l.IsEmpty())
		}
	}
}
