package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
)

func order(id string) checkout.Order {
	return checkout.Order{
		ID:             id,
		SessionID:      "s1",
		CustomerName:   "Ali",
		Phone:          "5553334455",
		DeliveryMethod: delivery.MethodSelfPickup,
		Lines: []checkout.OrderLine{
			{ItemID: "halwa", Name: "Halwa Puri (1 plate)", Quantity: 1, UnitPrice: decimal.NewFromInt(45), Subtotal: decimal.NewFromInt(45)},
		},
		Subtotal:    decimal.NewFromInt(45),
		DeliveryFee: decimal.Zero,
		Total:       decimal.NewFromInt(45),
		CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	list, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)

	first := order("o-1")
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, order("o-2")))
	other := order("o-3")
	other.SessionID = "s2"
	require.NoError(t, s.Append(ctx, other))
	first.Lines[0].Quantity = 99

	list, err = s.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o-2", list[0].ID)
	assert.Equal(t, "o-1", list[1].ID)
	assert.Equal(t, 1, list[1].Lines[0].Quantity)

	list, err = s.List(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "o-3", list[0].ID)

	list, err = s.List(ctx, "s3")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPostgresStore_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	o := order("o-1")
	payload, err := json.Marshal(o)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_fallback(order_id, session_id, payload, saved_at)`)).
		WithArgs("o-1", "s1", payload).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresStore(mock).Append(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_fallback`)).
		WillReturnError(errors.New("connection reset"))

	err = NewPostgresStore(mock).Append(context.Background(), order("o-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert fallback order")
}

func TestPostgresStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	newer, err := json.Marshal(order("o-2"))
	require.NoError(t, err)
	older, err := json.Marshal(order("o-1"))
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM order_fallback`) + `\s+WHERE session_id=\$1\s+ORDER BY saved_at DESC`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(newer).AddRow(older))

	list, err := NewPostgresStore(mock).List(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o-2", list[0].ID)
	assert.Equal(t, "45", list[1].Total.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCorruptPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM order_fallback`)).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`{not json`)))

	_, err = NewPostgresStore(mock).List(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode fallback order")
}

func TestPostgresStore_ListOtherSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM order_fallback`)).
		WithArgs("s2").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}))

	list, err := NewPostgresStore(mock).List(context.Background(), "s2")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}
