// Package fallback keeps orders that could not be delivered so the shop
// owner can export them later. Saved orders are never resent.
package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
)

type Store interface {
	Append(ctx context.Context, o checkout.Order) error
	// List returns the session's saved orders, newest first.
	List(ctx context.Context, sessionID string) ([]checkout.Order, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	orders []checkout.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, o checkout.Order) error {
	o.Lines = append([]checkout.OrderLine(nil), o.Lines...)
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context, sessionID string) ([]checkout.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []checkout.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].SessionID == sessionID {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	pool DBPool
}

func NewPostgresStore(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, o checkout.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO order_fallback(order_id, session_id, payload, saved_at)
		VALUES($1, $2, $3, now())
		ON CONFLICT (order_id) DO NOTHING
	`, o.ID, o.SessionID, payload)
	if err != nil {
		return fmt.Errorf("insert fallback order: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, sessionID string) ([]checkout.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM order_fallback
		WHERE session_id=$1
		ORDER BY saved_at DESC, id DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select fallback orders: %w", err)
	}
	defer rows.Close()

	out := []checkout.Order{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan fallback order: %w", err)
		}
		var o checkout.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("decode fallback order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
