package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("cart not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Save(ctx context.Context, sessionID string, lines []Line) error
	Delete(ctx context.Context, sessionID string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.item_id, l.quantity, c.updated_at
		FROM carts c
		JOIN cart_lines l ON l.session_id = c.session_id
		WHERE c.session_id = $1
		ORDER BY l.position
	`, sessionID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{SessionID: sessionID}
	for rows.Next() {
		var ln Line
		if err := rows.Scan(&ln.ItemID, &ln.Quantity, &snap.UpdatedAt); err != nil {
			return Snapshot{}, fmt.Errorf("scan cart line: %w", err)
		}
		snap.Lines = append(snap.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("rows: %w", err)
	}
	if len(snap.Lines) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Save replaces every line of the session's cart in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, sessionID string, lines []Line) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO carts(session_id, updated_at)
		VALUES($1, now())
		ON CONFLICT (session_id) DO UPDATE SET updated_at=now()
	`, sessionID); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}

	for i, ln := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_lines(session_id, item_id, quantity, position)
			VALUES($1, $2, $3, $4)
		`, sessionID, ln.ItemID, ln.Quantity, i); err != nil {
			return fmt.Errorf("insert cart line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the cart; cart_lines go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE session_id=$1`, sessionID)
	return err
}

// MemoryRepository keeps carts in process memory. Used when no database
// is configured and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]Snapshot
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		carts: make(map[string]Snapshot),
		now:   time.Now,
	}
}

func (r *MemoryRepository) Load(_ context.Context, sessionID string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.carts[sessionID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	snap.Lines = append([]Line(nil), snap.Lines...)
	return snap, nil
}

func (r *MemoryRepository) Save(_ context.Context, sessionID string, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(lines) == 0 {
		delete(r.carts, sessionID)
		return nil
	}
	r.carts[sessionID] = Snapshot{
		SessionID: sessionID,
		Lines:     append([]Line(nil), lines...),
		UpdatedAt: r.now().UTC(),
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.mu.Unlock()
	return nil
}
