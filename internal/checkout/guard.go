package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Guard makes sure only one submission per session is in flight.
type Guard interface {
	// Acquire reports false when key is already held. The returned token
	// identifies this holder to Release.
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	// Release frees key only if token still owns it.
	Release(ctx context.Context, key, token string) error
}

type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]string)}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	g.held[key] = token
	return token, true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key, token string) error {
	g.mu.Lock()
	if g.held[key] == token {
		delete(g.held, key)
	}
	g.mu.Unlock()
	return nil
}
