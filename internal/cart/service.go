package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/menu"
)

// Menu is the subset of the catalog the cart needs.
type Menu interface {
	PriceLookup
	Lookup(id string) (menu.Item, bool)
}

// View is a cart resolved against the menu.
type View struct {
	SessionID string          `json:"sessionId"`
	Lines     []PricedLine    `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Empty     bool            `json:"empty"`
}

// Service loads, mutates and stores ledgers. Calls for the same session
// are serialized.
type Service struct {
	repo Repository
	menu Menu

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from Service.locks once no caller holds or
// waits on it.
type sessionLock struct {
	sync.Mutex
	refs int
}

func NewService(repo Repository, m Menu) *Service {
	return &Service{
		repo:  repo,
		menu:  m,
		locks: make(map[string]*sessionLock),
	}
}

func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

func (s *Service) load(ctx context.Context, sessionID string) (*Ledger, error) {
	snap, err := s.repo.Load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return NewLedger(s.menu), nil
	}
	if err != nil {
		return nil, err
	}
	return Restore(s.menu, snap.Lines), nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (View, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	l, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.view(sessionID, l), nil
}

// Ledger returns a detached copy of the session's ledger.
func (s *Service) Ledger(ctx context.Context, sessionID string) (*Ledger, error) {
	unlock := s.lock(sessionID)
	defer unlock()
	return s.load(ctx, sessionID)
}

// Mutate applies fn to the session's ledger and stores the result when fn
// succeeds. On error nothing is written.
func (s *Service) Mutate(ctx context.Context, sessionID string, fn func(*Ledger) error) (View, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	l, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := fn(l); err != nil {
		return View{}, err
	}

	if l.IsEmpty() {
		err = s.repo.Delete(ctx, sessionID)
	} else {
		err = s.repo.Save(ctx, sessionID, l.Lines())
	}
	if err != nil {
		return View{}, err
	}
	return s.view(sessionID, l), nil
}

func (s *Service) AddItem(ctx context.Context, sessionID, itemID string, quantity int) (View, error) {
	return s.Mutate(ctx, sessionID, func(l *Ledger) error {
		return l.AddItem(itemID, quantity)
	})
}

func (s *Service) ChangeQuantity(ctx context.Context, sessionID, itemID string, delta int) (View, error) {
	return s.Mutate(ctx, sessionID, func(l *Ledger) error {
		return l.ChangeQuantity(itemID, delta)
	})
}

func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) (View, error) {
	return s.Mutate(ctx, sessionID, func(l *Ledger) error {
		l.RemoveItem(itemID)
		return nil
	})
}

// Deduct subtracts lines from the session's cart. Items no longer in the
// cart are skipped, so whatever was added after lines were read survives.
func (s *Service) Deduct(ctx context.Context, sessionID string, lines []Line) (View, error) {
	return s.Mutate(ctx, sessionID, func(l *Ledger) error {
		for _, ln := range lines {
			if ln.Quantity <= 0 {
				continue
			}
			err := l.ChangeQuantity(ln.ItemID, -ln.Quantity)
			if err != nil && !errors.Is(err, ErrItemNotFound) {
				return err
			}
		}
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()
	return s.repo.Delete(ctx, sessionID)
}

func (s *Service) view(sessionID string, l *Ledger) View {
	return View{
		SessionID: sessionID,
		Lines:     Price(s.menu, l),
		Subtotal:  l.Subtotal(),
		Empty:     l.IsEmpty(),
	}
}

// Price resolves the ledger's lines against the menu. Lines whose item
// has left the menu are skipped.
func Price(m Menu, l *Ledger) []PricedLine {
	lines := l.Lines()
	out := make([]PricedLine, 0, len(lines))
	for _, ln := range lines {
		it, ok := m.Lookup(ln.ItemID)
		if !ok {
			continue
		}
		out = append(out, PricedLine{
			ItemID:    ln.ItemID,
			Name:      it.Name,
			Quantity:  ln.Quantity,
			UnitPrice: it.Price,
			Subtotal:  it.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))),
		})
	}
	return out
}
