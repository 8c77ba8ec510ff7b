package checkout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
)

// Quoter estimates the delivery fee for a customer's address.
type Quoter interface {
	Quote(ctx context.Context, req delivery.QuoteRequest) delivery.Quote
}

type Service struct {
	carts     *cart.Service
	menu      cart.Menu
	quoter    Quoter
	quotes    *delivery.QuoteBook
	submitter *Submitter
	guard     Guard
	log       *zap.Logger
	now       func() time.Time
}

type Deps struct {
	Carts     *cart.Service
	Menu      cart.Menu
	Quoter    Quoter
	Quotes    *delivery.QuoteBook
	Submitter *Submitter
	Guard     Guard
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewService(d Deps) *Service {
	if d.Guard == nil {
		d.Guard = NewMemoryGuard()
	}
	if d.Quotes == nil {
		d.Quotes = delivery.NewQuoteBook()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		carts:     d.Carts,
		menu:      d.Menu,
		quoter:    d.Quoter,
		quotes:    d.Quotes,
		submitter: d.Submitter,
		guard:     d.Guard,
		log:       d.Logger,
		now:       d.Now,
	}
}

// QuoteDelivery runs a fee lookup for the session. The result is stored
// only if no newer lookup for the session started meanwhile; applied
// reports which happened.
func (s *Service) QuoteDelivery(ctx context.Context, sessionID string, req delivery.QuoteRequest) (q delivery.Quote, applied bool) {
	gen := s.quotes.Begin(sessionID)
	q = s.quoter.Quote(ctx, req)
	applied = s.quotes.Apply(sessionID, gen, q)
	if !applied {
		s.log.Debug("stale delivery quote discarded", zap.String("session_id", sessionID), zap.Uint64("generation", gen))
	}
	return q, applied
}

// CurrentQuote is the last applied quote for the session.
func (s *Service) CurrentQuote(sessionID string) delivery.Quote {
	return s.quotes.Get(sessionID)
}

// ResetQuote forgets the session's quote, e.g. after the cart is cleared.
func (s *Service) ResetQuote(sessionID string) {
	s.quotes.Reset(sessionID)
}

// Preview builds the order that Checkout would send, without sending it.
func (s *Service) Preview(ctx context.Context, sessionID string, c Customer) (Order, error) {
	ledger, err := s.carts.Ledger(ctx, sessionID)
	if err != nil {
		return Order{}, fmt.Errorf("load cart: %w", err)
	}
	if err := Validate(c, ledger); err != nil {
		return Order{}, err
	}
	q, _ := s.QuoteDelivery(ctx, sessionID, delivery.QuoteRequest{Address: c.Address, Method: c.DeliveryMethod})
	return BuildOrder(sessionID, c, ledger, s.menu, q, s.now())
}

// Checkout validates, prices and submits the session's cart. Only when the
// transport accepted the order are the submitted lines taken out of the
// cart and the quote reset; lines added while the order was in flight stay.
func (s *Service) Checkout(ctx context.Context, sessionID string, c Customer) (Result, error) {
	token, ok, err := s.guard.Acquire(ctx, sessionID)
	if err != nil {
		return Result{State: StateIdle}, fmt.Errorf("acquire submission guard: %w", err)
	}
	if !ok {
		return Result{State: StateIdle}, ErrSubmissionInProgress
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), sessionID, token); err != nil {
			s.log.Warn("release submission guard", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	sub := NewSubmission()
	if err := sub.Advance(StateValidating); err != nil {
		return Result{State: sub.State()}, err
	}

	order, err := s.Preview(ctx, sessionID, c)
	if err != nil {
		_ = sub.Advance(StateIdle)
		return Result{State: sub.State()}, err
	}

	res, err := s.submitter.Submit(ctx, sub, order)
	if err != nil {
		return res, err
	}

	if _, err := s.carts.Deduct(context.WithoutCancel(ctx), sessionID, submittedLines(order)); err != nil {
		s.log.Error("deduct submitted lines", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.quotes.Reset(sessionID)
	return res, nil
}

func submittedLines(o Order) []cart.Line {
	out := make([]cart.Line, 0, len(o.Lines))
	for _, ln := range o.Lines {
		out = append(out, cart.Line{ItemID: ln.ItemID, Quantity: ln.Quantity})
	}
	return out
}
