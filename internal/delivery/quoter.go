package delivery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Method string

const (
	MethodSelfPickup Method = "self-pickup"
	MethodDelivery   Method = "delivery"
)

func (m Method) Valid() bool {
	return m == MethodSelfPickup || m == MethodDelivery
}

const ReasonGeocodeUnavailable = "geocode_unavailable"

type QuoteRequest struct {
	Address string `json:"address"`
	Method  Method `json:"deliveryMethod"`
}

// Quote is the outcome of a fee estimate. Available is false when the
// address could not be resolved; Fee is zero in that case.
type Quote struct {
	Fee        decimal.Decimal `json:"fee"`
	DistanceKm *float64        `json:"distanceKm,omitempty"`
	Available  bool            `json:"available"`
	Reason     string          `json:"reason,omitempty"`
}

func ZeroQuote() Quote {
	return Quote{Fee: decimal.Zero, Available: true}
}

type Quoter struct {
	geocoder Geocoder
	shop     Coordinates
	rate     decimal.Decimal
	log      *zap.Logger
}

func NewQuoter(g Geocoder, shop Coordinates, ratePerKm decimal.Decimal, log *zap.Logger) *Quoter {
	return &Quoter{geocoder: g, shop: shop, rate: ratePerKm, log: log}
}

// Quote never fails: geocoding problems degrade to a zero fee with
// Available set to false.
func (q *Quoter) Quote(ctx context.Context, req QuoteRequest) Quote {
	if req.Method != MethodDelivery {
		return ZeroQuote()
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return ZeroQuote()
	}

	coords, err := q.geocoder.Geocode(ctx, address)
	if err != nil {
		q.log.Warn("geocode failed", zap.Error(err))
		return unavailable()
	}
	if coords == nil {
		q.log.Info("address not found", zap.String("address", address))
		return unavailable()
	}

	km := Distance(q.shop, *coords)
	fee, err := EstimateFee(km, q.rate)
	if err != nil {
		q.log.Warn("fee estimate failed", zap.Float64("distance_km", km), zap.Error(err))
		return unavailable()
	}
	return Quote{Fee: fee, DistanceKm: &km, Available: true}
}

func unavailable() Quote {
	return Quote{Fee: decimal.Zero, Available: false, Reason: ReasonGeocodeUnavailable}
}

// Generations numbers fee lookups per session so that only the most
// recently started one is applied. Numbers come from one counter shared by
// all sessions, so a forgotten session never sees an old number again.
type Generations struct {
	mu      sync.Mutex
	counter uint64
	latest  map[string]uint64
}

func NewGenerations() *Generations {
	return &Generations{latest: make(map[string]uint64)}
}

func (g *Generations) Next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	g.latest[key] = g.counter
	return g.counter
}

func (g *Generations) IsLatest(key string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	latest, ok := g.latest[key]
	return ok && latest == gen
}

// Forget drops key. Generations handed out for it before are no longer
// latest.
func (g *Generations) Forget(key string) {
	g.mu.Lock()
	delete(g.latest, key)
	g.mu.Unlock()
}

func (g *Generations) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.latest)
}

// QuoteBook remembers the last applied quote per session.
type QuoteBook struct {
	mu      sync.RWMutex
	quotes  map[string]Quote
	touched map[string]time.Time
	gens    *Generations
	now     func() time.Time
}

func NewQuoteBook() *QuoteBook {
	return &QuoteBook{
		quotes:  make(map[string]Quote),
		touched: make(map[string]time.Time),
		gens:    NewGenerations(),
		now:     time.Now,
	}
}

// Begin starts a lookup for the session and returns its generation.
func (b *QuoteBook) Begin(sessionID string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touched[sessionID] = b.now()
	return b.gens.Next(sessionID)
}

// Apply stores q if gen is still the latest generation. It reports
// whether the quote was applied.
func (b *QuoteBook) Apply(sessionID string, gen uint64, q Quote) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.gens.IsLatest(sessionID, gen) {
		return false
	}
	b.quotes[sessionID] = q
	b.touched[sessionID] = b.now()
	return true
}

// Get returns the applied quote, or a zero quote when none exists.
func (b *QuoteBook) Get(sessionID string) Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[sessionID]
	if !ok {
		return ZeroQuote()
	}
	return q
}

// Reset drops the session's quote and invalidates lookups still in flight.
func (b *QuoteBook) Reset(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forget(sessionID)
}

// Sweep forgets sessions with no lookup or applied quote in the last idle
// and returns how many it dropped.
func (b *QuoteBook) Sweep(idle time.Duration) int {
	cutoff := b.now().Add(-idle)
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for sessionID, at := range b.touched {
		if at.Before(cutoff) {
			b.forget(sessionID)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (b *QuoteBook) RunSweeper(ctx context.Context, interval, idle time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := b.Sweep(idle); n > 0 {
				log.Debug("swept idle delivery quotes", zap.Int("sessions", n))
			}
		}
	}
}

func (b *QuoteBook) forget(sessionID string) {
	b.gens.Forget(sessionID)
	delete(b.quotes, sessionID)
	delete(b.touched, sessionID)
}
