package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Transport delivers an order to the shop owner.
type Transport interface {
	Name() string
	Send(ctx context.Context, o Order) error
}

// FallbackStore keeps orders that could not reach the transport.
type FallbackStore interface {
	Append(ctx context.Context, o Order) error
}

type Submitter struct {
	transport Transport
	fallback  FallbackStore
	log       *zap.Logger
}

// NewSubmitter wires a transport and an optional fallback store (nil
// disables local saving).
func NewSubmitter(t Transport, fallback FallbackStore, log *zap.Logger) *Submitter {
	return &Submitter{transport: t, fallback: fallback, log: log}
}

func (s *Submitter) TransportName() string {
	return s.transport.Name()
}

// Submit sends o exactly once. sub must be in StateValidating; it ends in
// StateSucceeded or StateFailed. Failures are returned wrapped in
// ErrTransportFailure and are never retried.
func (s *Submitter) Submit(ctx context.Context, sub *Submission, o Order) (Result, error) {
	if err := sub.Advance(StateSubmitting); err != nil {
		return Result{State: sub.State()}, err
	}

	res := Result{Order: &o, Transport: s.transport.Name()}
	log := s.log.With(
		zap.String("order_id", o.ID),
		zap.String("session_id", o.SessionID),
		zap.String("transport", s.transport.Name()),
	)

	sendErr := s.transport.Send(ctx, o)
	if sendErr == nil {
		_ = sub.Advance(StateSucceeded)
		res.State = sub.State()
		log.Info("order submitted", zap.String("total", o.Total.String()))
		return res, nil
	}

	_ = sub.Advance(StateFailed)
	res.State = sub.State()
	res.Error = sendErr.Error()
	log.Warn("order submission failed", zap.Error(sendErr))

	if s.fallback != nil && errors.Is(sendErr, ErrTransportUnreachable) {
		if err := s.fallback.Append(ctx, o); err != nil {
			log.Error("save order locally", zap.Error(err))
		} else {
			res.SavedLocally = true
			log.Info("order saved locally")
		}
	}

	return res, fmt.Errorf("%w: %w", ErrTransportFailure, sendErr)
}
