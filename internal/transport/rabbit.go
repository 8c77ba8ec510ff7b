package transport

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
)

// OrderPublisher is implemented by events.Publisher.
type OrderPublisher interface {
	PublishOrderSubmitted(ctx context.Context, o checkout.Order) error
}

// Rabbit hands orders to the event bus for downstream consumers.
type Rabbit struct {
	pub OrderPublisher
}

func NewRabbit(pub OrderPublisher) *Rabbit {
	return &Rabbit{pub: pub}
}

func (r *Rabbit) Name() string { return "amqp" }

func (r *Rabbit) Send(ctx context.Context, o checkout.Order) error {
	err := r.pub.PublishOrderSubmitted(ctx, o)
	if err == nil {
		return nil
	}

	var amqpErr *amqp.Error
	if errors.Is(err, amqp.ErrClosed) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &amqpErr) && !amqpErr.Server) {
		return fmt.Errorf("%w: %w", checkout.ErrTransportUnreachable, err)
	}
	return fmt.Errorf("%w: %w", ErrRejected, err)
}
