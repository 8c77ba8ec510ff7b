package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/contracts"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/correlation"
)

const publishTimeout = 3 * time.Second

type Publisher struct {
	ch  Channel
	seq SequenceRepository

	declareOnce sync.Once
	declareErr  error
}

func NewPublisher(ch Channel, seq SequenceRepository) *Publisher {
	return &Publisher{ch: ch, seq: seq}
}

// PublishOrderSubmitted sends the order as an OrderSubmitted v1 envelope
// partitioned by session.
func (p *Publisher) PublishOrderSubmitted(ctx context.Context, o checkout.Order) error {
	p.declareOnce.Do(func() { p.declareErr = declareEventsExchange(p.ch) })
	if p.declareErr != nil {
		return fmt.Errorf("declare exchange: %w", p.declareErr)
	}

	seq, err := p.seq.NextSequence(ctx, o.SessionID)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	env := contracts.BuildOrderSubmittedEvent(o, contracts.EnvelopeOptions{
		PartitionKey:  o.SessionID,
		Sequence:      seq,
		CorrelationID: correlation.FromContext(ctx),
		CausationID:   o.ID,
	})

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderSubmitted: %w", err)
	}

	return p.publishJSON(ctx, OrderSubmittedRoutingKey, env.EventID, env.CorrelationID, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID, correlationID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     messageID,
			CorrelationId: correlationID,
			AppId:         checkoutServiceName,
			Timestamp:     time.Now().UTC(),
			Body:          body,
		},
	)
}
