package events

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange           = "shop.events"
	OrderSubmittedRoutingKey = "order.submitted.v1"
	checkoutServiceName      = "checkout-service-go"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

func declareEventsExchange(ch Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// QueueName is the conventional queue a consumer service binds for a
// routing key.
func QueueName(serviceName, routingKey string) string {
	return serviceName + "." + routingKey
}
