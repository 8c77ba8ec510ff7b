package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
)

const (
	OrderSubmittedEventName           = "OrderSubmitted"
	OrderSubmittedEventVersion        = 1
	OrderSubmittedEnvelopedSchemaPath = "contracts/events/shop/OrderSubmitted.v1.enveloped.schema.json"
	CheckoutServiceProducer           = "checkout-service"
)

type EventEnvelope struct {
	EventName     string                `json:"eventName"`
	EventVersion  int                   `json:"eventVersion"`
	EventID       string                `json:"eventId"`
	CorrelationID string                `json:"correlationId,omitempty"`
	CausationID   string                `json:"causationId,omitempty"`
	Producer      string                `json:"producer"`
	PartitionKey  string                `json:"partitionKey"`
	Sequence      int64                 `json:"sequence"`
	OccurredAt    time.Time             `json:"occurredAt"`
	Schema        string                `json:"schema"`
	Payload       OrderSubmittedPayload `json:"payload"`
}

type OrderSubmittedPayload struct {
	OrderID        string               `json:"orderId"`
	SessionID      string               `json:"sessionId"`
	CustomerName   string               `json:"customerName"`
	Phone          string               `json:"phone"`
	Address        string               `json:"address,omitempty"`
	Note           string               `json:"note,omitempty"`
	PreferredTime  string               `json:"preferredTime,omitempty"`
	DeliveryMethod string               `json:"deliveryMethod"`
	DistanceKm     *float64             `json:"distanceKm,omitempty"`
	Items          []OrderSubmittedItem `json:"items"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DeliveryFee    decimal.Decimal      `json:"deliveryFee"`
	Total          decimal.Decimal      `json:"total"`
	Timestamp      time.Time            `json:"timestamp"`
}

type OrderSubmittedItem struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type EnvelopeOptions struct {
	PartitionKey  string
	Sequence      int64
	Producer      string
	SchemaPath    string
	CorrelationID string
	CausationID   string
	EventID       string
	OccurredAt    time.Time
}

// BuildOrderSubmittedEvent wraps o in a v1 envelope. Zero-valued options
// fall back to a fresh event id, the current time, the default producer
// and the session id as partition key.
func BuildOrderSubmittedEvent(o checkout.Order, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	schemaPath := opts.SchemaPath
	if schemaPath == "" {
		schemaPath = OrderSubmittedEnvelopedSchemaPath
	}

	producer := opts.Producer
	if producer == "" {
		producer = CheckoutServiceProducer
	}

	partitionKey := opts.PartitionKey
	if partitionKey == "" {
		partitionKey = o.SessionID
	}

	payload := OrderSubmittedPayload{
		OrderID:        o.ID,
		SessionID:      o.SessionID,
		CustomerName:   o.CustomerName,
		Phone:          o.Phone,
		Address:        o.Address,
		Note:           o.Note,
		PreferredTime:  o.PreferredTime,
		DeliveryMethod: string(o.DeliveryMethod),
		DistanceKm:     o.DistanceKm,
		Subtotal:       o.Subtotal,
		DeliveryFee:    o.DeliveryFee,
		Total:          o.Total,
		Timestamp:      o.CreatedAt,
	}

	for _, ln := range o.Lines {
		payload.Items = append(payload.Items, OrderSubmittedItem{
			ItemID:    ln.ItemID,
			Name:      ln.Name,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
		})
	}

	return EventEnvelope{
		EventName:     OrderSubmittedEventName,
		EventVersion:  OrderSubmittedEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  partitionKey,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        schemaPath,
		Payload:       payload,
	}
}
