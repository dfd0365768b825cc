package contracts

import (
	"time"

	"github.com/google/uuid"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/checkout"
)

const (
	OrderPlacedEventName    = "OrderPlaced"
	OrderPlacedEventVersion = 1
	StorefrontProducer      = "storefront-service"
)

type EventEnvelope struct {
	EventName     string             `json:"eventName"`
	EventVersion  int                `json:"eventVersion"`
	EventID       string             `json:"eventId"`
	CorrelationID string             `json:"correlationId,omitempty"`
	Producer      string             `json:"producer"`
	PartitionKey  string             `json:"partitionKey"`
	Sequence      int64              `json:"sequence"`
	OccurredAt    time.Time          `json:"occurredAt"`
	Payload       OrderPlacedPayload `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID        int64             `json:"orderId"`
	SessionID      string            `json:"sessionId"`
	UserID         string            `json:"userId"`
	Items          []OrderPlacedItem `json:"items"`
	Total          float64           `json:"total"`
	PointsEarned   int               `json:"pointsEarned"`
	PointsRedeemed int               `json:"pointsRedeemed"`
	DiscountAmount float64           `json:"discountAmount"`
	Timestamp      time.Time         `json:"timestamp"`
}

type OrderPlacedItem struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type EnvelopeOptions struct {
	PartitionKey  string
	Sequence      int64
	Producer      string
	CorrelationID string
	EventID       string
	OccurredAt    time.Time
}

// BuildOrderPlacedEvent assembles the enveloped event for a confirmed
// settlement. Missing envelope fields get generated defaults.
func BuildOrderPlacedEvent(sessionID, userID string, settlement *checkout.Settlement, sub checkout.Submission, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	producer := opts.Producer
	if producer == "" {
		producer = StorefrontProducer
	}

	payload := OrderPlacedPayload{
		OrderID:        settlement.OrderID,
		SessionID:      sessionID,
		UserID:         userID,
		Total:          settlement.Total,
		PointsEarned:   settlement.PointsEarned,
		PointsRedeemed: settlement.PointsRedeemed,
		DiscountAmount: settlement.DiscountAmount,
		Timestamp:      occurredAt,
	}

	for _, it := range sub.Items {
		payload.Items = append(payload.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	return EventEnvelope{
		EventName:     OrderPlacedEventName,
		EventVersion:  OrderPlacedEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		Producer:      producer,
		PartitionKey:  opts.PartitionKey,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Payload:       payload,
	}
}
