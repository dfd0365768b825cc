package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/checkout"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/contracts"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/middleware"
)

// RabbitOrderEventsPublisher emits enveloped OrderPlaced events. Each event
// carries a monotonically increasing sequence per session so consumers can
// detect gaps and reordering.
type RabbitOrderEventsPublisher struct {
	ch        *amqp.Channel
	sequences SequenceRepository
}

func NewRabbitOrderEventsPublisher(conn *amqp.Connection, sequences SequenceRepository) (*RabbitOrderEventsPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &RabbitOrderEventsPublisher{ch: ch, sequences: sequences}, nil
}

func (p *RabbitOrderEventsPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitOrderEventsPublisher) PublishOrderPlaced(ctx context.Context, sessionID, userID string, settlement *checkout.Settlement, sub checkout.Submission) error {
	seq, err := p.sequences.NextSequence(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ev := contracts.BuildOrderPlacedEvent(sessionID, userID, settlement, sub, contracts.EnvelopeOptions{
		PartitionKey:  sessionID,
		Sequence:      seq,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		EventsExchange,
		OrderPlacedRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.EventID,
			Body:         body,
		},
	)
}
