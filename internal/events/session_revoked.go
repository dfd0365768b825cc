package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SessionRevoked is published by the auth service when a session ends, e.g.
// the user logs out in another tab. For the storefront it is the
// authoritative "cart cleared" signal.
type SessionRevoked struct {
	EventType string    `json:"eventType"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// RevokeHandler applies the reset: clear the stored cart and invalidate any
// in-flight checkout for the session.
type RevokeHandler func(ctx context.Context, ev SessionRevoked) error

// StartSessionRevokedConsumer binds a service queue to the events exchange
// and applies revocations as they arrive. The consumer stops when ctx ends.
func StartSessionRevokedConsumer(ctx context.Context, conn *amqp.Connection, handle RevokeHandler, logger *log.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	queue := storefrontQueueName(SessionRevokedRoutingKey)
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(queue, SessionRevokedRoutingKey, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(
		queue,
		storefrontServiceName, // consumer tag
		false,                 // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Println("stopping session.revoked consumer")
				_ = ch.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Println("messages channel closed")
					return
				}

				if err := handleSessionRevoked(ctx, handle, msg.Body, logger); err != nil {
					logger.Printf("handle session.revoked: %v", err)
					_ = msg.Nack(false, false)
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()

	return nil
}

func handleSessionRevoked(ctx context.Context, handle RevokeHandler, body []byte, logger *log.Logger) error {
	var ev SessionRevoked
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.SessionID == "" {
		return fmt.Errorf("session.revoked without sessionId")
	}

	if err := handle(ctx, ev); err != nil {
		return fmt.Errorf("apply revocation for session %s: %w", ev.SessionID, err)
	}

	logger.Printf("session %s revoked, cart cleared", ev.SessionID)
	return nil
}
