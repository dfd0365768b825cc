package contracts

import (
	"testing"
	"time"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/checkout"
)

func TestBuildOrderPlacedEventFillsDefaults(t *testing.T) {
	settlement := &checkout.Settlement{OrderID: 42, Total: 700, PointsEarned: 7}
	sub := checkout.Submission{Items: []checkout.Item{{ProductID: 1, Quantity: 1, UnitPrice: 550}}}

	ev := BuildOrderPlacedEvent("s1", "u1", settlement, sub, EnvelopeOptions{
		PartitionKey: "s1",
		Sequence:     3,
	})

	if ev.EventID == "" {
		t.Fatal("expected a generated event id")
	}
	if ev.OccurredAt.IsZero() {
		t.Fatal("expected a generated occurredAt")
	}
	if ev.Producer != StorefrontProducer {
		t.Fatalf("expected default producer, got %q", ev.Producer)
	}
	if ev.EventName != OrderPlacedEventName || ev.EventVersion != OrderPlacedEventVersion {
		t.Fatalf("unexpected event identity %s v%d", ev.EventName, ev.EventVersion)
	}
	if ev.Sequence != 3 || ev.PartitionKey != "s1" {
		t.Fatalf("envelope did not carry partition/sequence: %+v", ev)
	}
	if len(ev.Payload.Items) != 1 || ev.Payload.OrderID != 42 {
		t.Fatalf("unexpected payload %+v", ev.Payload)
	}
}

func TestBuildOrderPlacedEventKeepsExplicitFields(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ev := BuildOrderPlacedEvent("s1", "u1", &checkout.Settlement{OrderID: 1}, checkout.Submission{}, EnvelopeOptions{
		EventID:       "evt-1",
		OccurredAt:    at,
		Producer:      "replayer",
		CorrelationID: "corr-1",
	})

	if ev.EventID != "evt-1" || !ev.OccurredAt.Equal(at) || ev.Producer != "replayer" || ev.CorrelationID != "corr-1" {
		t.Fatalf("explicit envelope fields were overridden: %+v", ev)
	}
}
