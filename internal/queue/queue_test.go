package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"frontdesk-order-services/internal/effects"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		name     string
		headers  amqp.Table
		expected int
	}{
		{name: "nil headers", headers: nil, expected: 0},
		{name: "missing", headers: amqp.Table{"other": "x"}, expected: 0},
		{name: "int32", headers: amqp.Table{"x-retry-count": int32(2)}, expected: 2},
		{name: "int64", headers: amqp.Table{"x-retry-count": int64(4)}, expected: 4},
		{name: "int", headers: amqp.Table{"x-retry-count": 1}, expected: 1},
		{name: "wrong type", headers: amqp.Table{"x-retry-count": "3"}, expected: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getRetryCount(tc.headers); got != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey(effects.EventKOTItemReady); got != "kot.item_ready" {
		t.Fatalf("unexpected routing key %s", got)
	}
	if got := RoutingKey(effects.EventTableUpdated); got != "table.updated" {
		t.Fatalf("unexpected routing key %s", got)
	}
}

type hubStub struct {
	events []effects.Event
	err    error
}

func (h *hubStub) PublishEvent(_ context.Context, e effects.Event) error {
	h.events = append(h.events, e)
	return h.err
}

func TestRelayHandler(t *testing.T) {
	hub := &hubStub{}
	handle := RelayHandler(hub, zap.NewNop())

	body := []byte(`{"id":"e1","event":"kot:ready","rooms":["kitchen:1"],"payload":{"ticketId":4}}`)
	if err := handle(context.Background(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hub.events) != 1 || hub.events[0].Name != effects.EventKOTReady || hub.events[0].Rooms[0] != "kitchen:1" {
		t.Fatalf("unexpected relayed events: %+v", hub.events)
	}

	if err := handle(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("malformed messages should be dropped, got %v", err)
	}

	hub.err = errors.New("hub closed")
	if err := handle(context.Background(), body); err == nil {
		t.Fatal("expected hub failure to be retried")
	}
}

func TestRelayQueueIsPerInstance(t *testing.T) {
	opts := RelayQueueOptions("frontdesk.events")
	if opts.Name != "" || opts.Durable || !opts.Exclusive || !opts.AutoDelete {
		t.Fatalf("relay queue must be server-named, exclusive and auto-deleted: %+v", opts)
	}
	if opts.Args["x-dead-letter-exchange"] != "frontdesk.events" || opts.Args["x-dead-letter-routing-key"] != RelayDeadRK {
		t.Fatalf("relay queue lost its dead-letter wiring: %v", opts.Args)
	}
}

func TestRelayBindingsCoverEvents(t *testing.T) {
	events := []string{
		effects.EventTableUpdated, effects.EventOrderCreated, effects.EventOrderUpdated,
		effects.EventOrderBilled, effects.EventOrderPaid, effects.EventOrderCancelled,
		effects.EventPayment, effects.EventKOTCreated, effects.EventKOTAccepted,
		effects.EventKOTPreparing, effects.EventKOTItemReady, effects.EventKOTReady,
		effects.EventKOTServed, effects.EventKOTCancelled, effects.EventItemReady,
	}
	for _, name := range events {
		key := RoutingKey(name)
		bound := false
		for _, binding := range RelayBindings {
			if strings.HasPrefix(key, strings.TrimSuffix(binding, "#")) {
				bound = true
				break
			}
		}
		if !bound {
			t.Fatalf("routing key %s reaches no relay binding", key)
		}
	}
}
