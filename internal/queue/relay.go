package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"frontdesk-order-services/internal/effects"

	"go.uber.org/zap"
)

// RelayHandler decodes events from the relay queue and hands them to the
// local realtime hub. Each instance has its own relay queue, so clients
// connected to any instance see every event.
func RelayHandler(hub effects.EventPublisher, logger *zap.Logger) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var event effects.Event
		if err := json.Unmarshal(body, &event); err != nil {
			// Malformed messages will never decode; drop them.
			logger.Warn("relay dropped malformed event", zap.Error(err))
			return nil
		}
		if event.Name == "" {
			return nil
		}
		if err := hub.PublishEvent(ctx, event); err != nil {
			return fmt.Errorf("relay %s: %w", event.Name, err)
		}
		return nil
	}
}

// RunRelay declares this instance's relay queue and consumes it until ctx
// is done.
func RunRelay(ctx context.Context, qc *Client, eventsExchange string, hub effects.EventPublisher, logger *zap.Logger) error {
	queue, err := DeclareRelayQueue(qc, eventsExchange)
	if err != nil {
		return fmt.Errorf("declare relay queue: %w", err)
	}
	logger.Info("realtime relay consuming", zap.String("queue", queue))
	return qc.ConsumeWithRetry(ctx, queue, RelayHandler(hub, logger), 3, 2*time.Second)
}
