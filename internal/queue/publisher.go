package queue

import (
	"context"
	"strings"

	"frontdesk-order-services/internal/effects"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends committed events to the events exchange and print jobs to
// the print exchange.
type Publisher struct {
	client         *Client
	eventsExchange string
}

func NewPublisher(client *Client, eventsExchange string) *Publisher {
	return &Publisher{client: client, eventsExchange: eventsExchange}
}

// RoutingKey maps an event name such as "kot:item_ready" to "kot.item_ready".
func RoutingKey(eventName string) string {
	return strings.ReplaceAll(eventName, ":", ".")
}

func (p *Publisher) PublishEvent(ctx context.Context, event effects.Event) error {
	return p.client.PublishJSON(ctx, p.eventsExchange, RoutingKey(event.Name), event.ID, amqp.Table{
		"x-event": event.Name,
	}, event)
}

func (p *Publisher) SubmitPrint(ctx context.Context, job effects.PrintJob) error {
	headers := amqp.Table{
		"x-print-kind": string(job.Kind),
		"x-outlet-id":  job.OutletID,
	}
	if job.Station != "" {
		headers["x-station"] = job.Station
	}
	return p.client.PublishJSON(ctx, PrintJobsExchange, PrintJobsRK, job.ID, headers, job)
}
