package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	PrintJobsExchange = "frontdesk.print_jobs"
	PrintJobsDLQ      = "frontdesk.print_jobs.dlq"
	PrintJobsRK       = "print"
	PrintJobsDeadRK   = "dead"

	RelayDLQ    = "frontdesk.realtime.dlq"
	RelayDeadRK = "realtime.dead"
)

// Topology names the exchanges and durable queues the service publishes to.
type Topology struct {
	EventsExchange string
	PrintQueue     string
}

// RelayBindings are the event routing keys each instance's relay queue
// listens on. '#' also matches multi-segment keys like 'kot.item_ready'.
var RelayBindings = []string{"table.#", "order.#", "payment.#", "kot.#", "item.#"}

// EnsureTopology declares everything shared idempotently:
//
//   - a topic exchange for domain events and the DLQ relay queues dead-letter into;
//   - a direct exchange for print jobs with a worker queue and a DLQ.
//
// Relay queues are per instance and declared by DeclareRelayQueue.
func EnsureTopology(qc *Client, t Topology) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchange(t.EventsExchange); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(RelayDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(RelayDLQ, t.EventsExchange, RelayDeadRK); err != nil {
		return err
	}

	if err := qc.EnsureExchangeKind(PrintJobsExchange, "direct"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(PrintJobsDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(PrintJobsDLQ, PrintJobsExchange, PrintJobsDeadRK); err != nil {
		return err
	}
	if _, err := qc.EnsureQueueWithArgs(t.PrintQueue, amqp.Table{
		"x-dead-letter-exchange":    PrintJobsExchange,
		"x-dead-letter-routing-key": PrintJobsDeadRK,
	}); err != nil {
		return err
	}
	return qc.BindQueue(t.PrintQueue, PrintJobsExchange, PrintJobsRK)
}

// RelayQueueOptions describes this instance's relay queue: server-named,
// exclusive to the connection and removed with it, so every instance gets its
// own copy of each event.
func RelayQueueOptions(eventsExchange string) QueueOptions {
	return QueueOptions{
		Exclusive:  true,
		AutoDelete: true,
		Args: amqp.Table{
			"x-dead-letter-exchange":    eventsExchange,
			"x-dead-letter-routing-key": RelayDeadRK,
		},
	}
}

// DeclareRelayQueue declares this instance's relay queue, binds it to the
// events exchange and returns the broker-assigned name.
func DeclareRelayQueue(qc *Client, eventsExchange string) (string, error) {
	q, err := qc.DeclareQueue(RelayQueueOptions(eventsExchange))
	if err != nil {
		return "", err
	}
	for _, key := range RelayBindings {
		if err := qc.BindQueue(q.Name, eventsExchange, key); err != nil {
			return "", err
		}
	}
	return q.Name, nil
}
