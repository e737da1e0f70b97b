package effects

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}

// EventFanout publishes every event to each publisher in turn. One failing
// publisher does not stop the others.
type EventFanout []EventPublisher

func (f EventFanout) PublishEvent(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type PrintSubmitter interface {
	SubmitPrint(ctx context.Context, job PrintJob) error
}

type InvoiceArchiver interface {
	ArchiveInvoice(ctx context.Context, a InvoiceArchive) error
}

// Dispatcher runs committed batches in the background. Failures are logged
// and never reach the caller whose transaction produced the batch.
type Dispatcher struct {
	events   EventPublisher
	prints   PrintSubmitter
	archiver InvoiceArchiver
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

type Sinks struct {
	Events   EventPublisher
	Prints   PrintSubmitter
	Archiver InvoiceArchiver
}

func NewDispatcher(sinks Sinks, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		events:   sinks.Events,
		prints:   sinks.Prints,
		archiver: sinks.Archiver,
		timeout:  timeout,
		logger:   logger,
	}
}

func (d *Dispatcher) Dispatch(b Batch) {
	if b.Empty() {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("effect dispatch panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.run(ctx, b)
	}()
}

func (d *Dispatcher) run(ctx context.Context, b Batch) {
	if d.events != nil {
		for _, e := range b.Events {
			if err := d.events.PublishEvent(ctx, e); err != nil {
				d.logger.Warn("event publish failed", zap.String("event", e.Name), zap.Strings("rooms", e.Rooms), zap.Error(err))
			}
		}
	}
	if d.prints != nil {
		for _, job := range b.Prints {
			if err := d.prints.SubmitPrint(ctx, job); err != nil {
				d.logger.Warn("print submit failed", zap.String("kind", string(job.Kind)), zap.Int64("orderId", job.OrderID), zap.Error(err))
			}
		}
	}
	if d.archiver != nil {
		for _, a := range b.Archives {
			if err := d.archiver.ArchiveInvoice(ctx, a); err != nil {
				d.logger.Warn("invoice archive failed", zap.Int64("orderId", a.Order.ID), zap.Int64("invoiceId", a.Invoice.ID), zap.Error(err))
			}
		}
	}
}

// Wait blocks until every dispatched batch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Recorder keeps batches in memory instead of dispatching them.
type Recorder struct {
	mu      sync.Mutex
	batches []Batch
}

func (r *Recorder) Dispatch(b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *Recorder) Batches() []Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Batch, len(r.batches))
	copy(out, r.batches)
	return out
}

func (r *Recorder) Last() Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return Batch{}
	}
	return r.batches[len(r.batches)-1]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}
