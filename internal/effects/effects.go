// Package effects carries side effects produced inside a unit of work. They
// are collected into a Batch while the transaction runs and handed to a
// Dispatcher only after commit.
package effects

import (
	"fmt"
	"time"

	"frontdesk-order-services/internal/domain"

	"github.com/google/uuid"
)

type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"event"`
	Rooms      []string  `json:"rooms"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

type PrintKind string

const (
	PrintKOT        PrintKind = "kot"
	PrintCancelSlip PrintKind = "kot_cancel"
	PrintBill       PrintKind = "bill"
)

type PrintJob struct {
	ID        string    `json:"id"`
	Kind      PrintKind `json:"kind"`
	OutletID  int64     `json:"outletId"`
	Station   string    `json:"station,omitempty"`
	OrderID   int64     `json:"orderId"`
	TicketID  *int64    `json:"ticketId,omitempty"`
	InvoiceID *int64    `json:"invoiceId,omitempty"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

// InvoiceArchive asks for a rendered copy of a bill to be stored. It holds a
// snapshot so the archiver never reads back from the store.
type InvoiceArchive struct {
	OutletID int64
	Order    domain.Order
	Invoice  domain.Invoice
	Items    []domain.OrderItem
	Table    *domain.Table
}

type Batch struct {
	Events   []Event
	Prints   []PrintJob
	Archives []InvoiceArchive
}

func (b *Batch) Emit(name string, payload any, rooms ...string) {
	b.Events = append(b.Events, Event{
		ID:         uuid.NewString(),
		Name:       name,
		Rooms:      rooms,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
}

func (b *Batch) Print(job PrintJob) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	b.Prints = append(b.Prints, job)
}

func (b *Batch) Archive(a InvoiceArchive) {
	b.Archives = append(b.Archives, a)
}

func (b Batch) Empty() bool {
	return len(b.Events) == 0 && len(b.Prints) == 0 && len(b.Archives) == 0
}

// Count returns how many events with the given name the batch holds.
func (b Batch) Count(name string) int {
	n := 0
	for _, e := range b.Events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func KitchenRoom(outletID int64) string {
	return fmt.Sprintf("kitchen:%d", outletID)
}

func StationRoom(outletID int64, station string) string {
	return fmt.Sprintf("station:%d:%s", outletID, station)
}

func CaptainRoom(outletID int64) string {
	return fmt.Sprintf("captain:%d", outletID)
}

func FloorRoom(outletID, floorID int64) string {
	return fmt.Sprintf("floor:%d:%d", outletID, floorID)
}

// PrintRoom is where print agents for a station (or "bill" for the cashier
// printer) listen when jobs are pushed over websockets.
func PrintRoom(outletID int64, station string) string {
	return fmt.Sprintf("printer:%d:%s", outletID, station)
}

const (
	EventTableUpdated   = "table:updated"
	EventOrderCreated   = "order:created"
	EventOrderUpdated   = "order:updated"
	EventOrderBilled    = "order:billed"
	EventOrderPaid      = "order:paid"
	EventOrderCancelled = "order:cancelled"
	EventPayment        = "payment:recorded"
	EventKOTCreated     = "kot:created"
	EventKOTAccepted    = "kot:accepted"
	EventKOTPreparing   = "kot:preparing"
	EventKOTItemReady   = "kot:item_ready"
	EventKOTReady       = "kot:ready"
	EventKOTServed      = "kot:served"
	EventKOTCancelled   = "kot:cancelled"
	EventItemReady      = "item:ready"
)
