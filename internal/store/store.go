package store

import (
	"context"
	"fmt"
	"time"

	"frontdesk-order-services/internal/domain"
)

// Store runs units of work. Everything fn does through tx commits together
// or not at all; a non-nil error from fn rolls back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type TableFilter struct {
	OutletID int64
	FloorID  int64
}

type TicketFilter struct {
	OutletID   int64
	Station    string
	Statuses   []domain.KOTStatus
	ActiveOnly bool
	OrderID    int64
}

// Tx is the persistence surface available inside a unit of work. Getters
// with a lock argument take a row lock when it is true; implementations
// return apperr.NotFound for missing rows.
type Tx interface {
	GetTable(ctx context.Context, id int64, lock bool) (domain.Table, error)
	ListTables(ctx context.Context, filter TableFilter) ([]domain.Table, error)
	UpdateTableStatus(ctx context.Context, id int64, status domain.TableStatus, at time.Time) error

	// OpenSession returns the table's open session, or nil.
	OpenSession(ctx context.Context, tableID int64) (*domain.TableSession, error)
	GetSession(ctx context.Context, id int64) (domain.TableSession, error)
	InsertSession(ctx context.Context, session *domain.TableSession) error
	CloseSession(ctx context.Context, id int64, by int64, at time.Time) error

	InsertOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id int64, lock bool) (domain.Order, error)
	UpdateOrder(ctx context.Context, order domain.Order) error
	// OpenOrdersForSession and OpenOrdersForTable return non-terminal orders.
	OpenOrdersForSession(ctx context.Context, sessionID int64) ([]domain.Order, error)
	OpenOrdersForTable(ctx context.Context, tableID int64) ([]domain.Order, error)

	ListOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	GetOrderItem(ctx context.Context, id int64) (domain.OrderItem, error)
	InsertOrderItem(ctx context.Context, item *domain.OrderItem) error
	UpdateOrderItem(ctx context.Context, item domain.OrderItem) error

	// Ticket reads fill ItemIDs from the items bound to the ticket.
	InsertTicket(ctx context.Context, ticket *domain.KOTTicket) error
	GetTicket(ctx context.Context, id int64, lock bool) (domain.KOTTicket, error)
	UpdateTicket(ctx context.Context, ticket domain.KOTTicket) error
	ListOrderTickets(ctx context.Context, orderID int64) ([]domain.KOTTicket, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]domain.KOTTicket, error)

	ListDiscounts(ctx context.Context, orderID int64) ([]domain.Discount, error)
	InsertDiscount(ctx context.Context, discount *domain.Discount) error
	UpdateDiscount(ctx context.Context, discount domain.Discount) error

	// ActiveInvoice returns the order's non-cancelled invoice, or nil.
	ActiveInvoice(ctx context.Context, orderID int64) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (domain.Invoice, error)
	ListInvoices(ctx context.Context, orderID int64) ([]domain.Invoice, error)
	InsertInvoice(ctx context.Context, invoice *domain.Invoice) error
	CancelInvoice(ctx context.Context, id int64, at time.Time) error

	InsertPayment(ctx context.Context, payment *domain.Payment) error
	ListPayments(ctx context.Context, orderID int64) ([]domain.Payment, error)
}

// Numbers are assigned by the store on insert, once the id is known.

func OrderNumber(id int64, at time.Time) string {
	return fmt.Sprintf("ORD-%s-%d", at.UTC().Format("20060102"), id)
}

func TicketNumber(id int64) string {
	return fmt.Sprintf("KOT-%d", id)
}

func InvoiceNumber(id int64, at time.Time) string {
	return fmt.Sprintf("INV-%s-%d", at.UTC().Format("20060102"), id)
}

// MatchTicket applies filter to an already loaded ticket.
func (f TicketFilter) MatchTicket(t domain.KOTTicket) bool {
	if f.OutletID != 0 && t.OutletID != f.OutletID {
		return false
	}
	if f.OrderID != 0 && t.OrderID != f.OrderID {
		return false
	}
	if f.Station != "" && t.Station != f.Station {
		return false
	}
	if f.ActiveOnly && !t.IsActive() {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if t.Status == s {
				return true
			}
		}
		return false
	}
	return true
}
