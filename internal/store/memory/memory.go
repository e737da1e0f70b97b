// Package memory is a process-local store. Transactions are serialised by
// one mutex and run against a working copy that replaces the live data only
// on success.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"
)

type dataset struct {
	nextID    int64
	tables    map[int64]domain.Table
	sessions  map[int64]domain.TableSession
	orders    map[int64]domain.Order
	items     map[int64]domain.OrderItem
	tickets   map[int64]domain.KOTTicket
	discounts map[int64]domain.Discount
	invoices  map[int64]domain.Invoice
	payments  map[int64]domain.Payment
}

func newDataset() *dataset {
	return &dataset{
		tables:    map[int64]domain.Table{},
		sessions:  map[int64]domain.TableSession{},
		orders:    map[int64]domain.Order{},
		items:     map[int64]domain.OrderItem{},
		tickets:   map[int64]domain.KOTTicket{},
		discounts: map[int64]domain.Discount{},
		invoices:  map[int64]domain.Invoice{},
		payments:  map[int64]domain.Payment{},
	}
}

func cloneMap[V any](in map[int64]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Rows are stored by value and slices inside them are never mutated in
// place, so a shallow copy of each map is a full snapshot.
func (d *dataset) clone() *dataset {
	return &dataset{
		nextID:    d.nextID,
		tables:    cloneMap(d.tables),
		sessions:  cloneMap(d.sessions),
		orders:    cloneMap(d.orders),
		items:     cloneMap(d.items),
		tickets:   cloneMap(d.tickets),
		discounts: cloneMap(d.discounts),
		invoices:  cloneMap(d.invoices),
		payments:  cloneMap(d.payments),
	}
}

func (d *dataset) id() int64 {
	d.nextID++
	return d.nextID
}

type Store struct {
	mu   sync.Mutex
	data *dataset
}

func New() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(&tx{data: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// SeedTable registers a table; it is how tables enter the memory store.
func (s *Store) SeedTable(t domain.Table) domain.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == 0 {
		t.ID = s.data.id()
	} else if t.ID > s.data.nextID {
		s.data.nextID = t.ID
	}
	if t.Status == "" {
		t.Status = domain.TableAvailable
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}
	s.data.tables[t.ID] = t
	return t
}

type tx struct {
	data *dataset
}

func sortedValues[V any](in map[int64]V, keep func(V) bool) []V {
	keys := make([]int64, 0, len(in))
	for k, v := range in {
		if keep == nil || keep(v) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, in[k])
	}
	return out
}

func (t *tx) GetTable(_ context.Context, id int64, _ bool) (domain.Table, error) {
	table, ok := t.data.tables[id]
	if !ok {
		return domain.Table{}, apperr.NotFound("table", id)
	}
	return table, nil
}

func (t *tx) ListTables(_ context.Context, filter store.TableFilter) ([]domain.Table, error) {
	return sortedValues(t.data.tables, func(tb domain.Table) bool {
		if filter.OutletID != 0 && tb.OutletID != filter.OutletID {
			return false
		}
		return filter.FloorID == 0 || tb.FloorID == filter.FloorID
	}), nil
}

func (t *tx) UpdateTableStatus(_ context.Context, id int64, status domain.TableStatus, at time.Time) error {
	table, ok := t.data.tables[id]
	if !ok {
		return apperr.NotFound("table", id)
	}
	table.Status = status
	table.UpdatedAt = at
	t.data.tables[id] = table
	return nil
}

func (t *tx) OpenSession(_ context.Context, tableID int64) (*domain.TableSession, error) {
	for _, s := range sortedValues(t.data.sessions, nil) {
		if s.TableID == tableID && s.IsOpen() {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (t *tx) GetSession(_ context.Context, id int64) (domain.TableSession, error) {
	s, ok := t.data.sessions[id]
	if !ok {
		return domain.TableSession{}, apperr.NotFound("session", id)
	}
	return s, nil
}

func (t *tx) InsertSession(_ context.Context, session *domain.TableSession) error {
	session.ID = t.data.id()
	t.data.sessions[session.ID] = *session
	return nil
}

func (t *tx) CloseSession(_ context.Context, id int64, by int64, at time.Time) error {
	s, ok := t.data.sessions[id]
	if !ok {
		return apperr.NotFound("session", id)
	}
	if !s.IsOpen() {
		return nil
	}
	s.ClosedBy = &by
	s.ClosedAt = &at
	t.data.sessions[id] = s
	return nil
}

func (t *tx) InsertOrder(_ context.Context, order *domain.Order) error {
	order.ID = t.data.id()
	order.Number = store.OrderNumber(order.ID, order.CreatedAt)
	t.data.orders[order.ID] = *order
	return nil
}

func (t *tx) GetOrder(_ context.Context, id int64, _ bool) (domain.Order, error) {
	o, ok := t.data.orders[id]
	if !ok {
		return domain.Order{}, apperr.NotFound("order", id)
	}
	return o, nil
}

func (t *tx) UpdateOrder(_ context.Context, order domain.Order) error {
	if _, ok := t.data.orders[order.ID]; !ok {
		return apperr.NotFound("order", order.ID)
	}
	t.data.orders[order.ID] = order
	return nil
}

func (t *tx) OpenOrdersForSession(_ context.Context, sessionID int64) ([]domain.Order, error) {
	return sortedValues(t.data.orders, func(o domain.Order) bool {
		return o.SessionID != nil && *o.SessionID == sessionID && !o.Status.IsTerminal()
	}), nil
}

func (t *tx) OpenOrdersForTable(_ context.Context, tableID int64) ([]domain.Order, error) {
	return sortedValues(t.data.orders, func(o domain.Order) bool {
		return o.TableID != nil && *o.TableID == tableID && !o.Status.IsTerminal()
	}), nil
}

func (t *tx) ListOrderItems(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	return sortedValues(t.data.items, func(it domain.OrderItem) bool {
		return it.OrderID == orderID
	}), nil
}

func (t *tx) GetOrderItem(_ context.Context, id int64) (domain.OrderItem, error) {
	it, ok := t.data.items[id]
	if !ok {
		return domain.OrderItem{}, apperr.NotFound("order item", id)
	}
	return it, nil
}

func (t *tx) InsertOrderItem(_ context.Context, item *domain.OrderItem) error {
	item.ID = t.data.id()
	t.data.items[item.ID] = *item
	return nil
}

func (t *tx) UpdateOrderItem(_ context.Context, item domain.OrderItem) error {
	if _, ok := t.data.items[item.ID]; !ok {
		return apperr.NotFound("order item", item.ID)
	}
	t.data.items[item.ID] = item
	return nil
}

func (t *tx) withItemIDs(ticket domain.KOTTicket) domain.KOTTicket {
	ids := make([]int64, 0)
	for _, it := range sortedValues(t.data.items, nil) {
		if it.KOTID != nil && *it.KOTID == ticket.ID {
			ids = append(ids, it.ID)
		}
	}
	ticket.ItemIDs = ids
	return ticket
}

func (t *tx) InsertTicket(_ context.Context, ticket *domain.KOTTicket) error {
	ticket.ID = t.data.id()
	ticket.Number = store.TicketNumber(ticket.ID)
	stored := *ticket
	stored.ItemIDs = nil
	t.data.tickets[ticket.ID] = stored
	return nil
}

func (t *tx) GetTicket(_ context.Context, id int64, _ bool) (domain.KOTTicket, error) {
	ticket, ok := t.data.tickets[id]
	if !ok {
		return domain.KOTTicket{}, apperr.NotFound("ticket", id)
	}
	return t.withItemIDs(ticket), nil
}

func (t *tx) UpdateTicket(_ context.Context, ticket domain.KOTTicket) error {
	if _, ok := t.data.tickets[ticket.ID]; !ok {
		return apperr.NotFound("ticket", ticket.ID)
	}
	ticket.ItemIDs = nil
	t.data.tickets[ticket.ID] = ticket
	return nil
}

func (t *tx) ListOrderTickets(ctx context.Context, orderID int64) ([]domain.KOTTicket, error) {
	return t.ListTickets(ctx, store.TicketFilter{OrderID: orderID})
}

func (t *tx) ListTickets(_ context.Context, filter store.TicketFilter) ([]domain.KOTTicket, error) {
	tickets := sortedValues(t.data.tickets, filter.MatchTicket)
	for i := range tickets {
		tickets[i] = t.withItemIDs(tickets[i])
	}
	return tickets, nil
}

func (t *tx) ListDiscounts(_ context.Context, orderID int64) ([]domain.Discount, error) {
	return sortedValues(t.data.discounts, func(d domain.Discount) bool {
		return d.OrderID == orderID
	}), nil
}

func (t *tx) InsertDiscount(_ context.Context, discount *domain.Discount) error {
	discount.ID = t.data.id()
	t.data.discounts[discount.ID] = *discount
	return nil
}

func (t *tx) UpdateDiscount(_ context.Context, discount domain.Discount) error {
	if _, ok := t.data.discounts[discount.ID]; !ok {
		return apperr.NotFound("discount", discount.ID)
	}
	t.data.discounts[discount.ID] = discount
	return nil
}

func (t *tx) ActiveInvoice(_ context.Context, orderID int64) (*domain.Invoice, error) {
	active := sortedValues(t.data.invoices, func(inv domain.Invoice) bool {
		return inv.OrderID == orderID && !inv.IsCancelled
	})
	if len(active) == 0 {
		return nil, nil
	}
	inv := active[len(active)-1]
	return &inv, nil
}

func (t *tx) GetInvoice(_ context.Context, id int64) (domain.Invoice, error) {
	inv, ok := t.data.invoices[id]
	if !ok {
		return domain.Invoice{}, apperr.NotFound("invoice", id)
	}
	return inv, nil
}

func (t *tx) ListInvoices(_ context.Context, orderID int64) ([]domain.Invoice, error) {
	return sortedValues(t.data.invoices, func(inv domain.Invoice) bool {
		return inv.OrderID == orderID
	}), nil
}

func (t *tx) InsertInvoice(_ context.Context, invoice *domain.Invoice) error {
	invoice.ID = t.data.id()
	invoice.Number = store.InvoiceNumber(invoice.ID, invoice.CreatedAt)
	t.data.invoices[invoice.ID] = *invoice
	return nil
}

func (t *tx) CancelInvoice(_ context.Context, id int64, at time.Time) error {
	inv, ok := t.data.invoices[id]
	if !ok {
		return apperr.NotFound("invoice", id)
	}
	inv.IsCancelled = true
	inv.CancelledAt = &at
	t.data.invoices[id] = inv
	return nil
}

func (t *tx) InsertPayment(_ context.Context, payment *domain.Payment) error {
	payment.ID = t.data.id()
	if payment.Metadata != nil {
		meta := make(map[string]any, len(payment.Metadata))
		for k, v := range payment.Metadata {
			meta[k] = v
		}
		payment.Metadata = meta
	}
	t.data.payments[payment.ID] = *payment
	return nil
}

func (t *tx) ListPayments(_ context.Context, orderID int64) ([]domain.Payment, error) {
	return sortedValues(t.data.payments, func(p domain.Payment) bool {
		return p.OrderID == orderID
	}), nil
}
