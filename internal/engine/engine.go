// Package engine is the order, session and billing engine. Every mutating
// operation runs as one store transaction; side effects produced along the
// way are dispatched only once that transaction has committed.
package engine

import (
	"context"
	"time"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/billing"
	"frontdesk-order-services/internal/catalog"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/view"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Dispatcher interface {
	Dispatch(b effects.Batch)
}

type Options struct {
	CatalogTimeout time.Duration
	Clock          func() time.Time
}

type Engine struct {
	store          store.Store
	menu           catalog.MenuLookup
	charges        catalog.ChargeLookup
	effects        Dispatcher
	logger         *zap.Logger
	catalogTimeout time.Duration
	clock          func() time.Time
}

func New(st store.Store, menu catalog.MenuLookup, charges catalog.ChargeLookup, dispatcher Dispatcher, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = 3 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		store:          st,
		menu:           menu,
		charges:        charges,
		effects:        dispatcher,
		logger:         logger,
		catalogTimeout: opts.CatalogTimeout,
		clock:          opts.Clock,
	}
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

// run executes fn as one unit of work and dispatches what it emitted after
// commit. A failed transaction dispatches nothing.
func (e *Engine) run(ctx context.Context, op string, fn func(tx store.Tx, b *effects.Batch) error) error {
	var batch effects.Batch
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		batch = effects.Batch{}
		return fn(tx, &batch)
	})
	if err != nil {
		if _, ok := apperr.As(err); !ok {
			e.logger.Error("transaction failed", zap.String("op", op), zap.Error(err))
		}
		return err
	}
	if e.effects != nil && !batch.Empty() {
		e.effects.Dispatch(batch)
	}
	return nil
}

func (e *Engine) read(ctx context.Context, fn func(tx store.Tx) error) error {
	return e.store.WithTx(ctx, fn)
}

func visible(actor domain.Actor, outletID int64) bool {
	return actor.OutletID == 0 || actor.OutletID == outletID
}

func (e *Engine) getOrder(ctx context.Context, tx store.Tx, actor domain.Actor, id int64, lock bool) (domain.Order, error) {
	order, err := tx.GetOrder(ctx, id, lock)
	if err != nil {
		return domain.Order{}, err
	}
	if !visible(actor, order.OutletID) {
		return domain.Order{}, apperr.NotFound("order", id)
	}
	return order, nil
}

func (e *Engine) getTable(ctx context.Context, tx store.Tx, actor domain.Actor, id int64, lock bool) (domain.Table, error) {
	table, err := tx.GetTable(ctx, id, lock)
	if err != nil {
		return domain.Table{}, err
	}
	if !visible(actor, table.OutletID) {
		return domain.Table{}, apperr.NotFound("table", id)
	}
	return table, nil
}

// requireVoid rejects voiding kitchen work unless the actor was cleared for it.
func requireVoid(actor domain.Actor, message string, details map[string]any) error {
	if actor.VoidAuthorized {
		return nil
	}
	return apperr.Forbidden(apperr.CodeVoidPINRequired, message, details)
}

func terminalConflict(order domain.Order) error {
	return apperr.Conflict(apperr.CodeOrderTerminal, "order is already "+string(order.Status), map[string]any{
		"orderId": order.ID,
		"status":  order.Status,
	})
}

type orderState struct {
	items     []domain.OrderItem
	tickets   []domain.KOTTicket
	discounts []domain.Discount
	invoice   *domain.Invoice
	payments  []domain.Payment
}

func loadState(ctx context.Context, tx store.Tx, orderID int64) (orderState, error) {
	var (
		st  orderState
		err error
	)
	if st.items, err = tx.ListOrderItems(ctx, orderID); err != nil {
		return st, err
	}
	if st.tickets, err = tx.ListOrderTickets(ctx, orderID); err != nil {
		return st, err
	}
	if st.discounts, err = tx.ListDiscounts(ctx, orderID); err != nil {
		return st, err
	}
	if st.invoice, err = tx.ActiveInvoice(ctx, orderID); err != nil {
		return st, err
	}
	if st.payments, err = tx.ListPayments(ctx, orderID); err != nil {
		return st, err
	}
	return st, nil
}

func (st orderState) paid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range st.payments {
		total = total.Add(p.Amount)
	}
	return total
}

func (st orderState) lines() []billing.Line {
	active := domain.ActiveItems(st.items)
	out := make([]billing.Line, 0, len(active))
	for _, it := range active {
		out = append(out, billing.Line{LineTotal: it.LineTotal, TaxGroupID: it.TaxGroupID})
	}
	return out
}

func (st orderState) ticketItems(ticketID int64) []domain.OrderItem {
	out := make([]domain.OrderItem, 0)
	for _, it := range st.items {
		if it.KOTID != nil && *it.KOTID == ticketID {
			out = append(out, it)
		}
	}
	return out
}

// settle recomputes the derived fields of order from its persisted children
// and writes it back. Unbilled orders carry running totals only.
func (e *Engine) settle(ctx context.Context, tx store.Tx, order *domain.Order, now time.Time) (orderState, error) {
	st, err := loadState(ctx, tx, order.ID)
	if err != nil {
		return st, err
	}
	if st.invoice == nil && !order.Status.IsTerminal() {
		applyRunningTotals(order, st)
	}
	order.ApplyPaid(st.paid())
	order.Status = domain.DeriveOrderStatus(order.Status, st.invoice != nil, st.tickets, st.items)
	order.UpdatedAt = now
	if err := tx.UpdateOrder(ctx, *order); err != nil {
		return st, err
	}
	return st, nil
}

func applyRunningTotals(order *domain.Order, st orderState) {
	in := billing.Input{Lines: st.lines(), Discounts: st.discounts}
	b, err := billing.RunningTotals(in)
	if err != nil {
		// Discounts were accepted against a larger subtotal; cap them at
		// what is left rather than failing the change that shrank it.
		in.Discounts = nil
		b, _ = billing.RunningTotals(in)
		applied := decimal.Zero
		for _, d := range st.discounts {
			applied = applied.Add(d.Amount)
		}
		if applied.GreaterThan(b.Subtotal) {
			applied = b.Subtotal
		}
		b.DiscountTotal = applied
		b.GrandTotal = b.Subtotal.Sub(applied)
	}
	order.Subtotal = b.Subtotal
	order.PriceAdjustment = decimal.Zero
	order.DiscountAmount = b.DiscountTotal
	order.TaxAmount = decimal.Zero
	order.ServiceCharge = decimal.Zero
	order.PackagingCharge = decimal.Zero
	order.DeliveryCharge = decimal.Zero
	order.RoundOff = decimal.Zero
	order.TotalAmount = b.GrandTotal
}

// reopenBill cancels the active invoice so the order can change again. It
// refuses once money has been taken against the bill.
func (e *Engine) reopenBill(ctx context.Context, tx store.Tx, order *domain.Order, now time.Time) (bool, error) {
	inv, err := tx.ActiveInvoice(ctx, order.ID)
	if err != nil || inv == nil {
		return false, err
	}
	payments, err := tx.ListPayments(ctx, order.ID)
	if err != nil {
		return false, err
	}
	if len(payments) > 0 {
		return false, apperr.Conflict(apperr.CodeOrderHasPayments, "order already has payments recorded against its bill", map[string]any{
			"orderId":    order.ID,
			"invoiceId":  inv.ID,
			"paidAmount": order.PaidAmount.StringFixed(2),
		})
	}
	if err := tx.CancelInvoice(ctx, inv.ID, now); err != nil {
		return false, err
	}
	order.BilledAt = nil
	order.PriceAdjustment = decimal.Zero
	return true, nil
}

// syncTable recomputes the table's status from its open session and the
// orders in it, persisting and announcing any change. force announces the
// table even when the status is unchanged.
func (e *Engine) syncTable(ctx context.Context, tx store.Tx, tableID int64, b *effects.Batch, now time.Time, force bool) (domain.Table, *domain.TableSession, error) {
	return e.syncTableFacts(ctx, tx, tableID, b, now, force, false)
}

// syncTableFacts is syncTable for the settlement path, where paid reports
// that the session's orders were fully paid in this transaction.
func (e *Engine) syncTableFacts(ctx context.Context, tx store.Tx, tableID int64, b *effects.Batch, now time.Time, force, paid bool) (domain.Table, *domain.TableSession, error) {
	table, err := tx.GetTable(ctx, tableID, true)
	if err != nil {
		return domain.Table{}, nil, err
	}
	session, err := tx.OpenSession(ctx, tableID)
	if err != nil {
		return domain.Table{}, nil, err
	}

	facts := domain.TableFacts{Current: table.Status, OpenSession: session != nil, Paid: paid}
	if session != nil {
		orders, err := tx.OpenOrdersForSession(ctx, session.ID)
		if err != nil {
			return domain.Table{}, nil, err
		}
		for _, o := range orders {
			if o.Status == domain.OrderBilled {
				facts.Billed = true
			}
			tickets, err := tx.ListOrderTickets(ctx, o.ID)
			if err != nil {
				return domain.Table{}, nil, err
			}
			if domain.AnyTicketSent(tickets) {
				facts.KOTSent = true
			}
		}
	}

	next := domain.RecomputeTableStatus(facts)
	changed := next != table.Status
	if changed {
		if err := tx.UpdateTableStatus(ctx, table.ID, next, now); err != nil {
			return domain.Table{}, nil, err
		}
		table.Status = next
		table.UpdatedAt = now
	}
	if changed || force {
		b.Emit(effects.EventTableUpdated, view.TableOf(table, session), effects.FloorRoom(table.OutletID, table.FloorID))
	}
	return table, session, nil
}

// closeSessionIfIdle ends the order's session when nothing else is open on
// it and reports whether it did.
func (e *Engine) closeSessionIfIdle(ctx context.Context, tx store.Tx, order domain.Order, actor domain.Actor, now time.Time) (bool, error) {
	if order.SessionID == nil {
		return false, nil
	}
	session, err := tx.GetSession(ctx, *order.SessionID)
	if err != nil {
		return false, err
	}
	if !session.IsOpen() {
		return false, nil
	}
	open, err := tx.OpenOrdersForSession(ctx, session.ID)
	if err != nil {
		return false, err
	}
	for _, o := range open {
		if o.ID != order.ID {
			return false, nil
		}
	}
	if err := tx.CloseSession(ctx, session.ID, actor.UserID, now); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) tableLabel(ctx context.Context, tx store.Tx, order domain.Order) string {
	if order.TableID == nil {
		return ""
	}
	table, err := tx.GetTable(ctx, *order.TableID, false)
	if err != nil {
		return ""
	}
	return table.Label
}

func ticketRooms(t domain.KOTTicket) []string {
	return []string{effects.KitchenRoom(t.OutletID), effects.StationRoom(t.OutletID, t.Station)}
}

func ticketView(t domain.KOTTicket, items []domain.OrderItem, order domain.Order, label string) view.Ticket {
	v := view.TicketOf(t, items)
	v.OrderNumber = order.Number
	v.TableLabel = label
	return v
}

type cancelSlip struct {
	Ticket view.Ticket `json:"ticket"`
	Items  []view.Item `json:"cancelledItems"`
	Reason string      `json:"reason,omitempty"`
}

func printCancelSlip(b *effects.Batch, t domain.KOTTicket, tv view.Ticket, cancelled []domain.OrderItem, reason string) {
	ticketID := t.ID
	b.Print(effects.PrintJob{
		Kind:     effects.PrintCancelSlip,
		OutletID: t.OutletID,
		Station:  t.Station,
		OrderID:  t.OrderID,
		TicketID: &ticketID,
		Payload:  cancelSlip{Ticket: tv, Items: view.ItemsOf(cancelled), Reason: reason},
	})
}

func (e *Engine) catalogContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.catalogTimeout)
}
