package engine

import (
	"context"
	"time"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/catalog"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/view"
)

type ItemInput = catalog.ItemRequest

type CreateOrderInput struct {
	// OutletID is used when the actor is not bound to an outlet.
	OutletID   int64
	TableID    *int64
	SessionID  *int64
	Type       domain.OrderType
	GuestCount int
	Items      []ItemInput
}

type OrderDetail struct {
	Order     domain.Order
	Items     []domain.OrderItem
	Tickets   []domain.KOTTicket
	Discounts []domain.Discount
	Invoices  []domain.Invoice
	Payments  []domain.Payment
}

func validateItems(items []ItemInput) error {
	for i, it := range items {
		if it.MenuItemID <= 0 {
			return apperr.Validation("", "menu item is required", map[string]any{"index": i})
		}
		if it.Quantity <= 0 {
			return apperr.Validation("", "quantity must be positive", map[string]any{"index": i, "quantity": it.Quantity})
		}
	}
	return nil
}

func (e *Engine) resolveItems(ctx context.Context, outletID int64, items []ItemInput) ([]catalog.ResolvedItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	cctx, cancel := e.catalogContext(ctx)
	defer cancel()
	return e.menu.ResolveItems(cctx, outletID, items)
}

func insertItems(ctx context.Context, tx store.Tx, order domain.Order, resolved []catalog.ResolvedItem, reqs []ItemInput, at time.Time) error {
	for i, r := range resolved {
		req := reqs[i]
		item := &domain.OrderItem{
			OrderID:      order.ID,
			MenuItemID:   r.MenuItemID,
			VariantID:    r.VariantID,
			Name:         r.Name,
			Quantity:     req.Quantity,
			UnitPrice:    r.UnitPrice,
			AddonTotal:   r.AddonTotal,
			LineTotal:    domain.ComputeLineTotal(r.UnitPrice, r.AddonTotal, req.Quantity),
			TaxGroupID:   r.TaxGroupID,
			Instructions: req.Instructions,
			Status:       domain.ItemPending,
			CreatedAt:    at,
			UpdatedAt:    at,
		}
		if err := tx.InsertOrderItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// CreateOrder opens an order. Dine-in orders attach to the table's open
// session, and a session holds at most one open order.
func (e *Engine) CreateOrder(ctx context.Context, actor domain.Actor, in CreateOrderInput) (OrderDetail, error) {
	if !in.Type.Valid() {
		return OrderDetail{}, apperr.Validation("", "order type must be dine_in, takeaway or delivery", map[string]any{"orderType": in.Type})
	}
	if in.Type == domain.OrderDineIn && in.TableID == nil {
		return OrderDetail{}, apperr.Validation("", "dine-in orders need a table", nil)
	}
	if in.GuestCount < 0 {
		return OrderDetail{}, apperr.Validation("", "guest count cannot be negative", map[string]any{"guestCount": in.GuestCount})
	}
	if err := validateItems(in.Items); err != nil {
		return OrderDetail{}, err
	}

	outletID := in.OutletID
	if actor.OutletID != 0 {
		outletID = actor.OutletID
	}
	if outletID == 0 && in.Type == domain.OrderDineIn {
		err := e.read(ctx, func(tx store.Tx) error {
			table, err := e.getTable(ctx, tx, actor, *in.TableID, false)
			outletID = table.OutletID
			return err
		})
		if err != nil {
			return OrderDetail{}, err
		}
	}
	if outletID == 0 {
		return OrderDetail{}, apperr.Validation("", "outlet is required", nil)
	}

	resolved, err := e.resolveItems(ctx, outletID, in.Items)
	if err != nil {
		return OrderDetail{}, err
	}

	var out OrderDetail
	err = e.run(ctx, "create_order", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		order := domain.Order{
			OutletID:   outletID,
			Type:       in.Type,
			Status:     domain.OrderPending,
			GuestCount: in.GuestCount,
			CreatedBy:  actor.UserID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if in.Type == domain.OrderDineIn {
			table, err := e.getTable(ctx, tx, actor, *in.TableID, true)
			if err != nil {
				return err
			}
			if table.OutletID != outletID {
				return apperr.Validation("", "table belongs to another outlet", map[string]any{"tableId": table.ID})
			}
			session, err := tx.OpenSession(ctx, table.ID)
			if err != nil {
				return err
			}
			if session == nil {
				return apperr.Conflict(apperr.CodeSessionRequired, "table has no open session; start one first", map[string]any{
					"tableId": table.ID,
					"status":  table.Status,
				})
			}
			if in.SessionID != nil && *in.SessionID != session.ID {
				return apperr.Conflict(apperr.CodeSessionRequired, "session is not the table's open session", map[string]any{
					"tableId":       table.ID,
					"sessionId":     *in.SessionID,
					"openSessionId": session.ID,
				})
			}
			open, err := tx.OpenOrdersForSession(ctx, session.ID)
			if err != nil {
				return err
			}
			if len(open) > 0 {
				return apperr.Conflict(apperr.CodeSessionBusy, "session already has an open order", map[string]any{
					"sessionId": session.ID,
					"orderId":   open[0].ID,
				})
			}
			tableID, sessionID := table.ID, session.ID
			order.TableID = &tableID
			order.SessionID = &sessionID
			if order.GuestCount == 0 {
				order.GuestCount = session.GuestCount
			}
		}

		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, order, resolved, in.Items, now); err != nil {
			return err
		}
		st, err := e.settle(ctx, tx, &order, now)
		if err != nil {
			return err
		}
		if order.TableID != nil {
			if _, _, err := e.syncTable(ctx, tx, *order.TableID, b, now, false); err != nil {
				return err
			}
		}

		b.Emit(effects.EventOrderCreated, view.OrderOf(order), effects.CaptainRoom(order.OutletID))
		out = OrderDetail{Order: order, Items: st.items}
		return nil
	})
	return out, err
}

// AddItems appends pending items. A billed order without payments is
// reopened: its invoice is cancelled and it leaves billed.
func (e *Engine) AddItems(ctx context.Context, actor domain.Actor, orderID int64, items []ItemInput) (OrderDetail, error) {
	if len(items) == 0 {
		return OrderDetail{}, apperr.Validation("", "at least one item is required", nil)
	}
	if err := validateItems(items); err != nil {
		return OrderDetail{}, err
	}

	var outletID int64
	err := e.read(ctx, func(tx store.Tx) error {
		order, err := e.getOrder(ctx, tx, actor, orderID, false)
		outletID = order.OutletID
		return err
	})
	if err != nil {
		return OrderDetail{}, err
	}
	resolved, err := e.resolveItems(ctx, outletID, items)
	if err != nil {
		return OrderDetail{}, err
	}

	var out OrderDetail
	err = e.run(ctx, "add_items", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		order, err := e.getOrder(ctx, tx, actor, orderID, true)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return apperr.Validation(apperr.CodeOrderTerminal, "items cannot be added to a "+string(order.Status)+" order", map[string]any{
				"orderId": order.ID,
				"status":  order.Status,
			})
		}
		if _, err := e.reopenBill(ctx, tx, &order, now); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, order, resolved, items, now); err != nil {
			return err
		}
		st, err := e.settle(ctx, tx, &order, now)
		if err != nil {
			return err
		}
		if order.TableID != nil {
			if _, _, err := e.syncTable(ctx, tx, *order.TableID, b, now, false); err != nil {
				return err
			}
		}
		b.Emit(effects.EventOrderUpdated, view.OrderOf(order), effects.CaptainRoom(order.OutletID))
		out = OrderDetail{Order: order, Items: st.items, Tickets: st.tickets, Discounts: st.discounts}
		return nil
	})
	return out, err
}

// CancelItem voids one item. Ticket contents are left as printed; the
// ticket is cancelled when nothing live remains on it and completed when
// everything that remains is ready.
func (e *Engine) CancelItem(ctx context.Context, actor domain.Actor, itemID int64, reason string) (OrderDetail, error) {
	var out OrderDetail
	err := e.run(ctx, "cancel_item", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		peek, err := tx.GetOrderItem(ctx, itemID)
		if err != nil {
			return err
		}
		order, err := e.getOrder(ctx, tx, actor, peek.OrderID, true)
		if err != nil {
			return err
		}
		item, err := tx.GetOrderItem(ctx, itemID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return terminalConflict(order)
		}
		if item.Status.IsTerminal() {
			return apperr.Conflict(apperr.CodeItemTerminal, "item is already "+string(item.Status), map[string]any{
				"itemId": item.ID,
				"status": item.Status,
			})
		}
		if item.KOTID != nil {
			if err := requireVoid(actor, "a void PIN is required to cancel an item sent to the kitchen", map[string]any{
				"itemId": item.ID,
				"kotId":  *item.KOTID,
			}); err != nil {
				return err
			}
		}
		if _, err := e.reopenBill(ctx, tx, &order, now); err != nil {
			return err
		}

		by := actor.UserID
		item.Status = domain.ItemCancelled
		item.CancelReason = reason
		item.CancelledBy = &by
		item.CancelledAt = &now
		item.UpdatedAt = now
		if err := tx.UpdateOrderItem(ctx, item); err != nil {
			return err
		}

		if item.KOTID != nil {
			if err := e.afterItemCancelled(ctx, tx, b, order, item, reason, now); err != nil {
				return err
			}
		}

		st, err := e.settle(ctx, tx, &order, now)
		if err != nil {
			return err
		}
		if order.TableID != nil {
			if _, _, err := e.syncTable(ctx, tx, *order.TableID, b, now, false); err != nil {
				return err
			}
		}
		b.Emit(effects.EventOrderUpdated, view.OrderOf(order), effects.CaptainRoom(order.OutletID))
		out = OrderDetail{Order: order, Items: st.items, Tickets: st.tickets, Discounts: st.discounts}
		return nil
	})
	return out, err
}

func (e *Engine) afterItemCancelled(ctx context.Context, tx store.Tx, b *effects.Batch, order domain.Order, item domain.OrderItem, reason string, now time.Time) error {
	ticket, err := tx.GetTicket(ctx, *item.KOTID, true)
	if err != nil {
		return err
	}
	items, err := tx.ListOrderItems(ctx, order.ID)
	if err != nil {
		return err
	}
	st := orderState{items: items}
	bound := st.ticketItems(ticket.ID)
	label := e.tableLabel(ctx, tx, order)

	if ticket.IsActive() {
		remaining := domain.ActiveItems(bound)
		switch {
		case len(remaining) == 0:
			ticket.Status = domain.KOTCancelled
			ticket.CancelledAt = &now
			ticket.CancelReason = reason
			ticket.UpdatedAt = now
			if err := tx.UpdateTicket(ctx, ticket); err != nil {
				return err
			}
			b.Emit(effects.EventKOTCancelled, ticketView(ticket, items, order, label), ticketRooms(ticket)...)
		case allReady(remaining) && (ticket.Status == domain.KOTAccepted || ticket.Status == domain.KOTPreparing):
			ticket.Status = domain.KOTReady
			ticket.ReadyAt = &now
			ticket.UpdatedAt = now
			if err := tx.UpdateTicket(ctx, ticket); err != nil {
				return err
			}
			b.Emit(effects.EventKOTReady, ticketView(ticket, items, order, label), append(ticketRooms(ticket), effects.CaptainRoom(order.OutletID))...)
		}
	}

	printCancelSlip(b, ticket, ticketView(ticket, items, order, label), []domain.OrderItem{item}, reason)
	return nil
}

func allReady(items []domain.OrderItem) bool {
	for _, it := range items {
		if it.Status != domain.ItemReady {
			return false
		}
	}
	return len(items) > 0
}

// CancelOrder voids an unpaid order and everything hanging off it: live
// items and tickets, the active invoice and, when the order was the last one
// open on it, the table's session.
func (e *Engine) CancelOrder(ctx context.Context, actor domain.Actor, orderID int64, reason string) (OrderDetail, error) {
	var out OrderDetail
	err := e.run(ctx, "cancel_order", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		order, err := e.getOrder(ctx, tx, actor, orderID, true)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return terminalConflict(order)
		}
		st, err := loadState(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if len(st.payments) > 0 {
			return apperr.Conflict(apperr.CodeOrderHasPayments, "order has payments recorded; it cannot be cancelled", map[string]any{
				"orderId":    order.ID,
				"paidAmount": st.paid().StringFixed(2),
			})
		}
		if domain.AnyTicketSent(st.tickets) {
			if err := requireVoid(actor, "a void PIN is required to cancel an order with kitchen tickets", map[string]any{
				"orderId": order.ID,
			}); err != nil {
				return err
			}
		}

		by := actor.UserID
		for i, it := range st.items {
			if it.Status.IsTerminal() {
				continue
			}
			it.Status = domain.ItemCancelled
			it.CancelReason = reason
			it.CancelledBy = &by
			it.CancelledAt = &now
			it.UpdatedAt = now
			if err := tx.UpdateOrderItem(ctx, it); err != nil {
				return err
			}
			st.items[i] = it
		}

		label := e.tableLabel(ctx, tx, order)
		for _, t := range st.tickets {
			if !t.IsActive() {
				continue
			}
			t.Status = domain.KOTCancelled
			t.CancelledAt = &now
			t.CancelReason = reason
			t.UpdatedAt = now
			if err := tx.UpdateTicket(ctx, t); err != nil {
				return err
			}
			tv := ticketView(t, st.items, order, label)
			b.Emit(effects.EventKOTCancelled, tv, ticketRooms(t)...)
			printCancelSlip(b, t, tv, st.ticketItems(t.ID), reason)
		}

		if st.invoice != nil {
			if err := tx.CancelInvoice(ctx, st.invoice.ID, now); err != nil {
				return err
			}
		}

		order.Status = domain.OrderCancelled
		order.CancelReason = reason
		order.CancelledBy = &by
		order.CancelledAt = &now
		if st, err = e.settle(ctx, tx, &order, now); err != nil {
			return err
		}

		if order.TableID != nil {
			others, err := tx.OpenOrdersForTable(ctx, *order.TableID)
			if err != nil {
				return err
			}
			if len(others) == 0 {
				if _, err := e.closeSessionIfIdle(ctx, tx, order, actor, now); err != nil {
					return err
				}
			}
			if _, _, err := e.syncTable(ctx, tx, *order.TableID, b, now, true); err != nil {
				return err
			}
		}

		b.Emit(effects.EventOrderCancelled, view.OrderOf(order), effects.CaptainRoom(order.OutletID))
		out = OrderDetail{Order: order, Items: st.items, Tickets: st.tickets, Discounts: st.discounts}
		return nil
	})
	return out, err
}

func (e *Engine) GetOrder(ctx context.Context, actor domain.Actor, orderID int64) (OrderDetail, error) {
	var out OrderDetail
	err := e.read(ctx, func(tx store.Tx) error {
		order, err := e.getOrder(ctx, tx, actor, orderID, false)
		if err != nil {
			return err
		}
		st, err := loadState(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		invoices, err := tx.ListInvoices(ctx, order.ID)
		if err != nil {
			return err
		}
		out = OrderDetail{
			Order:     order,
			Items:     st.items,
			Tickets:   st.tickets,
			Discounts: st.discounts,
			Invoices:  invoices,
			Payments:  st.payments,
		}
		return nil
	})
	return out, err
}
