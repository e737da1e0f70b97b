package engine

import (
	"context"
	"sort"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/catalog"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/view"
)

type TicketDetail struct {
	Ticket      domain.KOTTicket
	Items       []domain.OrderItem
	OrderNumber string
	TableLabel  string
}

func (d TicketDetail) View() view.Ticket {
	v := view.TicketOf(d.Ticket, d.Items)
	v.OrderNumber = d.OrderNumber
	v.TableLabel = d.TableLabel
	return v
}

// SendKOT routes every unsent item of the order to its station, one new
// ticket per station. Items already on a ticket are never re-sent. Stations
// are looked up before the order is locked; items added meanwhile stay
// pending for the next send.
func (e *Engine) SendKOT(ctx context.Context, actor domain.Actor, orderID int64) ([]TicketDetail, error) {
	var (
		outletID int64
		menuIDs  []int64
	)
	err := e.read(ctx, func(tx store.Tx) error {
		order, err := e.getOrder(ctx, tx, actor, orderID, false)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return terminalConflict(order)
		}
		items, err := tx.ListOrderItems(ctx, order.ID)
		if err != nil {
			return err
		}
		outletID = order.OutletID
		menuIDs = pendingMenuIDs(items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(menuIDs) == 0 {
		return nil, apperr.Validation(apperr.CodeNothingToSend, "no new items to send to the kitchen", map[string]any{"orderId": orderID})
	}

	cctx, cancel := e.catalogContext(ctx)
	stations, err := e.menu.Stations(cctx, outletID, menuIDs)
	cancel()
	if err != nil {
		return nil, err
	}
	routed := make(map[int64]bool, len(menuIDs))
	for _, id := range menuIDs {
		routed[id] = true
	}

	var out []TicketDetail
	err = e.run(ctx, "send_kot", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		order, err := e.getOrder(ctx, tx, actor, orderID, true)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return terminalConflict(order)
		}

		items, err := tx.ListOrderItems(ctx, order.ID)
		if err != nil {
			return err
		}
		pending := make([]int, 0)
		for i, it := range items {
			if it.Status == domain.ItemPending && it.KOTID == nil && routed[it.MenuItemID] {
				pending = append(pending, i)
			}
		}
		if len(pending) == 0 {
			return apperr.Validation(apperr.CodeNothingToSend, "no new items to send to the kitchen", map[string]any{"orderId": order.ID})
		}

		groups := map[string][]int{}
		for _, idx := range pending {
			station := stations[items[idx].MenuItemID]
			if station == "" {
				station = catalog.DefaultStation
			}
			groups[station] = append(groups[station], idx)
		}
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)

		label := e.tableLabel(ctx, tx, order)
		created := make([]domain.KOTTicket, 0, len(names))
		for _, station := range names {
			ticket := domain.KOTTicket{
				OrderID:   order.ID,
				OutletID:  order.OutletID,
				Station:   station,
				Status:    domain.KOTPending,
				CreatedBy: actor.UserID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.InsertTicket(ctx, &ticket); err != nil {
				return err
			}
			for _, idx := range groups[station] {
				kotID := ticket.ID
				items[idx].Status = domain.ItemSent
				items[idx].Station = station
				items[idx].KOTID = &kotID
				items[idx].UpdatedAt = now
				if err := tx.UpdateOrderItem(ctx, items[idx]); err != nil {
					return err
				}
				ticket.ItemIDs = append(ticket.ItemIDs, items[idx].ID)
			}
			created = append(created, ticket)
		}

		if _, err := e.settle(ctx, tx, &order, now); err != nil {
			return err
		}
		if order.TableID != nil {
			if _, _, err := e.syncTable(ctx, tx, *order.TableID, b, now, false); err != nil {
				return err
			}
		}

		out = make([]TicketDetail, 0, len(created))
		for _, t := range created {
			detail := TicketDetail{
				Ticket:      t,
				Items:       orderState{items: items}.ticketItems(t.ID),
				OrderNumber: order.Number,
				TableLabel:  label,
			}
			tv := detail.View()
			ticketID := t.ID
			b.Emit(effects.EventKOTCreated, tv, ticketRooms(t)...)
			b.Print(effects.PrintJob{
				Kind:     effects.PrintKOT,
				OutletID: t.OutletID,
				Station:  t.Station,
				OrderID:  order.ID,
				TicketID: &ticketID,
				Payload:  tv,
			})
			out = append(out, detail)
		}
		b.Emit(effects.EventOrderUpdated, view.OrderOf(order), effects.CaptainRoom(order.OutletID))
		return nil
	})
	return out, err
}

// pendingMenuIDs lists the distinct menu items of unsent items, in order.
func pendingMenuIDs(items []domain.OrderItem) []int64 {
	out := make([]int64, 0)
	seen := map[int64]bool{}
	for _, it := range items {
		if it.Status != domain.ItemPending || it.KOTID != nil || seen[it.MenuItemID] {
			continue
		}
		seen[it.MenuItemID] = true
		out = append(out, it.MenuItemID)
	}
	return out
}

func (e *Engine) Accept(ctx context.Context, actor domain.Actor, ticketID int64) (TicketDetail, error) {
	return e.advanceTicket(ctx, actor, ticketID, domain.KOTAccepted, "")
}

func (e *Engine) StartPreparing(ctx context.Context, actor domain.Actor, ticketID int64) (TicketDetail, error) {
	return e.advanceTicket(ctx, actor, ticketID, domain.KOTPreparing, "")
}

func (e *Engine) MarkReady(ctx context.Context, actor domain.Actor, ticketID int64) (TicketDetail, error) {
	return e.advanceTicket(ctx, actor, ticketID, domain.KOTReady, "")
}

func (e *Engine) MarkServed(ctx context.Context, actor domain.Actor, ticketID int64) (TicketDetail, error) {
	return e.advanceTicket(ctx, actor, ticketID, domain.KOTServed, "")
}

func (e *Engine) CancelTicket(ctx context.Context, actor domain.Actor, ticketID int64, reason string) (TicketDetail, error) {
	return e.advanceTicket(ctx, actor, ticketID, domain.KOTCancelled, reason)
}

var ticketEvents = map[domain.KOTStatus]string{
	domain.KOTAccepted:  effects.EventKOTAccepted,
	domain.KOTPreparing: effects.EventKOTPreparing,
	domain.KOTReady:     effects.EventKOTReady,
	domain.KOTServed:    effects.EventKOTServed,
	domain.KOTCancelled: effects.EventKOTCancelled,
}

// lockTicket locks the owning order before the ticket so every path takes
// order locks first.
func (e *Engine) lockTicket(ctx context.Context, tx store.Tx, actor domain.Actor, ticketID int64) (domain.Order, domain.KOTTicket, error) {
	peek, err := tx.GetTicket(ctx, ticketID, false)
	if err != nil {
		return domain.Order{}, domain.KOTTicket{}, err
	}
	if !visible(actor, peek.OutletID) {
		return domain.Order{}, domain.KOTTicket{}, apperr.NotFound("ticket", ticketID)
	}
	order, err := e.getOrder(ctx, tx, actor, peek.OrderID, true)
	if err != nil {
		return domain.Order{}, domain.KOTTicket{}, err
	}
	ticket, err := tx.GetTicket(ctx, ticketID, true)
	if err != nil {
		return domain.Order{}, domain.KOTTicket{}, err
	}
	return order, ticket, nil
}

func (e *Engine) advanceTicket(ctx context.Context, actor domain.Actor, ticketID int64, next domain.KOTStatus, reason string) (TicketDetail, error) {
	var out TicketDetail
	err := e.run(ctx, "ticket_"+string(next), func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		order, ticket, err := e.lockTicket(ctx, tx, actor, ticketID)
		if err != nil {
			return err
		}
		if err := domain.ValidateKOTTransition(ticket.Status, next); err != nil {
			return apperr.Conflict(apperr.CodeInvalidStatus, err.Error(), map[string]any{
				"ticketId":  ticket.ID,
				"current":   ticket.Status,
				"requested": next,
			})
		}
		if next == domain.KOTCancelled {
			if err := requireVoid(actor, "a void PIN is required to cancel a kitchen ticket", map[string]any{
				"ticketId": ticket.ID,
			}); err != nil {
				return err
			}
			if _, err := e.reopenBill(ctx, tx, &order, now); err != nil {
				return err
			}
		}

		items, err := tx.ListOrderItems(ctx, order.ID)
		if err != nil {
			return err
		}
		by := actor.UserID
		cancelled := make([]domain.OrderItem, 0)
		for i, it := range items {
			if it.KOTID == nil || *it.KOTID != ticket.ID {
				continue
			}
			changed := true
			switch {
			case next == domain.KOTPreparing && it.Status == domain.ItemSent:
				it.Status = domain.ItemPreparing
			case next == domain.KOTReady && !it.Status.IsTerminal():
				it.Status = domain.ItemReady
			case next == domain.KOTServed && it.Status != domain.ItemCancelled && it.Status != domain.ItemServed:
				it.Status = domain.ItemServed
			case next == domain.KOTCancelled && !it.Status.IsTerminal():
				it.Status = domain.ItemCancelled
				it.CancelReason = reason
				it.CancelledBy = &by
				it.CancelledAt = &now
				cancelled = append(cancelled, it)
			default:
				changed = false
			}
			if !changed {
				continue
			}
			it.UpdatedAt = now
			if err := tx.UpdateOrderItem(ctx, it); err != nil {
				return err
			}
			items[i] = it
		}

		switch next {
		case domain.KOTAccepted:
			ticket.AcceptedAt = &now
		case domain.KOTPreparing:
			ticket.PreparingAt = &now
		case domain.KOTReady:
			ticket.ReadyAt = &now
		case domain.KOTServed:
			ticket.ServedAt = &now
			ticket.ServedBy = &by
		case domain.KOTCancelled:
			ticket.CancelledAt = &now
			ticket.CancelReason = reason
		}
		ticket.Status = next
		ticket.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return err
		}

		if _, err := e.settle(ctx, tx, &order, now); err != nil {
			return err
		}
		if order.TableID != nil {
			if _, _, err := e.syncTable(ctx, tx, *order.TableID, b, now, false); err != nil {
				return err
			}
		}

		out = TicketDetail{
			Ticket:      ticket,
			Items:       orderState{items: items}.ticketItems(ticket.ID),
			OrderNumber: order.Number,
			TableLabel:  e.tableLabel(ctx, tx, order),
		}
		tv := out.View()
		rooms := ticketRooms(ticket)
		if next == domain.KOTReady || next == domain.KOTServed {
			rooms = append(rooms, effects.CaptainRoom(order.OutletID))
		}
		b.Emit(ticketEvents[next], tv, rooms...)
		if next == domain.KOTCancelled {
			printCancelSlip(b, ticket, tv, cancelled, reason)
		}
		b.Emit(effects.EventOrderUpdated, view.OrderOf(order), effects.CaptainRoom(order.OutletID))
		return nil
	})
	return out, err
}

type itemReadyPayload struct {
	OrderID     int64     `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	TableLabel  string    `json:"tableLabel,omitempty"`
	TicketID    int64     `json:"ticketId"`
	Station     string    `json:"station"`
	Item        view.Item `json:"item"`
}

// MarkItemReady marks a single item on an accepted or preparing ticket. The
// ticket turns ready once every live item on it is ready.
func (e *Engine) MarkItemReady(ctx context.Context, actor domain.Actor, itemID int64) (TicketDetail, error) {
	var out TicketDetail
	err := e.run(ctx, "item_ready", func(tx store.Tx, b *effects.Batch) error {
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
		if item.KOTID == nil {
			return apperr.Conflict(apperr.CodeInvalidStatus, "item has not been sent to the kitchen", map[string]any{
				"itemId": item.ID,
				"status": item.Status,
			})
		}
		ticket, err := tx.GetTicket(ctx, *item.KOTID, true)
		if err != nil {
			return err
		}
		if ticket.Status != domain.KOTAccepted && ticket.Status != domain.KOTPreparing {
			return apperr.Conflict(apperr.CodeInvalidStatus, "ticket must be accepted or preparing", map[string]any{
				"ticketId": ticket.ID,
				"status":   ticket.Status,
			})
		}
		if item.Status != domain.ItemSent && item.Status != domain.ItemPreparing {
			return apperr.Conflict(apperr.CodeInvalidStatus, "item is already "+string(item.Status), map[string]any{
				"itemId": item.ID,
				"status": item.Status,
			})
		}

		item.Status = domain.ItemReady
		item.UpdatedAt = now
		if err := tx.UpdateOrderItem(ctx, item); err != nil {
			return err
		}

		items, err := tx.ListOrderItems(ctx, order.ID)
		if err != nil {
			return err
		}
		bound := orderState{items: items}.ticketItems(ticket.ID)
		label := e.tableLabel(ctx, tx, order)

		b.Emit(effects.EventKOTItemReady, ticketView(ticket, items, order, label), ticketRooms(ticket)...)
		b.Emit(effects.EventItemReady, itemReadyPayload{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			TableLabel:  label,
			TicketID:    ticket.ID,
			Station:     ticket.Station,
			Item:        view.ItemOf(item),
		}, effects.CaptainRoom(order.OutletID))

		if allReady(domain.ActiveItems(bound)) {
			ticket.Status = domain.KOTReady
			ticket.ReadyAt = &now
			ticket.UpdatedAt = now
			if err := tx.UpdateTicket(ctx, ticket); err != nil {
				return err
			}
			b.Emit(effects.EventKOTReady, ticketView(ticket, items, order, label), append(ticketRooms(ticket), effects.CaptainRoom(order.OutletID))...)
		}

		if _, err := e.settle(ctx, tx, &order, now); err != nil {
			return err
		}
		out = TicketDetail{Ticket: ticket, Items: bound, OrderNumber: order.Number, TableLabel: label}
		return nil
	})
	return out, err
}

func (e *Engine) GetTicket(ctx context.Context, actor domain.Actor, ticketID int64) (TicketDetail, error) {
	var out TicketDetail
	err := e.read(ctx, func(tx store.Tx) error {
		ticket, err := tx.GetTicket(ctx, ticketID, false)
		if err != nil {
			return err
		}
		if !visible(actor, ticket.OutletID) {
			return apperr.NotFound("ticket", ticketID)
		}
		order, err := tx.GetOrder(ctx, ticket.OrderID, false)
		if err != nil {
			return err
		}
		items, err := tx.ListOrderItems(ctx, order.ID)
		if err != nil {
			return err
		}
		out = TicketDetail{
			Ticket:      ticket,
			Items:       orderState{items: items}.ticketItems(ticket.ID),
			OrderNumber: order.Number,
			TableLabel:  e.tableLabel(ctx, tx, order),
		}
		return nil
	})
	return out, err
}

// ListTickets returns tickets matching filter, oldest first.
func (e *Engine) ListTickets(ctx context.Context, actor domain.Actor, filter store.TicketFilter) ([]TicketDetail, error) {
	if actor.OutletID != 0 {
		filter.OutletID = actor.OutletID
	}
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return nil, apperr.Validation("", "unknown ticket status", map[string]any{"status": s})
		}
	}

	var out []TicketDetail
	err := e.read(ctx, func(tx store.Tx) error {
		tickets, err := tx.ListTickets(ctx, filter)
		if err != nil {
			return err
		}
		orders := map[int64]domain.Order{}
		itemsByOrder := map[int64][]domain.OrderItem{}
		labels := map[int64]string{}
		out = make([]TicketDetail, 0, len(tickets))
		for _, t := range tickets {
			order, ok := orders[t.OrderID]
			if !ok {
				if order, err = tx.GetOrder(ctx, t.OrderID, false); err != nil {
					return err
				}
				orders[t.OrderID] = order
				if itemsByOrder[t.OrderID], err = tx.ListOrderItems(ctx, t.OrderID); err != nil {
					return err
				}
				labels[t.OrderID] = e.tableLabel(ctx, tx, order)
			}
			out = append(out, TicketDetail{
				Ticket:      t,
				Items:       orderState{items: itemsByOrder[t.OrderID]}.ticketItems(t.ID),
				OrderNumber: order.Number,
				TableLabel:  labels[t.OrderID],
			})
		}
		return nil
	})
	return out, err
}
