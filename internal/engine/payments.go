package engine

import (
	"context"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/view"

	"github.com/shopspring/decimal"
)

type PaymentInput struct {
	InvoiceID int64
	Mode      domain.PaymentMode
	Amount    decimal.Decimal
	Metadata  map[string]any
}

type PaymentResult struct {
	Payment domain.Payment
	Order   domain.Order
	Status  domain.PaymentStatus
}

type paymentPayload struct {
	Payment view.Payment         `json:"payment"`
	Order   view.Order           `json:"order"`
	Status  domain.PaymentStatus `json:"paymentStatus"`
}

// RecordPayment takes money against the order's active invoice. Once
// nothing is due the order is paid: live items and tickets are served, the
// session is closed and the table released.
func (e *Engine) RecordPayment(ctx context.Context, actor domain.Actor, orderID int64, in PaymentInput) (PaymentResult, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return PaymentResult{}, apperr.Validation("", "payment amount must be positive", map[string]any{"amount": in.Amount.String()})
	}
	if !in.Mode.Valid() {
		return PaymentResult{}, apperr.Validation("", "unknown payment mode", map[string]any{"mode": in.Mode})
	}

	var out PaymentResult
	err := e.run(ctx, "record_payment", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		order, err := e.getOrder(ctx, tx, actor, orderID, true)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return terminalConflict(order)
		}
		if order.Status != domain.OrderBilled {
			return apperr.Conflict(apperr.CodeOrderNotBilled, "order must be billed before taking payment", map[string]any{
				"orderId": order.ID,
				"status":  order.Status,
			})
		}

		invoice, err := tx.GetInvoice(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.OrderID != order.ID {
			return apperr.NotFound("invoice", in.InvoiceID)
		}
		active, err := tx.ActiveInvoice(ctx, order.ID)
		if err != nil {
			return err
		}
		if invoice.IsCancelled || active == nil || active.ID != invoice.ID {
			details := map[string]any{"invoiceId": invoice.ID}
			if active != nil {
				details["activeInvoiceId"] = active.ID
			}
			return apperr.Conflict(apperr.CodeInvoiceStale, "invoice is not the order's active bill", details)
		}

		payment := domain.Payment{
			OrderID:    order.ID,
			InvoiceID:  invoice.ID,
			Mode:       in.Mode,
			Amount:     amount,
			Metadata:   in.Metadata,
			RecordedBy: actor.UserID,
			CreatedAt:  now,
		}
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return err
		}
		st, err := e.settle(ctx, tx, &order, now)
		if err != nil {
			return err
		}

		status := domain.PaymentPartial
		if !order.DueAmount.IsPositive() {
			status = domain.PaymentCompleted
			if err := e.completeOrder(ctx, tx, b, &order, st, actor); err != nil {
				return err
			}
		}

		out = PaymentResult{Payment: payment, Order: order, Status: status}
		b.Emit(effects.EventPayment, paymentPayload{
			Payment: view.PaymentOf(payment),
			Order:   view.OrderOf(order),
			Status:  status,
		}, effects.CaptainRoom(order.OutletID))
		return nil
	})
	return out, err
}

func (e *Engine) completeOrder(ctx context.Context, tx store.Tx, b *effects.Batch, order *domain.Order, st orderState, actor domain.Actor) error {
	now := e.now()
	by := actor.UserID

	for i, it := range st.items {
		if it.Status.IsTerminal() {
			continue
		}
		it.Status = domain.ItemServed
		it.UpdatedAt = now
		if err := tx.UpdateOrderItem(ctx, it); err != nil {
			return err
		}
		st.items[i] = it
	}

	label := e.tableLabel(ctx, tx, *order)
	for _, t := range st.tickets {
		if !t.IsActive() {
			continue
		}
		t.Status = domain.KOTServed
		t.ServedAt = &now
		t.ServedBy = &by
		t.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		b.Emit(effects.EventKOTServed, ticketView(t, st.items, *order, label), ticketRooms(t)...)
	}

	order.Status = domain.OrderPaid
	order.PaidAt = &now
	order.UpdatedAt = now
	if err := tx.UpdateOrder(ctx, *order); err != nil {
		return err
	}

	if order.TableID != nil {
		settled, err := e.closeSessionIfIdle(ctx, tx, *order, actor, now)
		if err != nil {
			return err
		}
		if _, _, err := e.syncTableFacts(ctx, tx, *order.TableID, b, now, false, settled); err != nil {
			return err
		}
	}
	b.Emit(effects.EventOrderPaid, view.OrderOf(*order), effects.CaptainRoom(order.OutletID))
	return nil
}
