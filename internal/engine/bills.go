package engine

import (
	"context"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/billing"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/view"

	"github.com/shopspring/decimal"
)

type DiscountInput struct {
	Type   domain.DiscountType
	Value  decimal.Decimal
	Reason string
}

type BillOptions struct {
	Discount        *DiscountInput
	PriceAdjustment *decimal.Decimal
}

type BillResult struct {
	Order     domain.Order
	Invoice   domain.Invoice
	Items     []domain.OrderItem
	Discounts []domain.Discount
}

// ApplyDiscount records a discount ahead of billing. Amounts are resolved
// against the current subtotal with the same rules the bill uses.
func (e *Engine) ApplyDiscount(ctx context.Context, actor domain.Actor, orderID int64, in DiscountInput) (OrderDetail, error) {
	var out OrderDetail
	err := e.run(ctx, "apply_discount", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		order, err := e.getOrder(ctx, tx, actor, orderID, true)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return terminalConflict(order)
		}
		if _, err := e.reopenBill(ctx, tx, &order, now); err != nil {
			return err
		}

		st, err := loadState(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		discount := domain.Discount{
			OrderID:   order.ID,
			Type:      in.Type,
			Value:     in.Value,
			Reason:    in.Reason,
			AppliedBy: actor.UserID,
			CreatedAt: now,
		}
		subtotal := billing.ItemsTotal(st.lines())
		amounts, _, err := billing.ComputeDiscounts(subtotal, append(st.discounts, discount))
		if err != nil {
			return err
		}
		discount.Amount = amounts[len(amounts)-1]
		if err := tx.InsertDiscount(ctx, &discount); err != nil {
			return err
		}

		if st, err = e.settle(ctx, tx, &order, now); err != nil {
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

func (e *Engine) chargeConfig(ctx context.Context, order domain.Order) (billing.Config, error) {
	cctx, cancel := e.catalogContext(ctx)
	defer cancel()
	cfg, err := e.charges.Charges(cctx, order.OutletID, order.Type)
	if err != nil {
		return billing.Config{}, err
	}
	if order.Type == domain.OrderDineIn {
		cfg.PackagingCharge = decimal.Zero
	}
	if order.Type != domain.OrderDelivery {
		cfg.DeliveryCharge = decimal.Zero
	}
	return cfg, nil
}

// GenerateBill computes and issues the invoice. Billing again replaces the
// active invoice until the first payment is taken against it.
func (e *Engine) GenerateBill(ctx context.Context, actor domain.Actor, orderID int64, opts BillOptions) (BillResult, error) {
	var pre domain.Order
	err := e.read(ctx, func(tx store.Tx) error {
		var err error
		pre, err = e.getOrder(ctx, tx, actor, orderID, false)
		return err
	})
	if err != nil {
		return BillResult{}, err
	}
	cfg, err := e.chargeConfig(ctx, pre)
	if err != nil {
		return BillResult{}, err
	}

	var out BillResult
	err = e.run(ctx, "generate_bill", func(tx store.Tx, b *effects.Batch) error {
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
			return apperr.Conflict(apperr.CodeOrderHasPayments, "a payment is already recorded against this bill", map[string]any{
				"orderId":    order.ID,
				"paidAmount": st.paid().StringFixed(2),
			})
		}
		lines := st.lines()
		if len(lines) == 0 {
			return apperr.Validation(apperr.CodeNoActiveItems, "order has no active items to bill", map[string]any{"orderId": order.ID})
		}

		discounts := append([]domain.Discount(nil), st.discounts...)
		var added *domain.Discount
		if opts.Discount != nil {
			added = &domain.Discount{
				OrderID:   order.ID,
				Type:      opts.Discount.Type,
				Value:     opts.Discount.Value,
				Reason:    opts.Discount.Reason,
				AppliedBy: actor.UserID,
				CreatedAt: now,
			}
			discounts = append(discounts, *added)
		}
		adjustment := decimal.Zero
		if opts.PriceAdjustment != nil {
			adjustment = *opts.PriceAdjustment
		}

		bd, err := billing.Compute(billing.Input{Lines: lines, PriceAdjustment: adjustment, Discounts: discounts}, cfg)
		if err != nil {
			return err
		}

		if st.invoice != nil {
			if err := tx.CancelInvoice(ctx, st.invoice.ID, now); err != nil {
				return err
			}
		}
		for i, d := range st.discounts {
			if d.Amount.Equal(bd.DiscountAmounts[i]) {
				continue
			}
			d.Amount = bd.DiscountAmounts[i]
			if err := tx.UpdateDiscount(ctx, d); err != nil {
				return err
			}
		}
		if added != nil {
			added.Amount = bd.DiscountAmounts[len(bd.DiscountAmounts)-1]
			if err := tx.InsertDiscount(ctx, added); err != nil {
				return err
			}
		}

		invoice := domain.Invoice{
			OrderID:         order.ID,
			ItemsTotal:      bd.ItemsMenuTotal,
			PriceAdjustment: bd.PriceAdjustment,
			Subtotal:        bd.Subtotal,
			DiscountAmount:  bd.DiscountTotal,
			TaxLines:        bd.TaxLines,
			TaxAmount:       bd.TotalTax,
			ServiceCharge:   bd.ServiceCharge,
			PackagingCharge: bd.PackagingCharge,
			DeliveryCharge:  bd.DeliveryCharge,
			RoundOff:        bd.RoundOff,
			GrandTotal:      bd.GrandTotal,
			CreatedBy:       actor.UserID,
			CreatedAt:       now,
		}
		if err := tx.InsertInvoice(ctx, &invoice); err != nil {
			return err
		}

		order.Subtotal = bd.Subtotal
		order.PriceAdjustment = bd.PriceAdjustment
		order.DiscountAmount = bd.DiscountTotal
		order.TaxAmount = bd.TotalTax
		order.ServiceCharge = bd.ServiceCharge
		order.PackagingCharge = bd.PackagingCharge
		order.DeliveryCharge = bd.DeliveryCharge
		order.RoundOff = bd.RoundOff
		order.TotalAmount = bd.GrandTotal
		order.BilledAt = &now
		if st, err = e.settle(ctx, tx, &order, now); err != nil {
			return err
		}

		var table *domain.Table
		if order.TableID != nil {
			t, _, err := e.syncTable(ctx, tx, *order.TableID, b, now, false)
			if err != nil {
				return err
			}
			table = &t
		}

		out = BillResult{Order: order, Invoice: invoice, Items: st.items, Discounts: st.discounts}
		payload := billPayload{
			Order:   view.OrderOf(order),
			Invoice: view.InvoiceOf(invoice),
			Items:   view.ItemsOf(domain.ActiveItems(st.items)),
		}
		if table != nil {
			payload.TableLabel = table.Label
		}
		invoiceID := invoice.ID
		b.Emit(effects.EventOrderBilled, payload, effects.CaptainRoom(order.OutletID))
		b.Print(effects.PrintJob{
			Kind:      effects.PrintBill,
			OutletID:  order.OutletID,
			OrderID:   order.ID,
			InvoiceID: &invoiceID,
			Payload:   payload,
		})
		b.Archive(effects.InvoiceArchive{
			OutletID: order.OutletID,
			Order:    order,
			Invoice:  invoice,
			Items:    domain.ActiveItems(st.items),
			Table:    table,
		})
		return nil
	})
	return out, err
}

type billPayload struct {
	Order      view.Order   `json:"order"`
	Invoice    view.Invoice `json:"invoice"`
	Items      []view.Item  `json:"items"`
	TableLabel string       `json:"tableLabel,omitempty"`
}
