package handlers

import (
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/engine"
	"frontdesk-order-services/internal/view"

	"github.com/shopspring/decimal"
)

type itemRequest struct {
	MenuItemID          int64   `json:"menuItemId"`
	VariantID           *int64  `json:"variantId"`
	AddonIDs            []int64 `json:"addonIds"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions string  `json:"specialInstructions"`
}

func (r itemRequest) input() engine.ItemInput {
	return engine.ItemInput{
		MenuItemID:   r.MenuItemID,
		VariantID:    r.VariantID,
		AddonIDs:     r.AddonIDs,
		Quantity:     r.Quantity,
		Instructions: r.SpecialInstructions,
	}
}

func itemInputs(reqs []itemRequest) []engine.ItemInput {
	out := make([]engine.ItemInput, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.input())
	}
	return out
}

type discountRequest struct {
	Type   domain.DiscountType `json:"type"`
	Value  decimal.Decimal     `json:"value"`
	Reason string              `json:"reason"`
}

func (r discountRequest) input() engine.DiscountInput {
	return engine.DiscountInput{Type: r.Type, Value: r.Value, Reason: r.Reason}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type orderDetailResponse struct {
	Order     view.Order      `json:"order"`
	Items     []view.Item     `json:"items"`
	Tickets   []view.Ticket   `json:"tickets"`
	Discounts []view.Discount `json:"discounts"`
	Invoice   *view.Invoice   `json:"invoice"`
	Payments  []view.Payment  `json:"payments"`
}

func orderDetailView(d engine.OrderDetail) orderDetailResponse {
	out := orderDetailResponse{
		Order:     view.OrderOf(d.Order),
		Items:     view.ItemsOf(d.Items),
		Tickets:   make([]view.Ticket, 0, len(d.Tickets)),
		Discounts: make([]view.Discount, 0, len(d.Discounts)),
		Payments:  make([]view.Payment, 0, len(d.Payments)),
	}
	for _, t := range d.Tickets {
		onTicket := make([]domain.OrderItem, 0)
		for _, it := range d.Items {
			if it.KOTID != nil && *it.KOTID == t.ID {
				onTicket = append(onTicket, it)
			}
		}
		out.Tickets = append(out.Tickets, view.TicketOf(t, onTicket))
	}
	for _, disc := range d.Discounts {
		out.Discounts = append(out.Discounts, view.DiscountOf(disc))
	}
	for _, inv := range d.Invoices {
		if !inv.IsCancelled {
			v := view.InvoiceOf(inv)
			out.Invoice = &v
		}
	}
	for _, p := range d.Payments {
		out.Payments = append(out.Payments, view.PaymentOf(p))
	}
	return out
}

func ticketViews(details []engine.TicketDetail) []view.Ticket {
	out := make([]view.Ticket, 0, len(details))
	for _, d := range details {
		out = append(out, d.View())
	}
	return out
}

func tableView(d engine.TableDetail) view.Table {
	return view.TableOf(d.Table, d.Session)
}
