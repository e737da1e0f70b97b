// Package view shapes domain records for the wire. Money always leaves the
// service as a string with two decimals.
package view

import (
	"time"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/utils"
)

type Table struct {
	ID        int64              `json:"id"`
	OutletID  int64              `json:"outletId"`
	FloorID   int64              `json:"floorId"`
	Label     string             `json:"label"`
	Capacity  int                `json:"capacity"`
	Status    domain.TableStatus `json:"status"`
	Session   *Session           `json:"session,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type Session struct {
	ID         int64      `json:"id"`
	TableID    int64      `json:"tableId"`
	FloorID    int64      `json:"floorId"`
	GuestCount int        `json:"guestCount"`
	OpenedBy   int64      `json:"openedBy"`
	OpenedAt   time.Time  `json:"openedAt"`
	ClosedBy   *int64     `json:"closedBy"`
	ClosedAt   *time.Time `json:"closedAt"`
}

func TableOf(t domain.Table, s *domain.TableSession) Table {
	out := Table{
		ID:        t.ID,
		OutletID:  t.OutletID,
		FloorID:   t.FloorID,
		Label:     t.Label,
		Capacity:  t.Capacity,
		Status:    t.Status,
		UpdatedAt: t.UpdatedAt,
	}
	if s != nil {
		sv := SessionOf(*s)
		out.Session = &sv
	}
	return out
}

func SessionOf(s domain.TableSession) Session {
	return Session{
		ID:         s.ID,
		TableID:    s.TableID,
		FloorID:    s.FloorID,
		GuestCount: s.GuestCount,
		OpenedBy:   s.OpenedBy,
		OpenedAt:   s.OpenedAt,
		ClosedBy:   s.ClosedBy,
		ClosedAt:   s.ClosedAt,
	}
}

type Order struct {
	ID              int64              `json:"id"`
	OutletID        int64              `json:"outletId"`
	TableID         *int64             `json:"tableId"`
	SessionID       *int64             `json:"sessionId"`
	Number          string             `json:"orderNumber"`
	Type            domain.OrderType   `json:"orderType"`
	Status          domain.OrderStatus `json:"status"`
	GuestCount      int                `json:"guestCount"`
	Subtotal        string             `json:"subtotal"`
	PriceAdjustment string             `json:"priceAdjustment"`
	DiscountAmount  string             `json:"discountAmount"`
	TaxAmount       string             `json:"taxAmount"`
	ServiceCharge   string             `json:"serviceCharge"`
	PackagingCharge string             `json:"packagingCharge"`
	DeliveryCharge  string             `json:"deliveryCharge"`
	RoundOff        string             `json:"roundOff"`
	TotalAmount     string             `json:"totalAmount"`
	PaidAmount      string             `json:"paidAmount"`
	DueAmount       string             `json:"dueAmount"`
	ChangeAmount    string             `json:"changeAmount"`
	CancelReason    string             `json:"cancelReason,omitempty"`
	CancelledBy     *int64             `json:"cancelledBy"`
	CancelledAt     *time.Time         `json:"cancelledAt"`
	BilledAt        *time.Time         `json:"billedAt"`
	PaidAt          *time.Time         `json:"paidAt"`
	CreatedBy       int64              `json:"createdBy"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func OrderOf(o domain.Order) Order {
	return Order{
		ID:              o.ID,
		OutletID:        o.OutletID,
		TableID:         o.TableID,
		SessionID:       o.SessionID,
		Number:          o.Number,
		Type:            o.Type,
		Status:          o.Status,
		GuestCount:      o.GuestCount,
		Subtotal:        utils.Money(o.Subtotal),
		PriceAdjustment: utils.Money(o.PriceAdjustment),
		DiscountAmount:  utils.Money(o.DiscountAmount),
		TaxAmount:       utils.Money(o.TaxAmount),
		ServiceCharge:   utils.Money(o.ServiceCharge),
		PackagingCharge: utils.Money(o.PackagingCharge),
		DeliveryCharge:  utils.Money(o.DeliveryCharge),
		RoundOff:        utils.Money(o.RoundOff),
		TotalAmount:     utils.Money(o.TotalAmount),
		PaidAmount:      utils.Money(o.PaidAmount),
		DueAmount:       utils.Money(o.DueAmount),
		ChangeAmount:    utils.Money(o.ChangeAmount),
		CancelReason:    o.CancelReason,
		CancelledBy:     o.CancelledBy,
		CancelledAt:     o.CancelledAt,
		BilledAt:        o.BilledAt,
		PaidAt:          o.PaidAt,
		CreatedBy:       o.CreatedBy,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type Item struct {
	ID           int64                  `json:"id"`
	OrderID      int64                  `json:"orderId"`
	MenuItemID   int64                  `json:"menuItemId"`
	VariantID    *int64                 `json:"variantId"`
	Name         string                 `json:"name"`
	Quantity     int                    `json:"quantity"`
	UnitPrice    string                 `json:"unitPrice"`
	AddonTotal   string                 `json:"addonTotal"`
	LineTotal    string                 `json:"lineTotal"`
	TaxGroupID   *int64                 `json:"taxGroupId"`
	Station      string                 `json:"station,omitempty"`
	Instructions string                 `json:"specialInstructions,omitempty"`
	Status       domain.OrderItemStatus `json:"status"`
	KOTID        *int64                 `json:"kotId"`
	CancelReason string                 `json:"cancelReason,omitempty"`
	CancelledAt  *time.Time             `json:"cancelledAt"`
}

func ItemOf(it domain.OrderItem) Item {
	return Item{
		ID:           it.ID,
		OrderID:      it.OrderID,
		MenuItemID:   it.MenuItemID,
		VariantID:    it.VariantID,
		Name:         it.Name,
		Quantity:     it.Quantity,
		UnitPrice:    utils.Money(it.UnitPrice),
		AddonTotal:   utils.Money(it.AddonTotal),
		LineTotal:    utils.Money(it.LineTotal),
		TaxGroupID:   it.TaxGroupID,
		Station:      it.Station,
		Instructions: it.Instructions,
		Status:       it.Status,
		KOTID:        it.KOTID,
		CancelReason: it.CancelReason,
		CancelledAt:  it.CancelledAt,
	}
}

func ItemsOf(items []domain.OrderItem) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, ItemOf(it))
	}
	return out
}

type Ticket struct {
	ID           int64            `json:"id"`
	OrderID      int64            `json:"orderId"`
	OutletID     int64            `json:"outletId"`
	Number       string           `json:"kotNumber"`
	OrderNumber  string           `json:"orderNumber,omitempty"`
	TableLabel   string           `json:"tableLabel,omitempty"`
	Station      string           `json:"station"`
	Status       domain.KOTStatus `json:"status"`
	Items        []Item           `json:"items"`
	CreatedAt    time.Time        `json:"createdAt"`
	AcceptedAt   *time.Time       `json:"acceptedAt"`
	PreparingAt  *time.Time       `json:"preparingAt"`
	ReadyAt      *time.Time       `json:"readyAt"`
	ServedAt     *time.Time       `json:"servedAt"`
	ServedBy     *int64           `json:"servedBy"`
	CancelledAt  *time.Time       `json:"cancelledAt"`
	CancelReason string           `json:"cancelReason,omitempty"`
}

// TicketOf renders t with the subset of items bound to it.
func TicketOf(t domain.KOTTicket, items []domain.OrderItem) Ticket {
	bound := make([]domain.OrderItem, 0, len(t.ItemIDs))
	for _, it := range items {
		if it.KOTID != nil && *it.KOTID == t.ID {
			bound = append(bound, it)
		}
	}
	return Ticket{
		ID:           t.ID,
		OrderID:      t.OrderID,
		OutletID:     t.OutletID,
		Number:       t.Number,
		Station:      t.Station,
		Status:       t.Status,
		Items:        ItemsOf(bound),
		CreatedAt:    t.CreatedAt,
		AcceptedAt:   t.AcceptedAt,
		PreparingAt:  t.PreparingAt,
		ReadyAt:      t.ReadyAt,
		ServedAt:     t.ServedAt,
		ServedBy:     t.ServedBy,
		CancelledAt:  t.CancelledAt,
		CancelReason: t.CancelReason,
	}
}

type TaxLine struct {
	GroupID       int64  `json:"groupId"`
	GroupName     string `json:"groupName"`
	Component     string `json:"component"`
	Rate          string `json:"rate"`
	TaxableAmount string `json:"taxableAmount"`
	Amount        string `json:"amount"`
}

type Invoice struct {
	ID              int64      `json:"id"`
	OrderID         int64      `json:"orderId"`
	Number          string     `json:"invoiceNumber"`
	ItemsTotal      string     `json:"itemsTotal"`
	PriceAdjustment string     `json:"priceAdjustment"`
	Subtotal        string     `json:"subtotal"`
	DiscountAmount  string     `json:"discountAmount"`
	TaxLines        []TaxLine  `json:"taxBreakdown"`
	TaxAmount       string     `json:"taxAmount"`
	ServiceCharge   string     `json:"serviceCharge"`
	PackagingCharge string     `json:"packagingCharge"`
	DeliveryCharge  string     `json:"deliveryCharge"`
	RoundOff        string     `json:"roundOff"`
	GrandTotal      string     `json:"grandTotal"`
	IsCancelled     bool       `json:"isCancelled"`
	CancelledAt     *time.Time `json:"cancelledAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func InvoiceOf(inv domain.Invoice) Invoice {
	lines := make([]TaxLine, 0, len(inv.TaxLines))
	for _, l := range inv.TaxLines {
		lines = append(lines, TaxLine{
			GroupID:       l.GroupID,
			GroupName:     l.GroupName,
			Component:     l.Component,
			Rate:          l.Rate.String(),
			TaxableAmount: utils.Money(l.TaxableAmount),
			Amount:        utils.Money(l.Amount),
		})
	}
	return Invoice{
		ID:              inv.ID,
		OrderID:         inv.OrderID,
		Number:          inv.Number,
		ItemsTotal:      utils.Money(inv.ItemsTotal),
		PriceAdjustment: utils.Money(inv.PriceAdjustment),
		Subtotal:        utils.Money(inv.Subtotal),
		DiscountAmount:  utils.Money(inv.DiscountAmount),
		TaxLines:        lines,
		TaxAmount:       utils.Money(inv.TaxAmount),
		ServiceCharge:   utils.Money(inv.ServiceCharge),
		PackagingCharge: utils.Money(inv.PackagingCharge),
		DeliveryCharge:  utils.Money(inv.DeliveryCharge),
		RoundOff:        utils.Money(inv.RoundOff),
		GrandTotal:      utils.Money(inv.GrandTotal),
		IsCancelled:     inv.IsCancelled,
		CancelledAt:     inv.CancelledAt,
		CreatedAt:       inv.CreatedAt,
	}
}

type Discount struct {
	ID        int64               `json:"id"`
	Type      domain.DiscountType `json:"type"`
	Value     string              `json:"value"`
	Amount    string              `json:"amount"`
	Reason    string              `json:"reason,omitempty"`
	AppliedBy int64               `json:"appliedBy"`
	CreatedAt time.Time           `json:"createdAt"`
}

func DiscountOf(d domain.Discount) Discount {
	return Discount{
		ID:        d.ID,
		Type:      d.Type,
		Value:     d.Value.String(),
		Amount:    utils.Money(d.Amount),
		Reason:    d.Reason,
		AppliedBy: d.AppliedBy,
		CreatedAt: d.CreatedAt,
	}
}

type Payment struct {
	ID         int64              `json:"id"`
	OrderID    int64              `json:"orderId"`
	InvoiceID  int64              `json:"invoiceId"`
	Mode       domain.PaymentMode `json:"mode"`
	Amount     string             `json:"amount"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	RecordedBy int64              `json:"recordedBy"`
	CreatedAt  time.Time          `json:"createdAt"`
}

func PaymentOf(p domain.Payment) Payment {
	return Payment{
		ID:         p.ID,
		OrderID:    p.OrderID,
		InvoiceID:  p.InvoiceID,
		Mode:       p.Mode,
		Amount:     utils.Money(p.Amount),
		Metadata:   p.Metadata,
		RecordedBy: p.RecordedBy,
		CreatedAt:  p.CreatedAt,
	}
}
