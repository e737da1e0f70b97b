package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Table struct {
	ID        int64       `json:"id"`
	OutletID  int64       `json:"outletId"`
	FloorID   int64       `json:"floorId"`
	Label     string      `json:"label"`
	Capacity  int         `json:"capacity"`
	Status    TableStatus `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type TableSession struct {
	ID         int64      `json:"id"`
	TableID    int64      `json:"tableId"`
	FloorID    int64      `json:"floorId"`
	GuestCount int        `json:"guestCount"`
	OpenedBy   int64      `json:"openedBy"`
	OpenedAt   time.Time  `json:"openedAt"`
	ClosedBy   *int64     `json:"closedBy"`
	ClosedAt   *time.Time `json:"closedAt"`
}

func (s TableSession) IsOpen() bool {
	return s.ClosedAt == nil
}

type Order struct {
	ID              int64           `json:"id"`
	OutletID        int64           `json:"outletId"`
	TableID         *int64          `json:"tableId"`
	SessionID       *int64          `json:"sessionId"`
	Number          string          `json:"number"`
	Type            OrderType       `json:"orderType"`
	Status          OrderStatus     `json:"status"`
	GuestCount      int             `json:"guestCount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	PriceAdjustment decimal.Decimal `json:"priceAdjustment"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	ServiceCharge   decimal.Decimal `json:"serviceCharge"`
	PackagingCharge decimal.Decimal `json:"packagingCharge"`
	DeliveryCharge  decimal.Decimal `json:"deliveryCharge"`
	RoundOff        decimal.Decimal `json:"roundOff"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	DueAmount       decimal.Decimal `json:"dueAmount"`
	ChangeAmount    decimal.Decimal `json:"changeAmount"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	CancelledBy     *int64          `json:"cancelledBy"`
	CancelledAt     *time.Time      `json:"cancelledAt"`
	BilledAt        *time.Time      `json:"billedAt"`
	PaidAt          *time.Time      `json:"paidAt"`
	CreatedBy       int64           `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ApplyPaid recomputes paid/due/change from the sum of recorded payments.
// Due is clamped at zero; the literal paid total is kept for reporting.
func (o *Order) ApplyPaid(paid decimal.Decimal) {
	o.PaidAmount = paid
	due := o.TotalAmount.Sub(paid)
	if due.IsNegative() {
		o.DueAmount = decimal.Zero
		o.ChangeAmount = due.Neg()
		return
	}
	o.DueAmount = due
	o.ChangeAmount = decimal.Zero
}

// ExpectedTotal is the total implied by the order's components.
func (o Order) ExpectedTotal() decimal.Decimal {
	return o.Subtotal.
		Sub(o.DiscountAmount).
		Add(o.TaxAmount).
		Add(o.ServiceCharge).
		Add(o.PackagingCharge).
		Add(o.DeliveryCharge).
		Add(o.RoundOff)
}

type OrderItem struct {
	ID           int64            `json:"id"`
	OrderID      int64            `json:"orderId"`
	MenuItemID   int64            `json:"menuItemId"`
	VariantID    *int64           `json:"variantId"`
	Name         string           `json:"name"`
	Quantity     int              `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unitPrice"`
	AddonTotal   decimal.Decimal  `json:"addonTotal"`
	LineTotal    decimal.Decimal  `json:"lineTotal"`
	TaxGroupID   *int64           `json:"taxGroupId"`
	Station      string           `json:"station,omitempty"`
	Instructions string           `json:"instructions,omitempty"`
	Status       OrderItemStatus  `json:"status"`
	KOTID        *int64           `json:"kotId"`
	CancelReason string           `json:"cancelReason,omitempty"`
	CancelledBy  *int64           `json:"cancelledBy"`
	CancelledAt  *time.Time       `json:"cancelledAt"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ComputeLineTotal returns (unit_price + addon_total) × quantity.
func ComputeLineTotal(unitPrice, addonTotal decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Add(addonTotal).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

type KOTTicket struct {
	ID           int64      `json:"id"`
	OrderID      int64      `json:"orderId"`
	OutletID     int64      `json:"outletId"`
	Number       string     `json:"number"`
	Station      string     `json:"station"`
	Status       KOTStatus  `json:"status"`
	ItemIDs      []int64    `json:"itemIds"`
	CreatedBy    int64      `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	AcceptedAt   *time.Time `json:"acceptedAt"`
	PreparingAt  *time.Time `json:"preparingAt"`
	ReadyAt      *time.Time `json:"readyAt"`
	ServedAt     *time.Time `json:"servedAt"`
	ServedBy     *int64     `json:"servedBy"`
	CancelledAt  *time.Time `json:"cancelledAt"`
	CancelReason string     `json:"cancelReason,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (t KOTTicket) IsActive() bool {
	return t.Status != KOTServed && t.Status != KOTCancelled
}

type TaxLine struct {
	GroupID       int64           `json:"groupId"`
	GroupName     string          `json:"groupName"`
	Component     string          `json:"component"`
	Rate          decimal.Decimal `json:"rate"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	Amount        decimal.Decimal `json:"amount"`
}

type Invoice struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	Number          string          `json:"number"`
	ItemsTotal      decimal.Decimal `json:"itemsTotal"`
	PriceAdjustment decimal.Decimal `json:"priceAdjustment"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TaxLines        []TaxLine       `json:"taxLines"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	ServiceCharge   decimal.Decimal `json:"serviceCharge"`
	PackagingCharge decimal.Decimal `json:"packagingCharge"`
	DeliveryCharge  decimal.Decimal `json:"deliveryCharge"`
	RoundOff        decimal.Decimal `json:"roundOff"`
	GrandTotal      decimal.Decimal `json:"grandTotal"`
	IsCancelled     bool            `json:"isCancelled"`
	CancelledAt     *time.Time      `json:"cancelledAt"`
	CreatedBy       int64           `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Discount struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	Type      DiscountType    `json:"type"`
	Value     decimal.Decimal `json:"value"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	AppliedBy int64           `json:"appliedBy"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Payment struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"orderId"`
	InvoiceID  int64           `json:"invoiceId"`
	Mode       PaymentMode     `json:"mode"`
	Amount     decimal.Decimal `json:"amount"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	RecordedBy int64           `json:"recordedBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Actor is the authenticated staff member performing an action.
type Actor struct {
	UserID   int64
	Role     string
	OutletID int64
	// VoidAuthorized is set when the caller may void work already sent to
	// the kitchen.
	VoidAuthorized bool
}
