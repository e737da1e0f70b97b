package domain

import "fmt"

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableRunning   TableStatus = "running"
	TableReserved  TableStatus = "reserved"
	TableBilling   TableStatus = "billing"
	TableCleaning  TableStatus = "cleaning"
	TableBlocked   TableStatus = "blocked"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableRunning, TableReserved, TableBilling, TableCleaning, TableBlocked:
		return true
	}
	return false
}

// IsManualHold reports statuses only staff can put a free table into.
func (s TableStatus) IsManualHold() bool {
	return s == TableReserved || s == TableCleaning || s == TableBlocked
}

type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeaway OrderType = "takeaway"
	OrderDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	return t == OrderDineIn || t == OrderTakeaway || t == OrderDelivery
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderBilled    OrderStatus = "billed"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

type OrderItemStatus string

const (
	ItemPending   OrderItemStatus = "pending"
	ItemSent      OrderItemStatus = "sent"
	ItemPreparing OrderItemStatus = "preparing"
	ItemReady     OrderItemStatus = "ready"
	ItemServed    OrderItemStatus = "served"
	ItemCancelled OrderItemStatus = "cancelled"
)

func (s OrderItemStatus) IsTerminal() bool {
	return s == ItemServed || s == ItemCancelled
}

type KOTStatus string

const (
	KOTPending   KOTStatus = "pending"
	KOTAccepted  KOTStatus = "accepted"
	KOTPreparing KOTStatus = "preparing"
	KOTReady     KOTStatus = "ready"
	KOTServed    KOTStatus = "served"
	KOTCancelled KOTStatus = "cancelled"
)

func (s KOTStatus) Valid() bool {
	switch s {
	case KOTPending, KOTAccepted, KOTPreparing, KOTReady, KOTServed, KOTCancelled:
		return true
	}
	return false
}

var kotRank = map[KOTStatus]int{
	KOTPending:   0,
	KOTAccepted:  1,
	KOTPreparing: 2,
	KOTReady:     3,
	KOTServed:    4,
}

// kotTransitions holds the forward edges; cancellation is handled separately
// because it is reachable from every non-terminal state.
var kotTransitions = map[KOTStatus]KOTStatus{
	KOTPending:   KOTAccepted,
	KOTAccepted:  KOTPreparing,
	KOTPreparing: KOTReady,
	KOTReady:     KOTServed,
}

func ValidateKOTTransition(current, next KOTStatus) error {
	if next == KOTCancelled {
		if current == KOTServed || current == KOTCancelled {
			return fmt.Errorf("cannot cancel a %s ticket", current)
		}
		return nil
	}
	if allowed, ok := kotTransitions[current]; ok && allowed == next {
		return nil
	}
	return fmt.Errorf("cannot transition ticket from %s to %s", current, next)
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFlat
}

type PaymentMode string

const (
	PaymentCash          PaymentMode = "cash"
	PaymentCard          PaymentMode = "card"
	PaymentUPI           PaymentMode = "upi"
	PaymentWallet        PaymentMode = "wallet"
	PaymentCredit        PaymentMode = "credit"
	PaymentComplimentary PaymentMode = "complimentary"
	PaymentSplit         PaymentMode = "split"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentWallet, PaymentCredit, PaymentComplimentary, PaymentSplit:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
)
