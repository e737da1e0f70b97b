package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecomputeTableStatus(t *testing.T) {
	cases := []struct {
		name     string
		facts    TableFacts
		expected TableStatus
	}{
		{name: "free table", facts: TableFacts{Current: TableOccupied}, expected: TableAvailable},
		{name: "free table keeps cleaning hold", facts: TableFacts{Current: TableCleaning}, expected: TableCleaning},
		{name: "free table keeps reservation", facts: TableFacts{Current: TableReserved}, expected: TableReserved},
		{name: "seated", facts: TableFacts{Current: TableAvailable, OpenSession: true}, expected: TableOccupied},
		{name: "kot sent", facts: TableFacts{OpenSession: true, KOTSent: true}, expected: TableRunning},
		{name: "billed", facts: TableFacts{OpenSession: true, KOTSent: true, Billed: true}, expected: TableBilling},
		{name: "paid releases", facts: TableFacts{Current: TableBilling, OpenSession: true, Billed: true, Paid: true}, expected: TableAvailable},
		{name: "paid clears a manual hold", facts: TableFacts{Current: TableBlocked, Paid: true}, expected: TableAvailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RecomputeTableStatus(tc.facts); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestDeriveOrderStatus(t *testing.T) {
	ticket := func(s KOTStatus) KOTTicket { return KOTTicket{Status: s} }

	cases := []struct {
		name     string
		current  OrderStatus
		billed   bool
		tickets  []KOTTicket
		items    []OrderItem
		expected OrderStatus
	}{
		{name: "no tickets", current: OrderPending, expected: OrderPending},
		{name: "sent", current: OrderPending, tickets: []KOTTicket{ticket(KOTPending)}, expected: OrderConfirmed},
		{name: "one preparing", current: OrderConfirmed, tickets: []KOTTicket{ticket(KOTAccepted), ticket(KOTPreparing)}, expected: OrderPreparing},
		{name: "all ready", current: OrderPreparing, tickets: []KOTTicket{ticket(KOTReady), ticket(KOTReady)}, expected: OrderReady},
		{name: "ready and served", current: OrderReady, tickets: []KOTTicket{ticket(KOTReady), ticket(KOTServed)}, expected: OrderReady},
		{name: "all served ignoring cancelled", current: OrderReady, tickets: []KOTTicket{ticket(KOTServed), ticket(KOTCancelled)}, expected: OrderServed},
		{name: "only cancelled tickets", current: OrderConfirmed, tickets: []KOTTicket{ticket(KOTCancelled)}, expected: OrderPending},
		{
			name:     "new unsent items pull back served",
			current:  OrderServed,
			tickets:  []KOTTicket{ticket(KOTServed)},
			items:    []OrderItem{{Status: ItemServed}, {Status: ItemPending}},
			expected: OrderPreparing,
		},
		{name: "billed wins", current: OrderServed, billed: true, tickets: []KOTTicket{ticket(KOTServed)}, expected: OrderBilled},
		{name: "paid is sticky", current: OrderPaid, billed: true, expected: OrderPaid},
		{name: "cancelled is sticky", current: OrderCancelled, tickets: []KOTTicket{ticket(KOTReady)}, expected: OrderCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveOrderStatus(tc.current, tc.billed, tc.tickets, tc.items)
			if got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestValidateKOTTransition(t *testing.T) {
	allowed := [][2]KOTStatus{
		{KOTPending, KOTAccepted},
		{KOTAccepted, KOTPreparing},
		{KOTPreparing, KOTReady},
		{KOTReady, KOTServed},
		{KOTPending, KOTCancelled},
		{KOTReady, KOTCancelled},
	}
	for _, pair := range allowed {
		if err := ValidateKOTTransition(pair[0], pair[1]); err != nil {
			t.Fatalf("expected %s -> %s to be allowed: %v", pair[0], pair[1], err)
		}
	}

	rejected := [][2]KOTStatus{
		{KOTPending, KOTReady},
		{KOTReady, KOTPreparing},
		{KOTServed, KOTCancelled},
		{KOTCancelled, KOTCancelled},
		{KOTAccepted, KOTServed},
	}
	for _, pair := range rejected {
		if err := ValidateKOTTransition(pair[0], pair[1]); err == nil {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestApplyPaid(t *testing.T) {
	order := Order{TotalAmount: decimal.NewFromInt(1035)}

	order.ApplyPaid(decimal.NewFromInt(500))
	if !order.DueAmount.Equal(decimal.NewFromInt(535)) {
		t.Fatalf("expected due 535, got %s", order.DueAmount)
	}

	order.ApplyPaid(decimal.NewFromInt(1100))
	if !order.DueAmount.IsZero() {
		t.Fatalf("expected due clamped at zero, got %s", order.DueAmount)
	}
	if !order.ChangeAmount.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("expected change 65, got %s", order.ChangeAmount)
	}
	if !order.PaidAmount.Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("expected literal paid total, got %s", order.PaidAmount)
	}
}

func TestComputeLineTotal(t *testing.T) {
	got := ComputeLineTotal(decimal.RequireFromString("120.50"), decimal.RequireFromString("15"), 3)
	if !got.Equal(decimal.RequireFromString("406.50")) {
		t.Fatalf("expected 406.50, got %s", got)
	}
}
