package domain

// TableFacts is everything a table's status may depend on.
type TableFacts struct {
	Current     TableStatus
	OpenSession bool
	KOTSent     bool
	Billed      bool
	Paid        bool
}

// RecomputeTableStatus is the only place table status is derived. A free
// table keeps a manual hold (reserved, cleaning, blocked) until staff clear it;
// settling the bill always releases the table.
func RecomputeTableStatus(f TableFacts) TableStatus {
	if f.Paid {
		return TableAvailable
	}
	if !f.OpenSession {
		if f.Current.IsManualHold() {
			return f.Current
		}
		return TableAvailable
	}
	switch {
	case f.Billed:
		return TableBilling
	case f.KOTSent:
		return TableRunning
	default:
		return TableOccupied
	}
}

// DeriveOrderStatus computes the order status from its tickets and items.
// Terminal statuses are sticky; billed wins over kitchen progress while an
// active invoice exists. Unsent items count as pending kitchen work once the
// order has at least one ticket.
func DeriveOrderStatus(current OrderStatus, billed bool, tickets []KOTTicket, items []OrderItem) OrderStatus {
	if current.IsTerminal() {
		return current
	}
	if billed {
		return OrderBilled
	}

	minRank, maxRank := -1, -1
	for _, t := range tickets {
		if t.Status == KOTCancelled {
			continue
		}
		r := kotRank[t.Status]
		if minRank == -1 || r < minRank {
			minRank = r
		}
		if r > maxRank {
			maxRank = r
		}
	}
	if minRank == -1 {
		return OrderPending
	}
	for _, it := range items {
		if it.Status == ItemPending {
			minRank = kotRank[KOTPending]
			break
		}
	}

	switch {
	case minRank <= kotRank[KOTAccepted]:
		if maxRank >= kotRank[KOTPreparing] {
			return OrderPreparing
		}
		return OrderConfirmed
	case minRank == kotRank[KOTPreparing]:
		return OrderPreparing
	case minRank == kotRank[KOTReady]:
		return OrderReady
	default:
		return OrderServed
	}
}

// ActiveItems filters out cancelled items.
func ActiveItems(items []OrderItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		if it.Status != ItemCancelled {
			out = append(out, it)
		}
	}
	return out
}

// AnyTicketSent reports whether at least one non-cancelled ticket exists.
func AnyTicketSent(tickets []KOTTicket) bool {
	for _, t := range tickets {
		if t.Status != KOTCancelled {
			return true
		}
	}
	return false
}
