package billing

import (
	"sort"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type ChargeKind string

const (
	ChargeFlat       ChargeKind = "flat"
	ChargePercentage ChargeKind = "percentage"
)

type Charge struct {
	Kind  ChargeKind
	Value decimal.Decimal
}

type TaxComponent struct {
	Name string
	Rate decimal.Decimal // percent, e.g. 2.5
}

type TaxGroup struct {
	ID         int64
	Name       string
	Components []TaxComponent
}

// Config is the outlet-level charge configuration for one order type.
type Config struct {
	TaxGroups       map[int64]TaxGroup
	ServiceCharge   Charge
	PackagingCharge decimal.Decimal
	DeliveryCharge  decimal.Decimal
}

type Line struct {
	LineTotal  decimal.Decimal
	TaxGroupID *int64
}

type Input struct {
	Lines           []Line
	PriceAdjustment decimal.Decimal
	Discounts       []domain.Discount
}

type Breakdown struct {
	ItemsMenuTotal  decimal.Decimal
	PriceAdjustment decimal.Decimal
	Subtotal        decimal.Decimal
	DiscountAmounts []decimal.Decimal
	DiscountTotal   decimal.Decimal
	TaxLines        []domain.TaxLine
	TotalTax        decimal.Decimal
	ServiceCharge   decimal.Decimal
	PackagingCharge decimal.Decimal
	DeliveryCharge  decimal.Decimal
	RawTotal        decimal.Decimal
	RoundOff        decimal.Decimal
	GrandTotal      decimal.Decimal
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ItemsTotal sums the line totals.
func ItemsTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return money(total)
}

// Compute runs the full bill computation: subtotal, discounts, per-group tax
// on the discounted taxable amount, service charge, fixed charges and
// whole-unit round off.
func Compute(in Input, cfg Config) (Breakdown, error) {
	var b Breakdown
	b.ItemsMenuTotal = ItemsTotal(in.Lines)
	b.PriceAdjustment = money(in.PriceAdjustment)
	b.Subtotal = money(b.ItemsMenuTotal.Add(b.PriceAdjustment))
	if b.Subtotal.IsNegative() {
		return Breakdown{}, apperr.Validation("", "price adjustment exceeds items total", map[string]any{
			"itemsTotal":      b.ItemsMenuTotal.StringFixed(2),
			"priceAdjustment": b.PriceAdjustment.StringFixed(2),
		})
	}

	amounts, total, err := ComputeDiscounts(b.Subtotal, in.Discounts)
	if err != nil {
		return Breakdown{}, err
	}
	b.DiscountAmounts = amounts
	b.DiscountTotal = total

	b.TaxLines = computeTax(in.Lines, b.ItemsMenuTotal, b.DiscountTotal, cfg.TaxGroups)
	b.TotalTax = decimal.Zero
	for _, l := range b.TaxLines {
		b.TotalTax = b.TotalTax.Add(l.Amount)
	}

	netSubtotal := b.Subtotal.Sub(b.DiscountTotal)
	b.ServiceCharge = serviceCharge(cfg.ServiceCharge, netSubtotal)
	b.PackagingCharge = money(cfg.PackagingCharge)
	b.DeliveryCharge = money(cfg.DeliveryCharge)

	b.RawTotal = netSubtotal.Add(b.TotalTax).Add(b.ServiceCharge).Add(b.PackagingCharge).Add(b.DeliveryCharge)
	b.RoundOff = b.RawTotal.Round(0).Sub(b.RawTotal)
	b.GrandTotal = b.RawTotal.Add(b.RoundOff)
	return b, nil
}

// ComputeDiscounts resolves each discount against subtotal in application
// order. Percentages are taken off the subtotal, flats are absolute; the
// running sum may never exceed the subtotal and nothing may follow a 100%
// discount.
func ComputeDiscounts(subtotal decimal.Decimal, discounts []domain.Discount) ([]decimal.Decimal, decimal.Decimal, error) {
	amounts := make([]decimal.Decimal, 0, len(discounts))
	total := decimal.Zero
	fullyDiscounted := false

	for i, d := range discounts {
		if fullyDiscounted {
			return nil, decimal.Zero, apperr.Validation(apperr.CodeDiscountLocked, "a 100% discount is already applied; no further discount allowed", map[string]any{
				"index": i,
			})
		}
		amount, err := discountAmount(subtotal, d)
		if err != nil {
			return nil, decimal.Zero, err
		}
		remaining := subtotal.Sub(total)
		if amount.GreaterThan(remaining) {
			return nil, decimal.Zero, apperr.Validation(apperr.CodeDiscountExceeds, "discount exceeds remaining subtotal", map[string]any{
				"subtotal":  subtotal.StringFixed(2),
				"remaining": remaining.StringFixed(2),
				"requested": amount.StringFixed(2),
			})
		}
		if d.Type == domain.DiscountPercentage && d.Value.Equal(hundred) {
			fullyDiscounted = true
		}
		total = total.Add(amount)
		amounts = append(amounts, amount)
	}
	return amounts, money(total), nil
}

func discountAmount(subtotal decimal.Decimal, d domain.Discount) (decimal.Decimal, error) {
	if !d.Type.Valid() {
		return decimal.Zero, apperr.Validation("", "discount type must be percentage or flat", map[string]any{"type": d.Type})
	}
	value := money(d.Value)
	if !value.IsPositive() {
		return decimal.Zero, apperr.Validation("", "discount value must be positive", map[string]any{"value": d.Value.String()})
	}
	if d.Type == domain.DiscountPercentage {
		if value.GreaterThan(hundred) {
			return decimal.Zero, apperr.Validation("", "percentage discount cannot exceed 100", map[string]any{"value": d.Value.String()})
		}
		return money(subtotal.Mul(value).Div(hundred)), nil
	}
	return value, nil
}

type groupTotal struct {
	id    int64
	total decimal.Decimal
}

func computeTax(lines []Line, itemsTotal, discountTotal decimal.Decimal, groups map[int64]TaxGroup) []domain.TaxLine {
	byGroup := make(map[int64]decimal.Decimal)
	for _, l := range lines {
		if l.TaxGroupID == nil {
			continue
		}
		if _, ok := groups[*l.TaxGroupID]; !ok {
			continue
		}
		byGroup[*l.TaxGroupID] = byGroup[*l.TaxGroupID].Add(l.LineTotal)
	}
	if len(byGroup) == 0 {
		return nil
	}

	ordered := make([]groupTotal, 0, len(byGroup))
	for id, total := range byGroup {
		ordered = append(ordered, groupTotal{id: id, total: total})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

	// Discount is shared proportionally across all item lines, taxed or not;
	// the last taxed group absorbs the rounding remainder of the taxed share.
	taxedTotal := decimal.Zero
	for _, g := range ordered {
		taxedTotal = taxedTotal.Add(g.total)
	}
	taxedDiscount := decimal.Zero
	if itemsTotal.IsPositive() {
		taxedDiscount = money(discountTotal.Mul(taxedTotal).Div(itemsTotal))
	}

	out := make([]domain.TaxLine, 0)
	allocated := decimal.Zero
	for i, g := range ordered {
		share := decimal.Zero
		if taxedTotal.IsPositive() {
			if i == len(ordered)-1 {
				share = taxedDiscount.Sub(allocated)
			} else {
				share = money(taxedDiscount.Mul(g.total).Div(taxedTotal))
			}
		}
		allocated = allocated.Add(share)
		taxable := money(g.total.Sub(share))
		if taxable.IsNegative() {
			taxable = decimal.Zero
		}
		group := groups[g.id]
		for _, c := range group.Components {
			out = append(out, domain.TaxLine{
				GroupID:       group.ID,
				GroupName:     group.Name,
				Component:     c.Name,
				Rate:          c.Rate,
				TaxableAmount: taxable,
				Amount:        money(taxable.Mul(c.Rate).Div(hundred)),
			})
		}
	}
	return out
}

func serviceCharge(c Charge, base decimal.Decimal) decimal.Decimal {
	if !c.Value.IsPositive() {
		return decimal.Zero
	}
	if c.Kind == ChargePercentage {
		return money(base.Mul(c.Value).Div(hundred))
	}
	return money(c.Value)
}

// RunningTotals computes pre-bill totals: subtotal and discounts only, no
// tax, charges or rounding.
func RunningTotals(in Input) (Breakdown, error) {
	b, err := Compute(in, Config{})
	if err != nil {
		return Breakdown{}, err
	}
	b.RoundOff = decimal.Zero
	b.GrandTotal = b.RawTotal
	return b, nil
}
