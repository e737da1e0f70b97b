package billing

import (
	"testing"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func gst5() TaxGroup {
	return TaxGroup{
		ID:   1,
		Name: "GST 5%",
		Components: []TaxComponent{
			{Name: "CGST", Rate: dec("2.5")},
			{Name: "SGST", Rate: dec("2.5")},
		},
	}
}

func groupID(id int64) *int64 {
	return &id
}

func TestComputeReferenceScenario(t *testing.T) {
	in := Input{
		Lines:     []Line{{LineTotal: dec("1000"), TaxGroupID: groupID(1)}},
		Discounts: []domain.Discount{{Type: domain.DiscountFlat, Value: dec("100")}},
	}
	cfg := Config{
		TaxGroups:     map[int64]TaxGroup{1: gst5()},
		ServiceCharge: Charge{Kind: ChargePercentage, Value: dec("10")},
	}

	b, err := Compute(in, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{name: "subtotal", got: b.Subtotal, expected: "1000"},
		{name: "discount", got: b.DiscountTotal, expected: "100"},
		{name: "tax", got: b.TotalTax, expected: "45"},
		{name: "service charge", got: b.ServiceCharge, expected: "90"},
		{name: "raw total", got: b.RawTotal, expected: "1035"},
		{name: "round off", got: b.RoundOff, expected: "0"},
		{name: "grand total", got: b.GrandTotal, expected: "1035"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.expected)) {
			t.Fatalf("%s: expected %s, got %s", c.name, c.expected, c.got)
		}
	}

	if len(b.TaxLines) != 2 {
		t.Fatalf("expected 2 tax lines, got %d", len(b.TaxLines))
	}
	for _, l := range b.TaxLines {
		if !l.TaxableAmount.Equal(dec("900")) {
			t.Fatalf("expected taxable 900, got %s", l.TaxableAmount)
		}
		if !l.Amount.Equal(dec("22.5")) {
			t.Fatalf("expected component tax 22.5, got %s", l.Amount)
		}
	}
}

func TestComputeRoundOff(t *testing.T) {
	in := Input{Lines: []Line{{LineTotal: dec("99.60"), TaxGroupID: groupID(1)}}}
	cfg := Config{TaxGroups: map[int64]TaxGroup{1: gst5()}}

	b, err := Compute(in, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 99.60 + 2.49 + 2.49 = 104.58 -> 105
	if !b.RawTotal.Equal(dec("104.58")) {
		t.Fatalf("expected raw 104.58, got %s", b.RawTotal)
	}
	if !b.RoundOff.Equal(dec("0.42")) {
		t.Fatalf("expected round off 0.42, got %s", b.RoundOff)
	}
	if !b.GrandTotal.Equal(dec("105")) {
		t.Fatalf("expected grand total 105, got %s", b.GrandTotal)
	}
}

func TestComputeSplitsDiscountAcrossGroups(t *testing.T) {
	gst18 := TaxGroup{ID: 2, Name: "GST 18%", Components: []TaxComponent{
		{Name: "CGST", Rate: dec("9")},
		{Name: "SGST", Rate: dec("9")},
	}}
	in := Input{
		Lines: []Line{
			{LineTotal: dec("600"), TaxGroupID: groupID(1)},
			{LineTotal: dec("300"), TaxGroupID: groupID(2)},
			{LineTotal: dec("100")},
		},
		Discounts: []domain.Discount{{Type: domain.DiscountPercentage, Value: dec("10")}},
	}
	cfg := Config{TaxGroups: map[int64]TaxGroup{1: gst5(), 2: gst18}}

	b, err := Compute(in, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.DiscountTotal.Equal(dec("100")) {
		t.Fatalf("expected discount 100, got %s", b.DiscountTotal)
	}

	taxable := map[int64]decimal.Decimal{}
	for _, l := range b.TaxLines {
		taxable[l.GroupID] = l.TaxableAmount
	}
	if !taxable[1].Equal(dec("540")) {
		t.Fatalf("expected group 1 taxable 540, got %s", taxable[1])
	}
	if !taxable[2].Equal(dec("270")) {
		t.Fatalf("expected group 2 taxable 270, got %s", taxable[2])
	}
	// 540*5% + 270*18% = 27 + 48.6
	if !b.TotalTax.Equal(dec("75.6")) {
		t.Fatalf("expected tax 75.6, got %s", b.TotalTax)
	}
}

func TestComputeDiscounts(t *testing.T) {
	subtotal := dec("1000")

	cases := []struct {
		name      string
		discounts []domain.Discount
		total     string
		code      apperr.Code
	}{
		{
			name:      "percentage and flat",
			discounts: []domain.Discount{{Type: domain.DiscountPercentage, Value: dec("10")}, {Type: domain.DiscountFlat, Value: dec("50")}},
			total:     "150",
		},
		{
			name:      "sum exceeds subtotal",
			discounts: []domain.Discount{{Type: domain.DiscountFlat, Value: dec("700")}, {Type: domain.DiscountFlat, Value: dec("400")}},
			code:      apperr.CodeDiscountExceeds,
		},
		{
			name:      "exactly subtotal",
			discounts: []domain.Discount{{Type: domain.DiscountFlat, Value: dec("600")}, {Type: domain.DiscountFlat, Value: dec("400")}},
			total:     "1000",
		},
		{
			name:      "nothing after full percentage",
			discounts: []domain.Discount{{Type: domain.DiscountPercentage, Value: dec("100")}, {Type: domain.DiscountFlat, Value: dec("1")}},
			code:      apperr.CodeDiscountLocked,
		},
		{
			name:      "percentage over 100",
			discounts: []domain.Discount{{Type: domain.DiscountPercentage, Value: dec("120")}},
			code:      apperr.CodeValidation,
		},
		{
			name:      "flat rounds to zero",
			discounts: []domain.Discount{{Type: domain.DiscountFlat, Value: dec("0.004")}},
			code:      apperr.CodeValidation,
		},
		{
			name:      "percentage rounds to zero",
			discounts: []domain.Discount{{Type: domain.DiscountPercentage, Value: dec("0.001")}},
			code:      apperr.CodeValidation,
		},
		{
			name:      "non positive value",
			discounts: []domain.Discount{{Type: domain.DiscountFlat, Value: dec("0")}},
			code:      apperr.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, total, err := ComputeDiscounts(subtotal, tc.discounts)
			if tc.code != "" {
				appErr, ok := apperr.As(err)
				if !ok {
					t.Fatalf("expected app error, got %v", err)
				}
				if appErr.Kind != apperr.KindValidation || appErr.Code != tc.code {
					t.Fatalf("expected validation %s, got %s %s", tc.code, appErr.Kind, appErr.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !total.Equal(dec(tc.total)) {
				t.Fatalf("expected %s, got %s", tc.total, total)
			}
		})
	}
}

func TestExceedsMessage(t *testing.T) {
	_, _, err := ComputeDiscounts(dec("100"), []domain.Discount{
		{Type: domain.DiscountFlat, Value: dec("60")},
		{Type: domain.DiscountFlat, Value: dec("60")},
	})
	if err == nil || err.Error() != "discount exceeds remaining subtotal" {
		t.Fatalf("expected exceeds message, got %v", err)
	}
}

func TestFlatServiceChargeAndFixedCharges(t *testing.T) {
	in := Input{Lines: []Line{{LineTotal: dec("250")}}}
	cfg := Config{
		ServiceCharge:   Charge{Kind: ChargeFlat, Value: dec("20")},
		PackagingCharge: dec("15"),
		DeliveryCharge:  dec("40"),
	}
	b, err := Compute(in, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.GrandTotal.Equal(dec("325")) {
		t.Fatalf("expected 325, got %s", b.GrandTotal)
	}
}

func TestRunningTotalsSkipRounding(t *testing.T) {
	b, err := RunningTotals(Input{Lines: []Line{{LineTotal: dec("406.50")}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.RoundOff.IsZero() || !b.GrandTotal.Equal(dec("406.50")) {
		t.Fatalf("expected unrounded 406.50, got %s (round off %s)", b.GrandTotal, b.RoundOff)
	}
}

func TestNegativeAdjustmentBeyondItems(t *testing.T) {
	_, err := Compute(Input{Lines: []Line{{LineTotal: dec("50")}}, PriceAdjustment: dec("-60")}, Config{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
