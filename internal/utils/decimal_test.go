package utils

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func TestNumericRoundTrip(t *testing.T) {
	values := []string{"0", "1035", "22.50", "-0.37", "104.58"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		got := NumericToDecimal(DecimalToNumeric(d))
		if !got.Equal(d) {
			t.Fatalf("expected %s, got %s", d, got)
		}
	}
}

func TestNumericNullIsZero(t *testing.T) {
	if !NumericToDecimal(pgtype.Numeric{}).IsZero() {
		t.Fatal("expected NULL numeric to read as zero")
	}
}

func TestMoneyFormatting(t *testing.T) {
	if got := Money(decimal.RequireFromString("1035")); got != "1035.00" {
		t.Fatalf("expected 1035.00, got %s", got)
	}
	if _, err := ParseMoney("abc"); err == nil {
		t.Fatal("expected parse error")
	}
	if d, err := ParseMoney(""); err != nil || !d.IsZero() {
		t.Fatalf("expected zero for empty input, got %s %v", d, err)
	}
}
