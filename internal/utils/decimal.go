package utils

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// NumericToDecimal converts a Postgres numeric column into a decimal. NULL
// and NaN read as zero.
func NumericToDecimal(value pgtype.Numeric) decimal.Decimal {
	if !value.Valid || value.NaN || value.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value.Int, value.Exp)
}

func DecimalToNumeric(value decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: value.Coefficient(), Exp: value.Exponent(), Valid: true}
}

// Money formats an amount the way it goes over the wire: two decimals.
func Money(value decimal.Decimal) string {
	return value.StringFixed(2)
}

// ParseMoney accepts a decimal string; empty means zero.
func ParseMoney(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
