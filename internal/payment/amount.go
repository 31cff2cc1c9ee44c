package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnits converts a string decimal amount ("1500.50") to integer minor
// units (150050). Amounts are carried as string decimals end to end to avoid
// float error; this is the single conversion point to provider wire formats.
func MinorUnits(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Message: fmt.Sprintf("invalid decimal amount %q", amount)}
	}
	if d.IsNegative() {
		return 0, &ValidationError{Field: "amount", Message: "amount cannot be negative"}
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// FormatMinorUnits renders integer minor units back to a string decimal with
// two fraction digits, the persisted totalAmount format.
func FormatMinorUnits(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}
