package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Balances and transaction amounts are stored as int64 kobo (100 kobo = 1
// NGN). The payment processor speaks major-unit naira as JSON numbers, so
// conversion happens here, at the boundary, and nowhere else.

const minorPerMajor = 100

var minorFactor = decimal.NewFromInt(minorPerMajor)

// FromMajor converts a major-unit decimal amount into kobo. Amounts with
// sub-kobo precision are rejected rather than rounded.
func FromMajor(major decimal.Decimal) (int64, error) {
	minor := major.Mul(minorFactor)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-kobo precision", major)
	}
	return minor.IntPart(), nil
}

// FromMajorFloat converts a major-unit JSON number into kobo.
func FromMajorFloat(major float64) (int64, error) {
	return FromMajor(decimal.NewFromFloat(major))
}

// ToMajor converts kobo into a major-unit decimal amount.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorFactor)
}

// FormatMajor renders kobo as a major-unit string with two decimal places,
// e.g. 50050 -> "500.50".
func FormatMajor(minor int64) string {
	return ToMajor(minor).StringFixed(2)
}
