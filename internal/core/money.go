// Package core holds the domain model shared by every service: entities,
// monetary helpers and the error taxonomy.
//
// Monetary amounts travel through the domain as shopspring decimals and are
// persisted as integer cents. Intermediate sums keep full precision; rounding
// to two decimal places happens only when a figure is emitted.
package core

import (
	"github.com/shopspring/decimal"
)

// CentsToAmount converts a persisted integer-cents value to a decimal amount.
func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// AmountToCents converts a decimal amount to integer cents for persistence.
// Amounts are validated to at most two decimal places on the way in, so the
// conversion is exact.
func AmountToCents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

// Round2 rounds to the cent using round-half-away-from-zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidateAmount enforces the invariant every monetary input obeys:
// strictly positive, at most two decimal places.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return Validation(CodeInvalidAmount, "amount must be greater than zero")
	}
	if !d.Equal(d.Round(2)) {
		return Validation(CodeInvalidAmount, "amount cannot have more than two decimal places")
	}
	return nil
}
