package utils

import (
	"github.com/shopspring/decimal"
)

// Money is stored as decimal dollars everywhere except the payment-processor
// boundary, which speaks integer cents. These helpers do the conversion at
// that edge.

// CentsToDecimal converts integer cents to a decimal dollar amount
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

// DecimalToCents converts a decimal dollar amount to integer cents,
// truncating any sub-cent precision
func DecimalToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
