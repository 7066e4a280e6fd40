package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BigIntToDecimal scales a raw on-chain integer by 10^decimals.
// Example: amount=1234500000000000000, decimals=18 => 1.2345
func BigIntToDecimal(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// FormatBigInt converts a raw integer into a human-readable string without trailing zeros.
func FormatBigInt(amount *big.Int, decimals uint8) string {
	return BigIntToDecimal(amount, decimals).String()
}

// SumDecimals adds up values.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
