package utils

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBatchStrings(t *testing.T) {
	assert.Equal(t, [][]string{}, BatchStrings(nil, 3))
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, BatchStrings([]string{"a", "b", "c"}, 2))
	assert.Equal(t, [][]string{{"a", "b", "c"}}, BatchStrings([]string{"a", "b", "c"}, 0))
}

func TestUniqueLower(t *testing.T) {
	got := UniqueLower([]string{"Ethereum", "", "ethereum", " tether ", "USD-Coin"})
	assert.Equal(t, []string{"ethereum", "tether", "usd-coin"}, got)
}

func TestFormatBigInt(t *testing.T) {
	raw, ok := new(big.Int).SetString("1234500000000000000", 10)
	assert.True(t, ok)
	assert.Equal(t, "1.2345", FormatBigInt(raw, 18))
	assert.Equal(t, "1500", FormatBigInt(big.NewInt(1500), 0))
	assert.Equal(t, "0", FormatBigInt(nil, 6))
}

func TestBigIntToDecimal(t *testing.T) {
	got := BigIntToDecimal(big.NewInt(2500000), 6)
	assert.True(t, decimal.RequireFromString("2.5").Equal(got))
}

func TestSumDecimals(t *testing.T) {
	got := SumDecimals(decimal.NewFromInt(3), decimal.RequireFromString("-1.5"), decimal.Zero)
	assert.True(t, decimal.RequireFromString("1.5").Equal(got))
}
