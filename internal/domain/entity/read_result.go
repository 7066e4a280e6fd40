package entity

import (
	"math/big"

	"github.com/shopspring/decimal"

	"portfolio_checker/internal/pkg/utils"
)

// ReadStatus is the outcome of a single contract read.
type ReadStatus int

const (
	// ReadOK means the call succeeded with a non-zero balance.
	ReadOK ReadStatus = iota
	// ReadZero means the call succeeded and the balance is zero.
	ReadZero
	// ReadFailed means the call reverted, timed out or returned malformed data.
	ReadFailed
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadZero:
		return "zero"
	default:
		return "failed"
	}
}

// ReadResult is the tagged result of a balance read. Zero and failed reads are
// kept apart so callers can report them differently even though neither produces an entity.
type ReadResult struct {
	Status   ReadStatus
	Raw      *big.Int
	Decimals uint8
	Symbol   string
	Name     string
	Err      error
}

// Amount converts the raw integer balance into a decimal using Decimals.
func (r ReadResult) Amount() decimal.Decimal {
	return utils.BigIntToDecimal(r.Raw, r.Decimals)
}

// NewReadResult classifies a successfully read raw balance as OK or Zero.
func NewReadResult(raw *big.Int, decimals uint8) ReadResult {
	if raw == nil || raw.Sign() == 0 {
		return ReadResult{Status: ReadZero, Raw: big.NewInt(0), Decimals: decimals}
	}
	return ReadResult{Status: ReadOK, Raw: raw, Decimals: decimals}
}

// FailedRead wraps err into a failed ReadResult.
func FailedRead(err error) ReadResult {
	return ReadResult{Status: ReadFailed, Err: err}
}
