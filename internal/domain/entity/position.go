package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PositionType is the economic category of a DeFi position.
type PositionType int

const (
	PositionOther PositionType = iota
	PositionSupply
	PositionBorrow
	PositionLiquidityPool
	PositionStaking
	PositionVault
	PositionBasket
)

var positionTypeNames = map[PositionType]string{
	PositionOther:         "other",
	PositionSupply:        "supply",
	PositionBorrow:        "borrow",
	PositionLiquidityPool: "liquidity_pool",
	PositionStaking:       "staking",
	PositionVault:         "vault",
	PositionBasket:        "basket",
}

func (t PositionType) String() string {
	if name, ok := positionTypeNames[t]; ok {
		return name
	}
	return positionTypeNames[PositionOther]
}

// ParsePositionType maps a catalog/config name onto a PositionType.
func ParsePositionType(s string) (PositionType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	if normalized == "" {
		return PositionOther, nil
	}
	for t, name := range positionTypeNames {
		if name == normalized {
			return t, nil
		}
	}
	return PositionOther, fmt.Errorf("unknown position type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t PositionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PositionType) UnmarshalText(text []byte) error {
	parsed, err := ParsePositionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DeFiPosition is a protocol position held by an address.
// Debt positions carry negative Amount and ValueUSD so they net against supply in totals.
type DeFiPosition struct {
	Chain        string          `json:"chain"`
	Protocol     string          `json:"protocol"`
	ProtocolKey  string          `json:"protocolKey"`
	PositionType PositionType    `json:"positionType"`
	Underlying   string          `json:"token"`
	DisplayToken string          `json:"tokenDisplay"`
	Amount       decimal.Decimal `json:"amount"`
	ValueUSD     decimal.Decimal `json:"valueUsd"`
	IsDebt       bool            `json:"isDebt"`
}

// ProtocolPositionDescriptor describes how positions of a protocol are presented.
type ProtocolPositionDescriptor struct {
	Key                 string       `json:"key" yaml:"-"`
	DisplayName         string       `json:"displayName" yaml:"displayName"`
	DefaultPositionType PositionType `json:"positionType" yaml:"positionType"`
}
