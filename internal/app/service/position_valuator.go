package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"portfolio_checker/internal/app/port"
)

// positionValuator implements port.PositionValuator.
type positionValuator struct {
	oracle          port.PriceOracle
	basketEstimates map[string]decimal.Decimal
	logger          port.Logger
}

// NewPositionValuator creates a valuator. basketEstimates holds the per-unit USD estimate
// of basket receipts keyed by symbol (e.g. GLP: 1.0).
func NewPositionValuator(oracle port.PriceOracle, basketEstimates map[string]float64, log port.Logger) port.PositionValuator {
	estimates := make(map[string]decimal.Decimal, len(basketEstimates))
	for symbol, estimate := range basketEstimates {
		estimates[strings.ToUpper(symbol)] = decimal.NewFromFloat(estimate)
	}
	return &positionValuator{oracle: oracle, basketEstimates: estimates, logger: log}
}

// Value returns the USD value of balance units of underlying. It never fails: unresolved
// prices contribute zero.
//
// Multi-asset descriptors ("A/B") are valued at the average of their resolved component
// prices. This approximates a pool share; it is not pool-composition accounting.
func (v *positionValuator) Value(ctx context.Context, underlying string, balance decimal.Decimal, protocolKey string) decimal.Decimal {
	if strings.Contains(underlying, "/") {
		return v.multiAssetValue(ctx, underlying, balance, protocolKey)
	}

	if estimate, ok := v.basketEstimates[strings.ToUpper(underlying)]; ok {
		return balance.Mul(estimate)
	}

	return balance.Mul(v.oracle.Price(ctx, underlying))
}

func (v *positionValuator) multiAssetValue(ctx context.Context, underlying string, balance decimal.Decimal, protocolKey string) decimal.Decimal {
	sum := decimal.Zero
	resolved := 0
	for _, component := range strings.Split(underlying, "/") {
		component = strings.TrimSpace(component)
		if component == "" {
			continue
		}
		price := v.oracle.Price(ctx, component)
		if !price.IsPositive() {
			v.logger.Debug("Skipping unpriced pool component", "component", component, "underlying", underlying, "protocol", protocolKey)
			continue
		}
		sum = sum.Add(price)
		resolved++
	}
	if resolved == 0 {
		v.logger.Warn("No component of multi-asset position could be priced", "underlying", underlying, "protocol", protocolKey)
		return decimal.Zero
	}
	return balance.Mul(sum).Div(decimal.NewFromInt(int64(resolved)))
}
