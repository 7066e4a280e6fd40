package port

import (
	"context"

	"github.com/shopspring/decimal"

	"portfolio_checker/internal/domain/entity"
)

// TokenClassifier derives the underlying asset of a protocol receipt or debt token.
type TokenClassifier interface {
	Classify(tokenName string, protocolKey string) (underlying string, isDebt bool)
	PositionTypeFor(protocolKey string, underlying string, isDebt bool) entity.PositionType
	Descriptor(protocolKey string) entity.ProtocolPositionDescriptor
}

// PositionValuator estimates the USD value of a position balance.
type PositionValuator interface {
	Value(ctx context.Context, underlying string, balance decimal.Decimal, protocolKey string) decimal.Decimal
}

// CatalogProvider exposes the static catalog of tokens and protocol positions.
type CatalogProvider interface {
	Catalog() *entity.PositionCatalog
}
