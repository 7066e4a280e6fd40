package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_checker/internal/domain/entity"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "check", "health"}, names)

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, defaultConfigPath, flag.DefValue)

	check, _, err := root.Find([]string{"check"})
	require.NoError(t, err)
	assert.NotNil(t, check.Flags().Lookup("chain"))
	assert.NotNil(t, check.Flags().Lookup("wallets"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, entity.DeFiPosition{
		Chain:        "Ethereum",
		PositionType: entity.PositionLiquidityPool,
		Underlying:   "USDC/WETH",
		Amount:       decimal.RequireFromString("1.5"),
		ValueUSD:     decimal.RequireFromString("1500.75"),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"positionType": "liquidity_pool"`)
	assert.Contains(t, out, `"valueUsd": "1500.75"`)
	assert.Contains(t, out, "\n  \"chain\": \"Ethereum\"")
}
