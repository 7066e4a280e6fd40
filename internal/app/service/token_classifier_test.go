package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolio_checker/internal/domain/entity"
)

func testCatalog() *entity.PositionCatalog {
	return &entity.PositionCatalog{
		Protocols: map[string]entity.ProtocolPositionDescriptor{
			"aave":       {Key: "aave", DisplayName: "Aave V3", DefaultPositionType: entity.PositionSupply},
			"aave_debt":  {Key: "aave_debt", DisplayName: "Aave V3", DefaultPositionType: entity.PositionBorrow},
			"uniswap_v3": {Key: "uniswap_v3", DisplayName: "Uniswap V3", DefaultPositionType: entity.PositionLiquidityPool},
			"gmx":        {Key: "gmx", DisplayName: "GMX", DefaultPositionType: entity.PositionStaking},
			"sushiswap":  {Key: "sushiswap", DisplayName: "SushiSwap", DefaultPositionType: entity.PositionOther},
			"yearn":      {Key: "yearn", DisplayName: "Yearn", DefaultPositionType: entity.PositionVault},
		},
		Chains: map[string]entity.ChainCatalog{},
	}
}

func TestClassify(t *testing.T) {
	c := NewTokenClassifier(testCatalog(), nil, []string{"GLP"})

	cases := []struct {
		name       string
		token      string
		protocol   string
		underlying string
		isDebt     bool
	}{
		{"aave supply", "aEthUSDC", "aave", "USDC", false},
		{"aave debt", "variableDebtEthUSDT", "aave_debt", "USDT", true},
		{"uniswap pair", "USDC-WETH-005", "uniswap_v3", "USDC/WETH", false},
		{"stable debt", "stableDebtPolDAI", "aave_debt", "DAI", true},
		{"bsc market tag", "aBnbWBNB", "aave", "WBNB", false},
		{"debt without chain tag", "variableDebtWETH", "aave_debt", "WETH", true},
		{"lowercase underlying kept", "aEthcbETH", "aave", "cbETH", false},
		{"legacy aave token", "aUSDC", "aave", "USDC", false},
		{"compound v3", "cUSDCv3", "compound", "USDC", false},
		{"venus", "vBNB", "venus", "BNB", false},
		{"v prefix outside venus", "vTeam", "verse", "VERSE", false},
		{"yearn vault", "yvWETH", "yearn", "WETH", false},
		{"curve 3pool", "3pool", "curve", "DAI/USDC/USDT", false},
		{"polygon curve pool", "am3CRV", "curve", "DAI/USDC/USDT", false},
		{"convex receipt not treated as compound", "cvxCRV", "convex", "CRV", false},
		{"staked sushi", "xSUSHI", "sushiswap", "SUSHI", false},
		{"balancer weighted pool", "B-80BAL-20WETH", "balancer", "BAL/WETH", false},
		{"staking receipt identity", "stETH", "lido", "stETH", false},
		{"staked verse", "stVERSE", "verse", "VERSE", false},
		{"unknown passes through", "frxETH", "curve", "frxETH", false},
		{"debt protocol marks debt", "DEBTX", "radiant_debt", "DEBTX", true},
		{"debt in token name marks debt", "rDebtUSDC", "radiant", "rDebtUSDC", true},
		{"debt match ignores case", "spDEBTWETH", "spark", "spDEBTWETH", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			underlying, isDebt := c.Classify(tc.token, tc.protocol)
			assert.Equal(t, tc.underlying, underlying)
			assert.Equal(t, tc.isDebt, isDebt)
		})
	}
}

func TestClassifyExtraChainTag(t *testing.T) {
	c := NewTokenClassifier(testCatalog(), []string{"Opt"}, nil)

	underlying, isDebt := c.Classify("aOptUSDC", "aave")
	assert.Equal(t, "USDC", underlying)
	assert.False(t, isDebt)
}

func TestPositionTypeFor(t *testing.T) {
	c := NewTokenClassifier(testCatalog(), nil, []string{"GLP"})

	assert.Equal(t, entity.PositionBorrow, c.PositionTypeFor("aave", "USDC", true))
	assert.Equal(t, entity.PositionSupply, c.PositionTypeFor("aave", "USDC", false))
	assert.Equal(t, entity.PositionBasket, c.PositionTypeFor("gmx", "GLP", false))
	assert.Equal(t, entity.PositionStaking, c.PositionTypeFor("gmx", "GMX", false))
	assert.Equal(t, entity.PositionLiquidityPool, c.PositionTypeFor("sushiswap", "SUSHI/WETH", false))
	assert.Equal(t, entity.PositionVault, c.PositionTypeFor("yearn", "USDC", false))
	assert.Equal(t, entity.PositionOther, c.PositionTypeFor("mystery", "XYZ", false))
}

func TestDescriptorUnknownProtocol(t *testing.T) {
	c := NewTokenClassifier(testCatalog(), nil, nil)

	d := c.Descriptor("trader_joe")
	assert.Equal(t, "Trader Joe", d.DisplayName)
	assert.Equal(t, entity.PositionOther, d.DefaultPositionType)

	assert.Equal(t, "Aave V3", c.Descriptor("aave").DisplayName)
}
