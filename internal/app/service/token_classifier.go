package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
)

// defaultChainTags are the Aave market tags used in receipt and debt token names.
var defaultChainTags = []string{"Eth", "Arb", "Pol", "Ava", "Bnb"}

var debtPrefixes = []string{"variableDebt", "stableDebt"}

// specialTokens maps receipt names that carry no strippable prefix to their underlying.
var specialTokens = map[string]string{
	"3pool":   "DAI/USDC/USDT",
	"am3CRV":  "DAI/USDC/USDT",
	"stETH":   "stETH",
	"wstETH":  "wstETH",
	"rETH":    "rETH",
	"GLP":     "GLP",
	"tBTC":    "tBTC",
	"stVERSE": "VERSE",
	"vTeam":   "VERSE",
	"cvxCRV":  "CRV",
	"xSUSHI":  "SUSHI",
}

// tokenClassifier implements port.TokenClassifier.
type tokenClassifier struct {
	catalog    *entity.PositionCatalog
	chainTags  []string
	basketTags map[string]struct{}
}

// NewTokenClassifier creates a classifier. chainTags extends the built-in market tags and
// basketTags lists underlying symbols valued as baskets (e.g. GLP).
func NewTokenClassifier(catalog *entity.PositionCatalog, chainTags []string, basketTags []string) port.TokenClassifier {
	tags := append([]string(nil), defaultChainTags...)
	for _, tag := range chainTags {
		if tag != "" && !containsString(tags, tag) {
			tags = append(tags, tag)
		}
	}
	baskets := make(map[string]struct{}, len(basketTags))
	for _, tag := range basketTags {
		baskets[strings.ToUpper(tag)] = struct{}{}
	}
	return &tokenClassifier{catalog: catalog, chainTags: tags, basketTags: baskets}
}

// Classify derives the underlying asset of tokenName held in protocolKey.
// It never fails: unrecognized names are returned unchanged.
func (c *tokenClassifier) Classify(tokenName string, protocolKey string) (string, bool) {
	name := strings.TrimSpace(tokenName)
	isDebt := strings.HasSuffix(protocolKey, "_debt") || strings.Contains(strings.ToLower(name), "debt")

	for _, prefix := range debtPrefixes {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" {
			return c.stripChainTag(rest), true
		}
	}

	residual := c.stripSupplyPrefix(name, baseProtocol(protocolKey))

	if pair, ok := poolPair(residual); ok {
		return pair, isDebt
	}
	if underlying, ok := specialTokens[residual]; ok {
		return underlying, isDebt
	}
	return residual, isDebt
}

// PositionTypeFor picks the position type of a classified position.
func (c *tokenClassifier) PositionTypeFor(protocolKey string, underlying string, isDebt bool) entity.PositionType {
	if isDebt {
		return entity.PositionBorrow
	}
	if _, ok := c.basketTags[strings.ToUpper(underlying)]; ok {
		return entity.PositionBasket
	}
	descriptor := c.Descriptor(protocolKey)
	if strings.Contains(underlying, "/") && descriptor.DefaultPositionType == entity.PositionOther {
		return entity.PositionLiquidityPool
	}
	return descriptor.DefaultPositionType
}

// Descriptor returns the catalog descriptor for protocolKey, or a title-cased Other descriptor.
func (c *tokenClassifier) Descriptor(protocolKey string) entity.ProtocolPositionDescriptor {
	if d, ok := c.catalog.Descriptor(protocolKey); ok {
		return d
	}
	return entity.ProtocolPositionDescriptor{
		Key:                 protocolKey,
		DisplayName:         titleCase(protocolKey),
		DefaultPositionType: entity.PositionOther,
	}
}

func (c *tokenClassifier) stripChainTag(name string) string {
	for _, tag := range c.chainTags {
		if rest, ok := strings.CutPrefix(name, tag); ok && rest != "" {
			return rest
		}
	}
	return name
}

func (c *tokenClassifier) stripSupplyPrefix(name string, protocol string) string {
	if rest, ok := strings.CutPrefix(name, "a"); ok {
		if stripped := c.stripChainTag(rest); stripped != rest {
			return stripped
		}
	}

	switch protocol {
	case "aave", "radiant":
		// Legacy market naming without a chain tag: aUSDC, aWETH.
		if rest, ok := strings.CutPrefix(name, "a"); ok && startsUpper(rest) {
			return rest
		}
	case "compound":
		if rest, ok := strings.CutPrefix(name, "c"); ok && startsUpper(rest) {
			return strings.TrimSuffix(rest, "v3")
		}
	case "venus":
		if rest, ok := strings.CutPrefix(name, "v"); ok && startsUpper(rest) {
			return rest
		}
	case "yearn":
		if rest, ok := strings.CutPrefix(name, "yv"); ok && startsUpper(rest) {
			return rest
		}
	}
	return name
}

// poolPair recognises "<A>-<B>-<fee>" pool names and Balancer weighted pools ("B-80BAL-20WETH").
func poolPair(name string) (string, bool) {
	parts := strings.Split(name, "-")
	if len(parts) < 2 {
		return "", false
	}
	if parts[0] == "B" && len(parts) >= 3 {
		assets := make([]string, 0, len(parts)-1)
		for _, part := range parts[1:] {
			asset := strings.TrimLeftFunc(part, unicode.IsDigit)
			if asset == "" {
				return "", false
			}
			assets = append(assets, asset)
		}
		return strings.Join(assets, "/"), true
	}
	if parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

// baseProtocol maps a debt protocol key onto its supply protocol ("aave_debt" -> "aave").
func baseProtocol(protocolKey string) string {
	return strings.TrimSuffix(protocolKey, "_debt")
}

func startsUpper(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsUpper(r)
}

func titleCase(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
