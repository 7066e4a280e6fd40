package catalogloader

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
)

//go:embed default_catalog.yml
var defaultCatalog []byte

type catalogFile struct {
	Protocols map[string]entity.ProtocolPositionDescriptor `yaml:"protocols"`
	Chains    map[string]chainFile                         `yaml:"chains"`
}

type chainFile struct {
	Tokens []entity.TokenInfo `yaml:"tokens"`
	// Positions is decoded as a node so protocol order follows the document.
	Positions yaml.Node `yaml:"positions"`
}

// StaticCatalog implements port.CatalogProvider over a catalog loaded once at startup.
type StaticCatalog struct {
	catalog *entity.PositionCatalog
}

// Load reads the catalog at path, or the embedded default catalog when path is empty.
func Load(path string, log port.Logger) (*StaticCatalog, error) {
	data := defaultCatalog
	source := "embedded"
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
		}
		data = fileData
		source = path
	}

	catalog, err := Parse(data, log)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", source, err)
	}

	tokens, positions := 0, 0
	for _, chain := range catalog.Chains {
		tokens += len(chain.Tokens)
		for _, p := range chain.Protocols {
			positions += len(p.Tokens)
		}
	}
	log.Info("Position catalog loaded",
		"source", source,
		"chains", len(catalog.Chains),
		"protocols", len(catalog.Protocols),
		"tokens", tokens,
		"positions", positions)

	return &StaticCatalog{catalog: catalog}, nil
}

// Catalog returns the loaded catalog. Callers must not mutate it.
func (c *StaticCatalog) Catalog() *entity.PositionCatalog {
	return c.catalog
}

// Parse decodes a catalog document. Entries with malformed addresses are dropped with a warning.
func Parse(data []byte, log port.Logger) (*entity.PositionCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	catalog := &entity.PositionCatalog{
		Protocols: make(map[string]entity.ProtocolPositionDescriptor, len(file.Protocols)),
		Chains:    make(map[string]entity.ChainCatalog, len(file.Chains)),
	}
	for key, descriptor := range file.Protocols {
		descriptor.Key = key
		if descriptor.DisplayName == "" {
			descriptor.DisplayName = key
		}
		catalog.Protocols[key] = descriptor
	}

	for chainID, chain := range file.Chains {
		chainID = strings.ToLower(chainID)
		chainCatalog := entity.ChainCatalog{
			Tokens: make([]entity.TokenInfo, 0, len(chain.Tokens)),
		}
		for _, token := range chain.Tokens {
			if !validAddress(token.Address) {
				log.Warn("Invalid token address in catalog, skipping", "chain", chainID, "symbol", token.Symbol, "address", token.Address)
				continue
			}
			chainCatalog.Tokens = append(chainCatalog.Tokens, token)
		}

		protocols, err := decodePositions(&chain.Positions)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", chainID, err)
		}
		for _, protocol := range protocols {
			valid := make([]entity.PositionToken, 0, len(protocol.Tokens))
			for _, token := range protocol.Tokens {
				if !validAddress(token.Address) {
					log.Warn("Invalid position address in catalog, skipping",
						"chain", chainID, "protocol", protocol.ProtocolKey, "symbol", token.Symbol, "address", token.Address)
					continue
				}
				if (token.BalanceContract == "") != (token.BalanceMethod == "") || (token.BalanceContract != "" && !validAddress(token.BalanceContract)) {
					log.Warn("Incomplete custom balance method in catalog, using balanceOf",
						"chain", chainID, "symbol", token.Symbol)
					token.BalanceContract, token.BalanceMethod = "", ""
				}
				valid = append(valid, token)
			}
			if _, known := catalog.Protocols[protocol.ProtocolKey]; !known {
				log.Debug("Protocol has no descriptor, positions will be typed as other",
					"chain", chainID, "protocol", protocol.ProtocolKey)
			}
			chainCatalog.Protocols = append(chainCatalog.Protocols, entity.ProtocolPositions{
				ProtocolKey: protocol.ProtocolKey,
				Tokens:      valid,
			})
		}

		catalog.Chains[chainID] = chainCatalog
	}

	return catalog, nil
}

func decodePositions(node *yaml.Node) ([]entity.ProtocolPositions, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("positions must be a mapping, line %d", node.Line)
	}

	protocols := make([]entity.ProtocolPositions, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var tokens []entity.PositionToken
		if err := node.Content[i+1].Decode(&tokens); err != nil {
			return nil, fmt.Errorf("protocol %s: %w", key, err)
		}
		protocols = append(protocols, entity.ProtocolPositions{ProtocolKey: key, Tokens: tokens})
	}
	return protocols, nil
}

func validAddress(address string) bool {
	return common.IsHexAddress(strings.TrimSpace(address))
}
