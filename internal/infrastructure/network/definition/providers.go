package networkdefinition

import (
	"tvl_engine/internal/app/port"
	"tvl_engine/internal/domain/entity"
	"tvl_engine/internal/infrastructure/configloader"
)

// LedgerDefinitionProvider provides ledger definitions, merging the hardcoded
// defaults with overrides from the loaded configuration.
type LedgerDefinitionProvider struct {
	logger port.Logger
	defs   map[entity.Ledger]entity.LedgerDefinition
}

// Predefined ledger definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.LedgerDefinition{
		Ledger:          entity.LedgerEthereum,
		Name:            "Ethereum Mainnet",
		ChainID:         1,
		RPCURL:          "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs: []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		OraclePlatform:  "ethereum",
	}
	BSC = entity.LedgerDefinition{
		Ledger:          entity.LedgerBSC,
		Name:            "BNB Smart Chain",
		ChainID:         56,
		RPCURL:          "https://1rpc.io/bnb",
		FallbackRPCURLs: []string{"https://bsc-dataseed2.binance.org/", "https://bsc.publicnode.com"},
		OraclePlatform:  "binance-smart-chain",
	}
)

// NewLedgerDefinitionProvider creates a provider seeded with the known ledgers.
// Config entries override RPC URLs and oracle platform ids per ledger.
func NewLedgerDefinitionProvider(cfg *configloader.Config, log port.Logger) *LedgerDefinitionProvider {
	p := &LedgerDefinitionProvider{
		logger: log,
		defs: map[entity.Ledger]entity.LedgerDefinition{
			entity.LedgerEthereum: Ethereum,
			entity.LedgerBSC:      BSC,
		},
	}

	if cfg == nil {
		return p
	}
	for _, node := range cfg.Ledgers {
		ledger := entity.Ledger(node.Name)
		def, ok := p.defs[ledger]
		if !ok {
			p.logger.Warn("Config references unknown ledger, skipping", "ledger", node.Name)
			continue
		}
		if node.RPCURL != "" {
			def.RPCURL = node.RPCURL
		}
		if len(node.FallbackRPCURLs) > 0 {
			def.FallbackRPCURLs = node.FallbackRPCURLs
		}
		if node.OraclePlatform != "" {
			def.OraclePlatform = node.OraclePlatform
		}
		if node.ChainID != 0 {
			def.ChainID = node.ChainID
		}
		p.defs[ledger] = def
		p.logger.Debug("Ledger definition overridden from config", "ledger", node.Name, "rpc", def.RPCURL)
	}
	return p
}

// GetLedgerDefinition returns the definition for a ledger and true if known.
func (p *LedgerDefinitionProvider) GetLedgerDefinition(ledger entity.Ledger) (entity.LedgerDefinition, bool) {
	if p == nil {
		return entity.LedgerDefinition{}, false
	}
	def, ok := p.defs[ledger]
	return def, ok
}

// GetAllLedgerDefinitions returns every configured ledger definition.
func (p *LedgerDefinitionProvider) GetAllLedgerDefinitions() []entity.LedgerDefinition {
	if p == nil {
		return nil
	}
	defs := make([]entity.LedgerDefinition, 0, len(p.defs))
	for _, def := range p.defs {
		defs = append(defs, def)
	}
	return defs
}
