package entity

// Ledger identifies a blockchain network recognized by the valuation pipeline.
type Ledger string

const (
	// LedgerEthereum is the primary ledger. Keys starting with "0x" resolve here.
	LedgerEthereum Ledger = "ethereum"
	// LedgerBSC is the secondary ledger. Keys carry the "bsc:" prefix.
	LedgerBSC Ledger = "bsc"
)

// ZeroAddress represents the EVM zero address, used as the native-asset sentinel.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NativeAssetID is the canonical oracle id the zero-address balance is rewritten to.
const NativeAssetID = "ethereum"

// SecondaryLedgerPrefix marks a token key as belonging to the secondary ledger.
const SecondaryLedgerPrefix = "bsc:"

// LedgerDefinition holds the connection details for one configured ledger.
type LedgerDefinition struct {
	Ledger          Ledger
	Name            string
	ChainID         uint64
	RPCURL          string
	FallbackRPCURLs []string
	// OraclePlatform is the price oracle's asset-platform id for contract
	// address lookups on this ledger (e.g. "ethereum", "binance-smart-chain").
	OraclePlatform string
}
