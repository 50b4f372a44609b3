package entity

// CallResult is the outcome of one target inside a batched on-chain call.
// Result slices are not guaranteed to match the input order and failed targets
// may be missing entirely, so consumers must key results by Target.
type CallResult struct {
	Target  string
	Success bool
	Output  string
}

// TokenMetadata holds resolved on-chain metadata for one ledger bucket.
// Entries exist only for targets whose call succeeded; a missing entry means
// "unresolved", never zero.
type TokenMetadata struct {
	Decimals map[string]uint8
	Symbols  map[string]string
}

// Price is a USD unit price as reported by the price oracle.
type Price struct {
	USD float64 `json:"usd"`
}

// PriceMap maps a lowercased address or oracle id to its USD price. Absence
// means "no price known", not "price is zero".
type PriceMap map[string]Price
