package service

import (
	"strings"

	"tvl_engine/internal/domain/entity"
)

// classifiedKeys partitions normalized balance keys into the three disjoint
// ledger buckets. Secondary-ledger addresses are stored with their prefix
// already stripped, ready for on-chain lookups.
type classifiedKeys struct {
	primary   []string
	secondary []string
	opaque    []string
}

// classifyKeys buckets keys by a case-sensitive prefix test, checked in order:
// "0x" selects the primary ledger, the secondary-ledger prefix selects the
// secondary ledger, everything else is an opaque oracle id.
func classifyKeys(balances map[string]string) classifiedKeys {
	var keys classifiedKeys
	for key := range balances {
		switch {
		case strings.HasPrefix(key, "0x"):
			keys.primary = append(keys.primary, key)
		case strings.HasPrefix(key, entity.SecondaryLedgerPrefix):
			keys.secondary = append(keys.secondary, strings.TrimPrefix(key, entity.SecondaryLedgerPrefix))
		default:
			keys.opaque = append(keys.opaque, key)
		}
	}
	return keys
}
