package port

import (
	"context"

	"tvl_engine/internal/domain/entity"
)

// BatchCaller bundles many (target, method) lookups against one ledger into a
// single request. Implementations report success or failure per target; the
// returned slice is not guaranteed to preserve input order, so callers must key
// results by target. An empty target list is a no-op returning an empty slice.
type BatchCaller interface {
	BatchCall(ctx context.Context, ledger entity.Ledger, method string, targets []string) ([]entity.CallResult, error)
}

// LedgerDefinitionProvider exposes the configured ledger definitions.
type LedgerDefinitionProvider interface {
	// GetLedgerDefinition returns the definition for a ledger and true if known.
	GetLedgerDefinition(ledger entity.Ledger) (entity.LedgerDefinition, bool)
}
