package port

import (
	"context"

	"tvl_engine/internal/domain/entity"
)

// PriceClient is the price-oracle collaborator. Both methods return maps keyed
// by lowercased address or oracle id; a missing key means the oracle has no
// price, never that the price is zero. Individual request failures degrade to
// missing entries instead of failing the whole lookup.
type PriceClient interface {
	// GetLivePrices resolves current USD prices for one bucket in bulk.
	// An empty platform selects the oracle's coin-id endpoint; otherwise
	// targets are contract addresses on that asset platform.
	GetLivePrices(ctx context.Context, targets []string, platform string, gate entity.Gate, maxRetries int) (entity.PriceMap, error)

	// GetHistoricalPrices resolves USD prices at a fixed past instant, one
	// request per target, issued concurrently and admitted through gate.
	GetHistoricalPrices(ctx context.Context, targets []string, platform string, timestamp int64, gate entity.Gate, maxRetries int) (entity.PriceMap, error)
}
