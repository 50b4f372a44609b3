package port

import (
	"context"

	"tvl_engine/internal/domain/entity"
)

// TVLService computes a protocol's total value locked from raw balances.
type TVLService interface {
	// ComputeTVL runs the full pipeline. It never fails wholesale because of
	// one bad token: degradations are absorbed per token and reported in the
	// returned error slice, which is advisory only.
	ComputeTVL(ctx context.Context, balances entity.RawBalances, req entity.ValuationRequest) (entity.AggregateOutput, []entity.ValuationError)
}
