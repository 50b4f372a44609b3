package service

import (
	"context"
	"strings"

	"tvl_engine/internal/domain/entity"
)

// priceFuture is the pending handle of one bucket's price resolution. Keys in
// the resolved map are always lowercased.
type priceFuture struct {
	done   chan struct{}
	prices entity.PriceMap
}

func (f *priceFuture) await() entity.PriceMap {
	<-f.done
	return f.prices
}

// resolvePrices starts price resolution for one bucket. Targets already present
// in the caller's pre-seeded cache are served from it; a full cache hit skips
// the network entirely. Live mode issues one bulk call for the bucket,
// historical mode one gated call per token inside the price client.
func (s *TVLServiceImpl) resolvePrices(ctx context.Context, targets []string, platform string, req entity.ValuationRequest) *priceFuture {
	f := &priceFuture{
		done:   make(chan struct{}),
		prices: make(entity.PriceMap, len(targets)),
	}

	missing := make([]string, 0, len(targets))
	for _, t := range targets {
		lower := strings.ToLower(t)
		if p, ok := req.KnownTokenPrices[lower]; ok {
			f.prices[lower] = p
			continue
		}
		missing = append(missing, t)
	}

	if len(missing) == 0 {
		close(f.done)
		return f
	}

	go func() {
		defer close(f.done)

		var (
			fetched entity.PriceMap
			err     error
		)
		if req.Timestamp == 0 {
			fetched, err = s.priceClient.GetLivePrices(ctx, missing, platform, req.LockGate, req.MaxRetries)
		} else {
			fetched, err = s.priceClient.GetHistoricalPrices(ctx, missing, platform, req.Timestamp, req.LockGate, req.MaxRetries)
		}
		if err != nil {
			// Unpriced tokens value to zero; sibling buckets are unaffected.
			s.logger.Warn("price resolution failed for bucket", "platform", platform, "targets", len(missing), "error", err)
			return
		}
		for k, p := range fetched {
			f.prices[strings.ToLower(k)] = p
		}
	}()
	return f
}
