package service

import (
	"context"
	"sync"

	"tvl_engine/internal/domain/entity"
)

// metadataFuture is the pending handle of one ledger bucket's metadata lookups.
// The two batched calls (decimals, symbol) are issued eagerly; consumers block
// on await only at the point the result is actually needed, so on-chain RPC
// latency overlaps with price-API latency.
type metadataFuture struct {
	done chan struct{}
	meta entity.TokenMetadata
}

// await blocks until both lookups finished and returns the merged metadata.
// Entries exist only for targets whose call succeeded.
func (f *metadataFuture) await() entity.TokenMetadata {
	<-f.done
	return f.meta
}

// fetchMetadata starts the decimals and symbol batch lookups for one ledger
// bucket. An empty bucket issues no call and resolves immediately.
func (s *TVLServiceImpl) fetchMetadata(ctx context.Context, ledger entity.Ledger, addrs []string) *metadataFuture {
	f := &metadataFuture{
		done: make(chan struct{}),
		meta: entity.TokenMetadata{
			Decimals: make(map[string]uint8),
			Symbols:  make(map[string]string),
		},
	}
	if len(addrs) == 0 {
		close(f.done)
		return f
	}

	go func() {
		defer close(f.done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.meta.Decimals = s.lookupDecimals(ctx, ledger, addrs)
		}()
		go func() {
			defer wg.Done()
			f.meta.Symbols = s.lookupSymbols(ctx, ledger, addrs)
		}()
		wg.Wait()
	}()
	return f
}

// lookupSymbols runs one batched symbol call, dropping failed targets.
func (s *TVLServiceImpl) lookupSymbols(ctx context.Context, ledger entity.Ledger, addrs []string) map[string]string {
	symbols := make(map[string]string, len(addrs))
	if len(addrs) == 0 {
		return symbols
	}

	results, err := s.batchCaller.BatchCall(ctx, ledger, methodSymbol, addrs)
	if err != nil {
		s.logger.Warn("batched symbol call failed", "ledger", ledger, "targets", len(addrs), "error", err)
		return symbols
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		symbols[r.Target] = r.Output
	}
	return symbols
}
