package service

import (
	"context"
	"strings"
	"sync"

	"tvl_engine/internal/domain/entity"
)

// testLogger discards everything; the pipeline's diagnostics are advisory.
type testLogger struct{}

func (testLogger) Info(string, ...any)  {}
func (testLogger) Debug(string, ...any) {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

type batchCallRecord struct {
	Ledger  entity.Ledger
	Method  string
	Targets []string
}

// fakeBatchCaller records every batch call and answers from a response func.
type fakeBatchCaller struct {
	mu      sync.Mutex
	calls   []batchCallRecord
	respond func(ledger entity.Ledger, method string, targets []string) []entity.CallResult
}

func (f *fakeBatchCaller) BatchCall(_ context.Context, ledger entity.Ledger, method string, targets []string) ([]entity.CallResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, batchCallRecord{Ledger: ledger, Method: method, Targets: append([]string(nil), targets...)})
	f.mu.Unlock()

	if f.respond == nil {
		return []entity.CallResult{}, nil
	}
	return f.respond(ledger, method, targets), nil
}

func (f *fakeBatchCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type priceCallRecord struct {
	Platform  string
	Targets   []string
	Timestamp int64
}

// fakePriceClient answers live lookups from a per-platform price table and
// records which mode each bucket was dispatched through.
type fakePriceClient struct {
	mu              sync.Mutex
	liveCalls       []priceCallRecord
	historicalCalls []priceCallRecord
	prices          map[string]entity.PriceMap // keyed by platform, "" for opaque ids
}

func (f *fakePriceClient) GetLivePrices(_ context.Context, targets []string, platform string, _ entity.Gate, _ int) (entity.PriceMap, error) {
	f.mu.Lock()
	f.liveCalls = append(f.liveCalls, priceCallRecord{Platform: platform, Targets: append([]string(nil), targets...)})
	f.mu.Unlock()
	return f.lookup(platform, targets), nil
}

func (f *fakePriceClient) GetHistoricalPrices(_ context.Context, targets []string, platform string, timestamp int64, _ entity.Gate, _ int) (entity.PriceMap, error) {
	f.mu.Lock()
	f.historicalCalls = append(f.historicalCalls, priceCallRecord{Platform: platform, Targets: append([]string(nil), targets...), Timestamp: timestamp})
	f.mu.Unlock()
	return f.lookup(platform, targets), nil
}

func (f *fakePriceClient) lookup(platform string, targets []string) entity.PriceMap {
	out := make(entity.PriceMap)
	table, ok := f.prices[platform]
	if !ok {
		return out
	}
	for _, t := range targets {
		lower := strings.ToLower(t)
		if p, ok := table[lower]; ok {
			out[lower] = p
		}
	}
	return out
}

// respondMetadata builds a batch-call response func from per-address decimals
// and symbol tables. Addresses absent from a table fail that call.
func respondMetadata(decimals map[string]string, symbols map[string]string) func(entity.Ledger, string, []string) []entity.CallResult {
	return func(_ entity.Ledger, method string, targets []string) []entity.CallResult {
		table := decimals
		if method == methodSymbol {
			table = symbols
		}
		results := make([]entity.CallResult, 0, len(targets))
		for _, t := range targets {
			out, ok := table[t]
			results = append(results, entity.CallResult{Target: t, Success: ok, Output: out})
		}
		return results
	}
}

func newTestService(caller *fakeBatchCaller, prices *fakePriceClient) *TVLServiceImpl {
	return &TVLServiceImpl{
		batchCaller:         caller,
		priceClient:         prices,
		logger:              testLogger{},
		platforms:           defaultPlatforms,
		maxConcurrentTokens: defaultMaxConcurrentTokens,
	}
}
