package entity

import (
	"context"

	"golang.org/x/time/rate"
)

// Gate is a caller-supplied admission-control hook invoked before every
// rate-limited price request, including retries. It blocks until the request
// may proceed or the context is done.
type Gate func(ctx context.Context) error

// NopGate admits every request immediately.
func NopGate(context.Context) error { return nil }

// GateFromLimiter adapts a token-bucket limiter into a Gate.
func GateFromLimiter(l *rate.Limiter) Gate {
	return l.Wait
}

// DefaultMaxRetries applies when a valuation request leaves MaxRetries unset.
const DefaultMaxRetries = 3

// ValuationRequest carries the per-invocation knobs of the pipeline.
type ValuationRequest struct {
	// Timestamp is a fixed past instant (unix seconds) for historical pricing.
	// Zero means "now" and selects the bulk live price path.
	Timestamp int64
	// Verbose enables per-token diagnostic logging; it never changes the result.
	Verbose bool
	// KnownTokenPrices is an optional caller-owned cache, keyed by lowercased
	// address or oracle id. The pipeline reads it but does not own it.
	KnownTokenPrices PriceMap
	// LockGate is invoked before each historical price request. Nil means no-op.
	LockGate Gate
	// MaxRetries bounds transient-failure retries per price request.
	// Zero selects DefaultMaxRetries.
	MaxRetries int
}

// ValuationResult is the contribution of a single token key.
type ValuationResult struct {
	Key       string  `json:"key"`
	Symbol    string  `json:"symbol"`
	Amount    float64 `json:"amount"`
	USDAmount float64 `json:"usdAmount"`
	// Errored marks a token degraded by a processing failure. Its zero
	// USDAmount still counts toward the grand total but it is excluded from
	// the per-symbol breakdowns.
	Errored bool `json:"-"`
}

// AggregateOutput is the final TVL figure with its per-symbol breakdowns.
type AggregateOutput struct {
	USDTvl           float64            `json:"usdTvl"`
	USDTokenBalances map[string]float64 `json:"usdTokenBalances"`
	TokenBalances    map[string]float64 `json:"tokenBalances"`
}

// ValuationError records a non-fatal degradation observed while valuing one
// token. These are advisory; they never change the returned aggregate.
type ValuationError struct {
	Key     string `json:"key"`
	Ledger  string `json:"ledger,omitempty"`
	Message string `json:"message"`
}
