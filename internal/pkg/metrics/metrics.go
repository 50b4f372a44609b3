package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchCalls counts batched on-chain call requests by ledger and method.
	BatchCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvl_batch_calls_total",
		Help: "Number of batched on-chain call requests issued, by ledger and method.",
	}, []string{"ledger", "method"})

	// PriceRequests counts price-oracle HTTP requests by mode and outcome.
	PriceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvl_price_requests_total",
		Help: "Number of price oracle requests issued, by mode and outcome.",
	}, []string{"mode", "outcome"})
)
