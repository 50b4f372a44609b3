package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"tvl_engine/internal/app/port"
	"tvl_engine/internal/domain/entity"
)

const defaultMaxConcurrentTokens = 16

// Default oracle asset-platform ids, used when no ledger definitions are
// provided.
var defaultPlatforms = map[entity.Ledger]string{
	entity.LedgerEthereum: "ethereum",
	entity.LedgerBSC:      "binance-smart-chain",
}

// TVLServiceImpl implements port.TVLService: normalization, classification,
// metadata/price resolution and valuation of raw token balances.
type TVLServiceImpl struct {
	batchCaller         port.BatchCaller
	priceClient         port.PriceClient
	logger              port.Logger
	platforms           map[entity.Ledger]string
	maxConcurrentTokens int
}

// NewTVLService creates a new instance of TVLServiceImpl. The ledger provider
// supplies oracle platform ids per ledger and may be nil, in which case the
// defaults apply. maxConcurrentTokens bounds the valuation fan-out.
func NewTVLService(
	bc port.BatchCaller,
	pc port.PriceClient,
	lp port.LedgerDefinitionProvider,
	l port.Logger,
	maxConcurrentTokens int,
) port.TVLService {
	if maxConcurrentTokens <= 0 {
		maxConcurrentTokens = defaultMaxConcurrentTokens
	}
	platforms := make(map[entity.Ledger]string, len(defaultPlatforms))
	for ledger, platform := range defaultPlatforms {
		if lp != nil {
			if def, ok := lp.GetLedgerDefinition(ledger); ok && def.OraclePlatform != "" {
				platforms[ledger] = def.OraclePlatform
				continue
			}
		}
		platforms[ledger] = platform
	}
	return &TVLServiceImpl{
		batchCaller:         bc,
		priceClient:         pc,
		logger:              l,
		platforms:           platforms,
		maxConcurrentTokens: maxConcurrentTokens,
	}
}

// ComputeTVL implements port.TVLService. The four metadata batch calls and the
// three bucket price resolutions are started eagerly; each per-token valuation
// waits only on the specific results it needs, so a slow price source for one
// ledger never blocks metadata-only work for tokens on another.
func (s *TVLServiceImpl) ComputeTVL(
	ctx context.Context,
	balances entity.RawBalances,
	req entity.ValuationRequest,
) (entity.AggregateOutput, []entity.ValuationError) {
	if req.LockGate == nil {
		req.LockGate = entity.NopGate
	}
	if req.MaxRetries <= 0 {
		req.MaxRetries = entity.DefaultMaxRetries
	}

	var (
		errs  []entity.ValuationError
		errMu sync.Mutex
	)
	report := func(e entity.ValuationError) {
		errMu.Lock()
		errs = append(errs, e)
		errMu.Unlock()
	}

	normalized, normErrs := s.normalizeBalances(ctx, balances)
	errs = append(errs, normErrs...)

	keys := classifyKeys(normalized)
	s.logger.Debug("classified balance keys",
		"primary", len(keys.primary), "secondary", len(keys.secondary), "opaque", len(keys.opaque))

	primaryMeta := s.fetchMetadata(ctx, entity.LedgerEthereum, keys.primary)
	secondaryMeta := s.fetchMetadata(ctx, entity.LedgerBSC, keys.secondary)

	opaquePrices := s.resolvePrices(ctx, keys.opaque, "", req)
	primaryPrices := s.resolvePrices(ctx, keys.primary, s.platforms[entity.LedgerEthereum], req)
	secondaryPrices := s.resolvePrices(ctx, keys.secondary, s.platforms[entity.LedgerBSC], req)

	deps := valuationDeps{
		primaryMeta:     primaryMeta,
		secondaryMeta:   secondaryMeta,
		opaquePrices:    opaquePrices,
		primaryPrices:   primaryPrices,
		secondaryPrices: secondaryPrices,
	}

	results := make([]entity.ValuationResult, 0, len(normalized))
	var resultMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentTokens)
	for key, balance := range normalized {
		g.Go(func() error {
			r := s.valueToken(gctx, key, balance, deps, req, report)
			resultMu.Lock()
			results = append(results, r)
			resultMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := entity.AggregateOutput{
		USDTokenBalances: make(map[string]float64),
		TokenBalances:    make(map[string]float64),
	}
	for _, r := range results {
		out.USDTvl += r.USDAmount
		if r.Errored {
			continue
		}
		out.TokenBalances[r.Symbol] += r.Amount
		out.USDTokenBalances[r.Symbol] += r.USDAmount
	}

	s.logger.Info("computed TVL",
		"tokens", len(results), "usdTvl", out.USDTvl, "degraded", len(errs))
	return out, errs
}
