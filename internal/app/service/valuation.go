package service

import (
	"context"
	"fmt"
	"strings"

	"tvl_engine/internal/domain/entity"
	"tvl_engine/internal/pkg/utils"
)

// valuationDeps groups the pending handles a per-token valuation may wait on.
type valuationDeps struct {
	primaryMeta     *metadataFuture
	secondaryMeta   *metadataFuture
	opaquePrices    *priceFuture
	primaryPrices   *priceFuture
	secondaryPrices *priceFuture
}

// valueToken resolves a single token's USD contribution. Any failure inside,
// malformed numeric input included, is absorbed at this boundary: the token
// degrades to a zero-value, error-tagged result and the rest of the valuation
// is untouched.
func (s *TVLServiceImpl) valueToken(
	ctx context.Context,
	key, balance string,
	deps valuationDeps,
	req entity.ValuationRequest,
	report func(entity.ValuationError),
) (res entity.ValuationResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("token valuation panicked", "key", key, "panic", fmt.Sprint(r))
			report(entity.ValuationError{Key: key, Message: fmt.Sprintf("valuation panic: %v", r)})
			res = erroredResult(key)
		}
	}()

	var (
		symbol string
		amount float64
		err    error
		prices entity.PriceMap
		lookup string
	)

	switch {
	case strings.HasPrefix(key, "0x"):
		symbol, amount, err = s.resolveLedgerToken(key, key, balance, entity.LedgerEthereum, deps.primaryMeta, report)
		prices, lookup = deps.primaryPrices.await(), key
	case strings.HasPrefix(key, entity.SecondaryLedgerPrefix):
		addr := strings.TrimPrefix(key, entity.SecondaryLedgerPrefix)
		symbol, amount, err = s.resolveLedgerToken(key, addr, balance, entity.LedgerBSC, deps.secondaryMeta, report)
		prices, lookup = deps.secondaryPrices.await(), addr
	default:
		symbol = key
		amount, err = utils.ParseAmount(balance)
		prices, lookup = deps.opaquePrices.await(), key
	}
	if err != nil {
		s.logger.Error("failed to value token", "key", key, "error", err)
		report(entity.ValuationError{Key: key, Message: err.Error()})
		return erroredResult(key)
	}

	price, ok := prices[strings.ToLower(lookup)]
	if !ok {
		// Unpriced tokens contribute zero by definition, not "unknown".
		s.logger.Info("no price known for token", "key", key, "symbol", symbol)
	}

	res = entity.ValuationResult{
		Key:       key,
		Symbol:    symbol,
		Amount:    amount,
		USDAmount: amount * price.USD,
	}
	if req.Verbose {
		s.logger.Debug("valued token",
			"key", key, "symbol", symbol, "amount", amount, "priceUSD", price.USD, "usdAmount", res.USDAmount)
	}
	return res
}

// resolveLedgerToken turns an on-chain balance into (symbol, amount) using the
// ledger's metadata. A missing decimals entry forces the amount to zero rather
// than raising, so one unresolvable call cannot block every other token; a
// missing symbol degrades to an UNKNOWN tag but keeps the token aggregatable.
func (s *TVLServiceImpl) resolveLedgerToken(
	key, addr, balance string,
	ledger entity.Ledger,
	metaFuture *metadataFuture,
	report func(entity.ValuationError),
) (string, float64, error) {
	meta := metaFuture.await()

	symbol, ok := meta.Symbols[addr]
	if !ok {
		symbol = fmt.Sprintf("UNKNOWN (%s)", key)
	}

	decimals, ok := meta.Decimals[addr]
	if !ok {
		s.logger.Warn("no decimals resolved for token, assuming zero amount", "key", key, "ledger", ledger)
		report(entity.ValuationError{Key: key, Ledger: string(ledger), Message: "decimals unresolved, amount assumed zero"})
		return symbol, 0, nil
	}

	amount, err := utils.ScaleBaseUnit(balance, decimals)
	if err != nil {
		return symbol, 0, err
	}
	return symbol, amount, nil
}

func erroredResult(key string) entity.ValuationResult {
	return entity.ValuationResult{
		Key:     key,
		Symbol:  "ERROR " + key,
		Errored: true,
	}
}
