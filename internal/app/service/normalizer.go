package service

import (
	"context"
	"strconv"

	"tvl_engine/internal/domain/entity"
	"tvl_engine/internal/pkg/utils"
)

const (
	methodDecimals = "decimals"
	methodSymbol   = "symbol"

	// invalidAmount marks a balance whose conversion exponent could not be
	// resolved. It fails numeric parsing at valuation time, which degrades the
	// token to an error-tagged zero contribution instead of aborting anything.
	invalidAmount = "NaN"

	nativeAssetDecimals = 18
)

// normalizeBalances canonicalizes raw input into a map of token key to
// base-unit decimal string. The zero-address native asset is always rewritten
// to the canonical oracle id with its balance converted to human units, so it
// is priced via the opaque-id path and never treated as an on-chain contract.
func (s *TVLServiceImpl) normalizeBalances(ctx context.Context, raw entity.RawBalances) (map[string]string, []entity.ValuationError) {
	if raw.IsListShaped() {
		return s.normalizeEntries(ctx, raw.Entries)
	}

	normalized := make(map[string]string, len(raw.Tokens))
	for key, value := range raw.Tokens {
		canonicalizeInto(normalized, key, value.Render(), s)
	}
	return normalized, nil
}

// normalizeEntries handles list-shaped input: one batched decimals lookup
// across every listed address, then a per-entry conversion to base units.
func (s *TVLServiceImpl) normalizeEntries(ctx context.Context, entries []entity.BalanceEntry) (map[string]string, []entity.ValuationError) {
	var errs []entity.ValuationError

	addrs := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Address]; ok {
			continue
		}
		seen[e.Address] = struct{}{}
		addrs = append(addrs, e.Address)
	}

	decimals := s.lookupDecimals(ctx, entity.LedgerEthereum, addrs)

	normalized := make(map[string]string, len(entries))
	for _, e := range entries {
		dec, ok := decimals[e.Address]
		if !ok {
			if e.Address != entity.ZeroAddress {
				// Conversion exponent is undefined; propagate a non-numeric
				// amount and let the valuation boundary absorb it.
				s.logger.Warn("decimals lookup failed for listed balance", "address", e.Address)
				errs = append(errs, entity.ValuationError{
					Key:     e.Address,
					Ledger:  string(entity.LedgerEthereum),
					Message: "decimals lookup failed, balance conversion undefined",
				})
				normalized[e.Address] = invalidAmount
				continue
			}
			dec = nativeAssetDecimals
		}

		base, err := utils.ShiftDecimalString(e.Balance, int32(dec))
		if err != nil {
			base = invalidAmount
		}
		canonicalizeInto(normalized, e.Address, base, s)
	}
	return normalized, errs
}

// canonicalizeInto applies the native-asset rewrite while copying one balance
// into the normalized map. Multiple raw keys collapsing onto the same
// canonical key keep the last value, matching plain map assignment semantics.
func canonicalizeInto(normalized map[string]string, key, value string, s *TVLServiceImpl) {
	if key == entity.ZeroAddress {
		human, err := utils.ShiftDecimalString(value, -nativeAssetDecimals)
		if err != nil {
			human = invalidAmount
		}
		normalized[entity.NativeAssetID] = human
		return
	}
	normalized[key] = value
}

// lookupDecimals runs one batched decimals call and returns only the entries
// that both succeeded on-chain and parsed as a uint8.
func (s *TVLServiceImpl) lookupDecimals(ctx context.Context, ledger entity.Ledger, addrs []string) map[string]uint8 {
	decimals := make(map[string]uint8, len(addrs))
	if len(addrs) == 0 {
		return decimals
	}

	results, err := s.batchCaller.BatchCall(ctx, ledger, methodDecimals, addrs)
	if err != nil {
		s.logger.Warn("batched decimals call failed", "ledger", ledger, "targets", len(addrs), "error", err)
		return decimals
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		d, perr := strconv.ParseUint(r.Output, 10, 8)
		if perr != nil {
			s.logger.Warn("unparseable decimals output", "ledger", ledger, "address", r.Target, "output", r.Output)
			continue
		}
		decimals[r.Target] = uint8(d)
	}
	return decimals
}
