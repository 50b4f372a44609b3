package entity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BalanceValue holds one raw balance in whichever representation the caller has.
// Exactly one of the fields is expected to be set; Str takes priority, then Int,
// then Dec. An empty value renders to an empty string and degrades the token at
// valuation time rather than failing the pipeline.
type BalanceValue struct {
	Str string
	Int *big.Int
	Dec *decimal.Decimal
}

// StringValue wraps a plain numeric string balance.
func StringValue(s string) BalanceValue {
	return BalanceValue{Str: s}
}

// BigIntValue wraps an arbitrary-precision integer balance.
func BigIntValue(i *big.Int) BalanceValue {
	return BalanceValue{Int: i}
}

// DecimalValue wraps an arbitrary-precision decimal balance.
func DecimalValue(d decimal.Decimal) BalanceValue {
	return BalanceValue{Dec: &d}
}

// Render converts the value to a fixed-point decimal string without scientific
// notation, preserving the precision of the source representation.
func (v BalanceValue) Render() string {
	switch {
	case v.Str != "":
		return v.Str
	case v.Int != nil:
		return v.Int.String()
	case v.Dec != nil:
		return v.Dec.String()
	}
	return ""
}

// BalanceEntry is one record of list-shaped raw input. Balance is a human-scale
// quantity; converting it to base units requires an on-chain decimals lookup.
type BalanceEntry struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// RawBalances is the heterogeneous balance input of one pipeline invocation.
// Exactly one of Tokens (map-shaped) or Entries (list-shaped) is set; a non-nil
// Entries slice selects the list-shaped interpretation.
type RawBalances struct {
	Tokens  map[string]BalanceValue
	Entries []BalanceEntry
}

// IsListShaped reports whether the input must go through the decimals-lookup
// conversion path.
func (r RawBalances) IsListShaped() bool {
	return r.Entries != nil
}
