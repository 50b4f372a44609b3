package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tvl_engine/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newTestCaller() *EVMBatchCaller {
	return NewEVMBatchCaller(nil, nopLogger{}, time.Second, time.Second).(*EVMBatchCaller)
}

func TestDecodeOutputDecimals(t *testing.T) {
	initParsedERC20ABI()
	m := parsedERC20ABI.Methods["decimals"]

	raw, err := m.Outputs.Pack(uint8(6))
	require.NoError(t, err)

	out, err := decodeOutput(m, raw)
	require.NoError(t, err)
	assert.Equal(t, "6", out)
}

func TestDecodeOutputSymbol(t *testing.T) {
	initParsedERC20ABI()
	m := parsedERC20ABI.Methods["symbol"]

	raw, err := m.Outputs.Pack("USDC")
	require.NoError(t, err)

	out, err := decodeOutput(m, raw)
	require.NoError(t, err)
	assert.Equal(t, "USDC", out)
}

func TestDecodeOutputGarbage(t *testing.T) {
	initParsedERC20ABI()
	m := parsedERC20ABI.Methods["symbol"]

	_, err := decodeOutput(m, []byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestBatchCallEmptyTargets(t *testing.T) {
	c := newTestCaller()
	results, err := c.BatchCall(context.Background(), entity.LedgerEthereum, "decimals", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchCallUnsupportedMethod(t *testing.T) {
	c := newTestCaller()
	_, err := c.BatchCall(context.Background(), entity.LedgerEthereum, "transfer", []string{"0x1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported batch call method")
}

func TestBatchCallUnknownLedger(t *testing.T) {
	c := newTestCaller()
	_, err := c.BatchCall(context.Background(), entity.Ledger("solana"), "decimals", []string{"0x1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ledger definition")
}
