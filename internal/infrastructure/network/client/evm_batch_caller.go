package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"tvl_engine/internal/app/port"
	"tvl_engine/internal/domain/entity"
	"tvl_engine/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ERC20 ABI minimal part for decimals and symbol
const erc20ABI = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			// This is a critical error during initialization, panic is appropriate
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// EVMBatchCaller implements port.BatchCaller over JSON-RPC batch requests for
// the configured EVM ledgers. Clients are dialed lazily and cached per ledger.
type EVMBatchCaller struct {
	defs              map[entity.Ledger]entity.LedgerDefinition
	clients           map[entity.Ledger]*ethclient.Client
	mu                sync.Mutex
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
}

// NewEVMBatchCaller creates a batch caller for the given ledger definitions.
func NewEVMBatchCaller(
	defs []entity.LedgerDefinition,
	log port.Logger,
	connectionTimeout, rpcCallTimeout time.Duration,
) port.BatchCaller {
	initParsedERC20ABI()
	byLedger := make(map[entity.Ledger]entity.LedgerDefinition, len(defs))
	for _, def := range defs {
		byLedger[def.Ledger] = def
	}
	return &EVMBatchCaller{
		defs:              byLedger,
		clients:           make(map[entity.Ledger]*ethclient.Client),
		logger:            log,
		connectionTimeout: connectionTimeout,
		rpcCallTimeout:    rpcCallTimeout,
	}
}

// BatchCall implements port.BatchCaller. All targets are bundled into a single
// JSON-RPC batch; each element succeeds or fails independently and failures
// surface as unsuccessful results rather than an error for the whole batch.
func (c *EVMBatchCaller) BatchCall(ctx context.Context, ledger entity.Ledger, method string, targets []string) ([]entity.CallResult, error) {
	if len(targets) == 0 {
		return []entity.CallResult{}, nil
	}

	m, ok := parsedERC20ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("unsupported batch call method %q", method)
	}

	client, err := c.getClient(ctx, ledger)
	if err != nil {
		return nil, err
	}
	metrics.BatchCalls.WithLabelValues(string(ledger), method).Inc()

	batchElems := make([]rpc.BatchElem, len(targets))
	for i, target := range targets {
		callArgs := map[string]interface{}{
			"to":   common.HexToAddress(target),
			"data": hexutil.Bytes(m.ID),
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := client.Client().BatchCallContext(rpcCallCtx, batchElems); err != nil {
		return nil, fmt.Errorf("RPC batch call failed on %s: %w", ledger, err)
	}

	results := make([]entity.CallResult, 0, len(targets))
	for i, elem := range batchElems {
		res := entity.CallResult{Target: targets[i]}
		if elem.Error != nil {
			c.logger.Debug("batch element failed", "ledger", ledger, "method", method, "target", targets[i], "error", elem.Error)
			results = append(results, res)
			continue
		}

		raw, ok := elem.Result.(*hexutil.Bytes)
		if !ok || raw == nil || len(*raw) == 0 {
			results = append(results, res)
			continue
		}

		output, err := decodeOutput(m, *raw)
		if err != nil {
			c.logger.Debug("failed to decode batch element output",
				"ledger", ledger, "method", method, "target", targets[i], "error", err)
			results = append(results, res)
			continue
		}
		res.Success = true
		res.Output = output
		results = append(results, res)
	}
	return results, nil
}

// decodeOutput unpacks a single eth_call return value into its string form:
// decimals as a base-10 integer, symbol as the plain string.
func decodeOutput(m abi.Method, raw []byte) (string, error) {
	unpacked, err := parsedERC20ABI.Unpack(m.Name, raw)
	if err != nil {
		return "", fmt.Errorf("failed to unpack %s result: %w", m.Name, err)
	}
	if len(unpacked) == 0 {
		return "", fmt.Errorf("%s unpack returned no data", m.Name)
	}
	switch v := unpacked[0].(type) {
	case uint8:
		return fmt.Sprintf("%d", v), nil
	case *big.Int:
		return v.String(), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("unexpected %s output type %T", m.Name, unpacked[0])
	}
}

// getClient returns the cached client for a ledger, dialing it on first use.
// The primary RPC URL is tried first, then the fallbacks.
func (c *EVMBatchCaller) getClient(ctx context.Context, ledger entity.Ledger) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, exists := c.clients[ledger]; exists {
		return client, nil
	}

	def, ok := c.defs[ledger]
	if !ok {
		return nil, fmt.Errorf("no ledger definition for %q", ledger)
	}

	rpcURLs := append([]string{def.RPCURL}, def.FallbackRPCURLs...)
	var lastErr error
	for _, rpcURL := range rpcURLs {
		dialCtx, cancel := context.WithTimeout(ctx, c.connectionTimeout)
		client, err := ethclient.DialContext(dialCtx, rpcURL)
		cancel()

		if err == nil {
			c.logger.Info("Connected EVM batch caller", "ledger", ledger, "rpc", rpcURL)
			c.clients[ledger] = client
			return client, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for ledger %s: %w", ledger, lastErr)
}
