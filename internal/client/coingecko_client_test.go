package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tvl_engine/internal/domain/entity"
)

type recordedRequest struct {
	Path  string
	Query string
}

// recordingServer captures every request and serves canned bodies by path
// prefix, with an optional number of leading 429 responses.
type recordingServer struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]string
	reject429 int
	server    *httptest.Server
}

func newRecordingServer(responses map[string]string) *recordingServer {
	rs := &recordingServer{responses: responses}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, recordedRequest{Path: r.URL.Path, Query: r.URL.RawQuery})
		reject := rs.reject429 > 0
		if reject {
			rs.reject429--
		}
		rs.mu.Unlock()

		if reject {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		for prefix, body := range rs.responses {
			if strings.HasPrefix(r.URL.Path, prefix) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	return rs
}

func (rs *recordingServer) requestCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func (rs *recordingServer) allRequests() []recordedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]recordedRequest(nil), rs.requests...)
}

func newTestClient(t *testing.T, baseURL string, maxTargets int) *coinGeckoClientImpl {
	t.Helper()
	c, ok := NewCoinGeckoClient(baseURL, "", 2*time.Second, zap.NewNop(), maxTargets, time.Minute).(*coinGeckoClientImpl)
	require.True(t, ok)
	c.retryDelay = time.Millisecond
	return c
}

func TestGetLivePricesByID(t *testing.T) {
	rs := newRecordingServer(map[string]string{
		"/simple/price": `{"Ethereum":{"usd":2000},"tether":{"usd":1}}`,
	})
	defer rs.server.Close()

	c := newTestClient(t, rs.server.URL, 0)
	prices, err := c.GetLivePrices(context.Background(), []string{"ethereum", "tether"}, "", nil, 1)
	require.NoError(t, err)

	// Response keys are lowercased regardless of oracle casing.
	assert.Equal(t, entity.PriceMap{
		"ethereum": {USD: 2000},
		"tether":   {USD: 1},
	}, prices)

	reqs := rs.allRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/simple/price", reqs[0].Path)
	assert.Contains(t, reqs[0].Query, "ids=ethereum,tether")
	assert.Contains(t, reqs[0].Query, "vs_currencies=usd")
}

func TestGetLivePricesByContract(t *testing.T) {
	rs := newRecordingServer(map[string]string{
		"/simple/token_price/ethereum": `{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48":{"usd":1}}`,
	})
	defer rs.server.Close()

	c := newTestClient(t, rs.server.URL, 0)
	prices, err := c.GetLivePrices(context.Background(),
		[]string{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}, "ethereum", nil, 1)
	require.NoError(t, err)

	require.Contains(t, prices, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	assert.Equal(t, 1.0, prices["0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"].USD)

	reqs := rs.allRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/simple/token_price/ethereum", reqs[0].Path)
	assert.Contains(t, reqs[0].Query, "contract_addresses=")
}

func TestGetLivePricesChunksTargets(t *testing.T) {
	rs := newRecordingServer(map[string]string{
		"/simple/price": `{}`,
	})
	defer rs.server.Close()

	c := newTestClient(t, rs.server.URL, 2)
	_, err := c.GetLivePrices(context.Background(),
		[]string{"a", "b", "c", "d", "e"}, "", nil, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, rs.requestCount())
}

func TestGetLivePricesServesRepeatsFromCache(t *testing.T) {
	rs := newRecordingServer(map[string]string{
		"/simple/price": `{"ethereum":{"usd":2000}}`,
	})
	defer rs.server.Close()

	c := newTestClient(t, rs.server.URL, 0)

	first, err := c.GetLivePrices(context.Background(), []string{"ethereum"}, "", nil, 1)
	require.NoError(t, err)
	second, err := c.GetLivePrices(context.Background(), []string{"ethereum"}, "", nil, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, rs.requestCount(), "a cached target must not hit the network again")
}

func TestGetHistoricalPricesByID(t *testing.T) {
	rs := newRecordingServer(map[string]string{
		"/coins/": `{"market_data":{"current_price":{"usd":1500}}}`,
	})
	defer rs.server.Close()

	c := newTestClient(t, rs.server.URL, 0)
	ts := time.Date(2021, 3, 4, 12, 0, 0, 0, time.UTC).Unix()
	prices, err := c.GetHistoricalPrices(context.Background(),
		[]string{"ethereum", "tether", "dai"}, "", ts, nil, 1)
	require.NoError(t, err)

	// One request per coin id, each pinned to the UTC calendar date.
	assert.Equal(t, 3, rs.requestCount())
	for _, req := range rs.allRequests() {
		assert.Contains(t, req.Query, "date=04-03-2021")
	}
	assert.Equal(t, 1500.0, prices["ethereum"].USD)
	assert.Equal(t, 1500.0, prices["dai"].USD)
}

func TestGetHistoricalPricesByContract(t *testing.T) {
	rs := newRecordingServer(map[string]string{
		"/coins/ethereum/contract/": `{"prices":[[1600000000000,1.01],[1600001000000,0.99]]}`,
	})
	defer rs.server.Close()

	c := newTestClient(t, rs.server.URL, 0)
	prices, err := c.GetHistoricalPrices(context.Background(),
		[]string{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}, "ethereum", 1600002000, nil, 1)
	require.NoError(t, err)

	// The last sample in the range window wins.
	require.Contains(t, prices, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	assert.Equal(t, 0.99, prices["0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"].USD)

	reqs := rs.allRequests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Path, "/market_chart/range")
	assert.Contains(t, reqs[0].Query, "to=1600002000")
}

func TestDoRequestRetriesRateLimit(t *testing.T) {
	rs := newRecordingServer(map[string]string{
		"/simple/price": `{"ethereum":{"usd":2000}}`,
	})
	rs.reject429 = 1
	defer rs.server.Close()

	var gateCalls int32
	var gateMu sync.Mutex
	gate := func(context.Context) error {
		gateMu.Lock()
		gateCalls++
		gateMu.Unlock()
		return nil
	}

	c := newTestClient(t, rs.server.URL, 0)
	prices, err := c.GetLivePrices(context.Background(), []string{"ethereum"}, "", gate, 3)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, prices["ethereum"].USD)

	assert.Equal(t, 2, rs.requestCount())
	gateMu.Lock()
	defer gateMu.Unlock()
	assert.Equal(t, int32(2), gateCalls, "the gate admits every attempt, retries included")
}

func TestDoRequestDoesNotRetryClientErrors(t *testing.T) {
	rs := newRecordingServer(nil) // every path answers 404
	defer rs.server.Close()

	c := newTestClient(t, rs.server.URL, 0)
	_, err := c.doRequest(context.Background(), rs.server.URL+"/simple/price?ids=x", nil, 3, "live")
	require.Error(t, err)
	assert.Equal(t, 1, rs.requestCount(), "a definitive client error must not be retried")
}
