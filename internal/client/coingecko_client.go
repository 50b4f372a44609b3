package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tvl_engine/internal/app/port"
	"tvl_engine/internal/domain/entity"
	"tvl_engine/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	historyDateFormat = "02-01-2006"
	// rangeWindow is the lookback applied to market_chart/range requests so the
	// oracle has at least one sample at or before the requested instant.
	rangeWindow = 4 * time.Hour

	defaultRetryDelay            = 2 * time.Second
	defaultHistoricalConcurrency = 8
)

// coinGeckoClientImpl implements port.PriceClient against the CoinGecko API.
// Bulk live prices resolve through the simple/price and simple/token_price
// endpoints; historical prices require one request per coin. Resolved live
// prices are held in a TTL cache to suppress duplicate network cost across
// invocations.
type coinGeckoClientImpl struct {
	client                *fasthttp.Client
	baseURL               string
	apiKey                string
	timeout               time.Duration
	logger                *zap.Logger
	maxTargetsPerRequest  int
	retryDelay            time.Duration
	historicalConcurrency int
	cache                 *gocache.Cache
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(
	baseURL, apiKey string,
	timeout time.Duration,
	logger *zap.Logger,
	maxTargetsPerRequest int,
	cacheTTL time.Duration,
) port.PriceClient {
	if maxTargetsPerRequest <= 0 {
		maxTargetsPerRequest = 100
	}
	return &coinGeckoClientImpl{
		client:                &fasthttp.Client{},
		baseURL:               strings.TrimRight(baseURL, "/"),
		apiKey:                apiKey,
		timeout:               timeout,
		logger:                logger.Named("CoinGeckoClient"),
		maxTargetsPerRequest:  maxTargetsPerRequest,
		retryDelay:            defaultRetryDelay,
		historicalConcurrency: defaultHistoricalConcurrency,
		cache:                 gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// GetLivePrices implements port.PriceClient. Targets are chunked to respect the
// oracle's URL limits; a failed chunk degrades to missing entries for its
// targets and never aborts sibling chunks.
func (c *coinGeckoClientImpl) GetLivePrices(
	ctx context.Context,
	targets []string,
	platform string,
	gate entity.Gate,
	maxRetries int,
) (entity.PriceMap, error) {
	prices := make(entity.PriceMap, len(targets))
	if len(targets) == 0 {
		return prices, nil
	}

	misses := make([]string, 0, len(targets))
	for _, t := range targets {
		lower := strings.ToLower(t)
		if cached, ok := c.cache.Get(liveCacheKey(platform, lower)); ok {
			prices[lower] = cached.(entity.Price)
			continue
		}
		misses = append(misses, t)
	}

	for chunk := range chunked(misses, c.maxTargetsPerRequest) {
		requestURL := c.livePriceURL(platform, chunk)
		body, err := c.doRequest(ctx, requestURL, gate, maxRetries, "live")
		if err != nil {
			c.logger.Warn("live price request failed, targets degrade to unpriced",
				zap.String("platform", platform),
				zap.Int("targetCount", len(chunk)),
				zap.Error(err))
			continue
		}

		var fetched map[string]entity.Price
		if err := json.Unmarshal(body, &fetched); err != nil {
			c.logger.Warn("failed to unmarshal live price response",
				zap.String("url", requestURL), zap.Error(err))
			continue
		}
		for k, p := range fetched {
			lower := strings.ToLower(k)
			prices[lower] = p
			c.cache.SetDefault(liveCacheKey(platform, lower), p)
		}
	}
	return prices, nil
}

// GetHistoricalPrices implements port.PriceClient. Bulk historical lookups are
// not available, so one request is issued per target, concurrently, each
// admitted through the gate.
func (c *coinGeckoClientImpl) GetHistoricalPrices(
	ctx context.Context,
	targets []string,
	platform string,
	timestamp int64,
	gate entity.Gate,
	maxRetries int,
) (entity.PriceMap, error) {
	prices := make(entity.PriceMap, len(targets))
	if len(targets) == 0 {
		return prices, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.historicalConcurrency)
	for _, target := range targets {
		g.Go(func() error {
			price, ok := c.fetchHistoricalPrice(gctx, target, platform, timestamp, gate, maxRetries)
			if !ok {
				return nil
			}
			mu.Lock()
			prices[strings.ToLower(target)] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices, nil
}

// fetchHistoricalPrice resolves one token's price at the given instant. Any
// failure resolves to "no price" for that token only.
func (c *coinGeckoClientImpl) fetchHistoricalPrice(
	ctx context.Context,
	target, platform string,
	timestamp int64,
	gate entity.Gate,
	maxRetries int,
) (entity.Price, bool) {
	requestURL := c.historicalPriceURL(target, platform, timestamp)
	body, err := c.doRequest(ctx, requestURL, gate, maxRetries, "historical")
	if err != nil {
		c.logger.Warn("historical price request failed, token degrades to unpriced",
			zap.String("target", target),
			zap.String("platform", platform),
			zap.Error(err))
		return entity.Price{}, false
	}

	if platform == "" {
		var hist struct {
			MarketData struct {
				CurrentPrice struct {
					USD float64 `json:"usd"`
				} `json:"current_price"`
			} `json:"market_data"`
		}
		if err := json.Unmarshal(body, &hist); err != nil {
			c.logger.Warn("failed to unmarshal coin history response", zap.String("target", target), zap.Error(err))
			return entity.Price{}, false
		}
		if hist.MarketData.CurrentPrice.USD == 0 {
			return entity.Price{}, false
		}
		return entity.Price{USD: hist.MarketData.CurrentPrice.USD}, true
	}

	var chart struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &chart); err != nil {
		c.logger.Warn("failed to unmarshal market chart response", zap.String("target", target), zap.Error(err))
		return entity.Price{}, false
	}
	if len(chart.Prices) == 0 {
		return entity.Price{}, false
	}
	// Last sample in the window is the closest one at or before the instant.
	return entity.Price{USD: chart.Prices[len(chart.Prices)-1][1]}, true
}

// doRequest performs one GET with gated admission and transient-failure
// retries. The gate runs before every attempt, including retries.
func (c *coinGeckoClientImpl) doRequest(
	ctx context.Context,
	requestURL string,
	gate entity.Gate,
	maxRetries int,
	mode string,
) ([]byte, error) {
	if gate == nil {
		gate = entity.NopGate
	}
	if maxRetries <= 0 {
		maxRetries = entity.DefaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		if err := gate(ctx); err != nil {
			return nil, fmt.Errorf("admission gate rejected request: %w", err)
		}

		body, retryable, err := c.doOnce(ctx, requestURL)
		if err == nil {
			metrics.PriceRequests.WithLabelValues(mode, "success").Inc()
			return body, nil
		}
		metrics.PriceRequests.WithLabelValues(mode, "failure").Inc()
		if !retryable {
			return nil, err
		}
		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt+1, maxRetries, err)
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// doOnce performs a single HTTP round trip and reports whether a failure is
// worth retrying.
func (c *coinGeckoClientImpl) doOnce(ctx context.Context, requestURL string) (body []byte, retryable bool, err error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return nil, true, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusOK:
		return append([]byte(nil), resp.Body()...), false, nil
	case status == fasthttp.StatusTooManyRequests || status >= 500:
		return nil, true, fmt.Errorf("request to %s failed with status %d", requestURL, status)
	default:
		return nil, false, fmt.Errorf("request to %s failed with status %d: %s", requestURL, status, resp.Body())
	}
}

func (c *coinGeckoClientImpl) livePriceURL(platform string, targets []string) string {
	joined := strings.Join(targets, ",")
	if platform == "" {
		return fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, joined)
	}
	return fmt.Sprintf("%s/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd", c.baseURL, platform, joined)
}

func (c *coinGeckoClientImpl) historicalPriceURL(target, platform string, timestamp int64) string {
	if platform == "" {
		date := time.Unix(timestamp, 0).UTC().Format(historyDateFormat)
		return fmt.Sprintf("%s/coins/%s/history?date=%s&localization=false", c.baseURL, target, date)
	}
	from := timestamp - int64(rangeWindow.Seconds())
	return fmt.Sprintf("%s/coins/%s/contract/%s/market_chart/range?vs_currency=usd&from=%d&to=%d",
		c.baseURL, platform, strings.ToLower(target), from, timestamp)
}

func liveCacheKey(platform, target string) string {
	return "live:" + platform + ":" + target
}

// chunked yields the input in slices of at most size elements.
func chunked(items []string, size int) func(func([]string) bool) {
	return func(yield func([]string) bool) {
		for start := 0; start < len(items); start += size {
			end := start + size
			if end > len(items) {
				end = len(items)
			}
			if !yield(items[start:end]) {
				return
			}
		}
	}
}
