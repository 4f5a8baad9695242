package kucoin

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"kucoin-arb-scanner-go/internal/config"
	"kucoin-arb-scanner-go/internal/market"
)

const successCode = "200000"

// RestClientInterface defines the interface for the KuCoin REST API client.
type RestClientInterface interface {
	GetServerTime() (int64, error)
	FetchSnapshot(ctx context.Context) (*market.Snapshot, error)
	PriceFor(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// RestClient is a client for the KuCoin public REST API. Only market-data
// endpoints are used, so no request signing is needed. It implements the
// RestClientInterface.
type RestClient struct {
	client    *resty.Client
	logger    *zap.Logger
	limiter   *rate.Limiter
	minVolume decimal.Decimal
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a new KuCoin REST API client. minVolume is the 24h
// quote-volume floor below which pairs are excluded from snapshots.
func NewRestClient(cfg *config.KuCoin, minVolume float64, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:    client,
		logger:    logger,
		limiter:   limiter,
		minVolume: decimal.NewFromFloat(minVolume),
	}
}

// envelope is the outer wrapper KuCoin puts around every response body.
type envelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetServerTime fetches the current server time from KuCoin.
// This is a good endpoint to test connectivity.
func (c *RestClient) GetServerTime() (int64, error) {
	type serverTimeResponse struct {
		envelope
		Data int64 `json:"data"`
	}

	var result serverTimeResponse
	req := c.client.R().SetResult(&result)

	if _, err := c.doRequest(context.Background(), "GET", "/api/v1/timestamp", req); err != nil {
		c.logger.Error("Failed to get server time", zap.Error(err))
		return 0, fmt.Errorf("failed to get server time: %w", err)
	}
	if result.Code != successCode {
		return 0, fmt.Errorf("failed to get server time: code %s: %s", result.Code, result.Msg)
	}

	return result.Data, nil
}

// allTickersTicker is one entry of the allTickers response.
type allTickersTicker struct {
	Symbol   string `json:"symbol"`
	Last     string `json:"last"`
	VolValue string `json:"volValue"` // 24h volume in quote units
}

type allTickersResponse struct {
	envelope
	Data struct {
		Time   int64              `json:"time"`
		Ticker []allTickersTicker `json:"ticker"`
	} `json:"data"`
}

// FetchSnapshot fetches all tickers and returns the liquid pair set as an
// immutable snapshot. Pairs with malformed symbols, non-positive prices, or
// 24h volume at or below the configured floor are skipped.
func (c *RestClient) FetchSnapshot(ctx context.Context) (*market.Snapshot, error) {
	var result allTickersResponse
	req := c.client.R().
		SetResult(&result).
		SetHeader("Content-Type", "application/json")

	if _, err := c.doRequest(ctx, "GET", "/api/v1/market/allTickers", req); err != nil {
		return nil, fmt.Errorf("failed to get all tickers: %w", err)
	}
	if result.Code != successCode {
		return nil, fmt.Errorf("failed to get all tickers: code %s: %s", result.Code, result.Msg)
	}

	pairs := make(map[string]market.Pair, len(result.Data.Ticker))
	for _, t := range result.Data.Ticker {
		base, quote, ok := market.SplitSymbol(t.Symbol)
		if !ok {
			c.logger.Debug("Skipping malformed symbol", zap.String("symbol", t.Symbol))
			continue
		}
		last, err := decimal.NewFromString(t.Last)
		if err != nil || !last.IsPositive() {
			continue
		}
		volume, err := decimal.NewFromString(t.VolValue)
		if err != nil {
			continue
		}
		if !volume.GreaterThan(c.minVolume) {
			continue
		}
		pairs[t.Symbol] = market.Pair{
			Symbol:    t.Symbol,
			Base:      base,
			Quote:     quote,
			LastPrice: last,
			Volume:    volume,
		}
	}

	c.logger.Info("Fetched market snapshot",
		zap.Int("total_tickers", len(result.Data.Ticker)),
		zap.Int("liquid_pairs", len(pairs)),
	)

	return &market.Snapshot{Pairs: pairs, FetchedAt: time.Now()}, nil
}

type level1Response struct {
	envelope
	Data *struct {
		Sequence string `json:"sequence"`
		Price    string `json:"price"`
		BestBid  string `json:"bestBid"`
		BestAsk  string `json:"bestAsk"`
		Time     int64  `json:"time"`
	} `json:"data"`
}

// PriceFor fetches the level1 (top of book) ticker for a symbol and returns
// its last dealt price. A missing symbol or empty book yields
// market.ErrPriceUnavailable; no stale or zero price is ever substituted.
func (c *RestClient) PriceFor(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var result level1Response
	req := c.client.R().
		SetResult(&result).
		SetQueryParam("symbol", symbol)

	if _, err := c.doRequest(ctx, "GET", "/api/v1/market/orderbook/level1", req); err != nil {
		return decimal.Zero, fmt.Errorf("level1 %s: %w: %w", symbol, market.ErrPriceUnavailable, err)
	}
	if result.Code != successCode || result.Data == nil || result.Data.Price == "" {
		return decimal.Zero, fmt.Errorf("level1 %s: %w", symbol, market.ErrPriceUnavailable)
	}

	price, err := decimal.NewFromString(result.Data.Price)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("level1 %s: bad price %q: %w", symbol, result.Data.Price, market.ErrPriceUnavailable)
	}

	return price, nil
}
