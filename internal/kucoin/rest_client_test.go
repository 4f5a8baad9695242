package kucoin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"kucoin-arb-scanner-go/internal/market"
)

// setupTestServer creates a new test server and a RestClient configured to use it.
func setupTestServer(handler http.Handler) (*RestClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	rc := &RestClient{
		client:    resty.New().SetBaseURL(server.URL),
		logger:    zap.NewNop(),
		limiter:   rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
		minVolume: decimal.NewFromInt(100000),
	}

	return rc, server
}

func TestGetServerTime(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/timestamp", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"code":"200000","data":1546837113087}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		serverTime, err := rc.GetServerTime()

		assert.NoError(t, err)
		assert.Equal(t, int64(1546837113087), serverTime)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"400100","msg":"Bad request"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		serverTime, err := rc.GetServerTime()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get server time")
		assert.Equal(t, int64(0), serverTime)
	})
}

func TestFetchSnapshot(t *testing.T) {
	t.Run("FiltersIlliquidAndMalformed", func(t *testing.T) {
		mockResponse := `{
			"code": "200000",
			"data": {
				"time": 1602832092060,
				"ticker": [
					{"symbol": "BTC-USDT", "last": "60000.1", "volValue": "250000000"},
					{"symbol": "ETH-USDT", "last": "3000", "volValue": "99999"},
					{"symbol": "WEIRD", "last": "1", "volValue": "500000"},
					{"symbol": "ZERO-USDT", "last": "0", "volValue": "500000"},
					{"symbol": "XRP-USDT", "last": "0.62", "volValue": "120000"}
				]
			}
		}`
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/market/allTickers", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(mockResponse))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		snap, err := rc.FetchSnapshot(context.Background())

		require.NoError(t, err)
		require.Len(t, snap.Pairs, 2)

		btc := snap.Pairs["BTC-USDT"]
		assert.Equal(t, "BTC", btc.Base)
		assert.Equal(t, "USDT", btc.Quote)
		assert.True(t, btc.LastPrice.Equal(decimal.RequireFromString("60000.1")))

		assert.Contains(t, snap.Pairs, "XRP-USDT")
		assert.NotContains(t, snap.Pairs, "ETH-USDT") // volume below the floor
		assert.NotContains(t, snap.Pairs, "WEIRD")
		assert.NotContains(t, snap.Pairs, "ZERO-USDT")
		assert.False(t, snap.FetchedAt.IsZero())
	})

	t.Run("ServerError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		_, err := rc.FetchSnapshot(context.Background())
		assert.Error(t, err)
	})
}

func TestPriceFor(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/market/orderbook/level1", r.URL.Path)
			assert.Equal(t, "BTC-USDT", r.URL.Query().Get("symbol"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"code": "200000",
				"data": {"sequence": "1550467636704", "price": "60123.4", "bestBid": "60123.3", "bestAsk": "60123.5", "time": 1550653727731}
			}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		price, err := rc.PriceFor(context.Background(), "BTC-USDT")

		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("60123.4")))
	})

	t.Run("UnknownSymbol", func(t *testing.T) {
		// KuCoin returns a success envelope with null data for symbols it
		// does not know.
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":"200000","data":null}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		_, err := rc.PriceFor(context.Background(), "NOPE-USDT")

		require.Error(t, err)
		assert.True(t, errors.Is(err, market.ErrPriceUnavailable))
	})

	t.Run("TransportFailure", func(t *testing.T) {
		rc, server := setupTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		_, err := rc.PriceFor(context.Background(), "BTC-USDT")

		require.Error(t, err)
		assert.True(t, errors.Is(err, market.ErrPriceUnavailable))
	})
}
