package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFromPrices(t *testing.T, prices map[string]string) *Snapshot {
	t.Helper()
	pairs := make(map[string]Pair, len(prices))
	for symbol, price := range prices {
		base, quote, ok := SplitSymbol(symbol)
		require.True(t, ok, "test symbol %q must be well-formed", symbol)
		last, err := decimal.NewFromString(price)
		require.NoError(t, err)
		pairs[symbol] = Pair{
			Symbol:    symbol,
			Base:      base,
			Quote:     quote,
			LastPrice: last,
			Volume:    decimal.NewFromInt(1000000),
		}
	}
	return &Snapshot{Pairs: pairs, FetchedAt: time.Now()}
}

func TestSplitSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		base   string
		quote  string
		ok     bool
	}{
		{"BTC-USDT", "BTC", "USDT", true},
		{"ETH-BTC", "ETH", "BTC", true},
		{"BTCUSDT", "", "", false},
		{"BTC-", "", "", false},
		{"-USDT", "", "", false},
		{"A-B-C", "", "", false},
		{"BTC-BTC", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		base, quote, ok := SplitSymbol(tt.symbol)
		assert.Equal(t, tt.ok, ok, "symbol %q", tt.symbol)
		assert.Equal(t, tt.base, base, "symbol %q", tt.symbol)
		assert.Equal(t, tt.quote, quote, "symbol %q", tt.symbol)
	}
}

func TestBuildGraph_TwoEdgesPerPair(t *testing.T) {
	snap := snapshotFromPrices(t, map[string]string{"BTC-USDT": "60000"})

	g := BuildGraph(snap)

	require.Len(t, g["USDT"], 1)
	require.Len(t, g["BTC"], 1)

	forward := g["USDT"][0] // buy BTC with USDT
	inverse := g["BTC"][0]  // sell BTC for USDT

	assert.Equal(t, "BTC", forward.To)
	assert.False(t, forward.Inverse)
	assert.True(t, forward.Rate.Equal(decimal.NewFromInt(60000)))

	assert.Equal(t, "USDT", inverse.To)
	assert.True(t, inverse.Inverse)
	assert.Equal(t, "BTC-USDT", inverse.Symbol)
}

func TestBuildGraph_RateReciprocity(t *testing.T) {
	snap := snapshotFromPrices(t, map[string]string{
		"BTC-USDT": "60000",
		"ETH-BTC":  "0.05234",
		"XRP-USDT": "0.6213",
	})

	g := BuildGraph(snap)

	// For every pair, forwardRate * inverseRate == 1 to decimal precision.
	tolerance := decimal.New(1, -9)
	one := decimal.NewFromInt(1)
	for symbol, pair := range snap.Pairs {
		var forward, inverse decimal.Decimal
		for _, e := range g[pair.Quote] {
			if e.Symbol == symbol {
				forward = e.Rate
			}
		}
		for _, e := range g[pair.Base] {
			if e.Symbol == symbol {
				inverse = e.Rate
			}
		}
		product := forward.Mul(inverse)
		assert.True(t, product.Sub(one).Abs().LessThan(tolerance),
			"pair %s: forward*inverse = %s", symbol, product)
	}
}

func TestBuildGraph_SkipsMalformedAndNonPositive(t *testing.T) {
	snap := snapshotFromPrices(t, map[string]string{"BTC-USDT": "60000"})
	snap.Pairs["BROKEN"] = Pair{Symbol: "BROKEN", LastPrice: decimal.NewFromInt(1)}
	snap.Pairs["ETH-USDT"] = Pair{
		Symbol: "ETH-USDT", Base: "ETH", Quote: "USDT",
		LastPrice: decimal.Zero,
	}

	g := BuildGraph(snap)

	assert.NotContains(t, g, "BROKEN")
	assert.NotContains(t, g, "ETH")
	assert.Len(t, g["USDT"], 1) // only the BTC edge, malformed entries skipped
}

func TestBuildGraph_Idempotent(t *testing.T) {
	snap := snapshotFromPrices(t, map[string]string{
		"BTC-USDT": "60000",
		"ETH-USDT": "3000",
		"ETH-BTC":  "0.05",
	})

	first := BuildGraph(snap)
	second := BuildGraph(snap)

	require.Equal(t, len(first), len(second))
	for currency, edges := range first {
		assert.ElementsMatch(t, edges, second[currency], "currency %s", currency)
	}
}

func TestSignificantMoves(t *testing.T) {
	prev := snapshotFromPrices(t, map[string]string{
		"BTC-USDT": "60000",
		"ETH-USDT": "3000",
		"XRP-USDT": "0.60",
	})
	next := snapshotFromPrices(t, map[string]string{
		"BTC-USDT": "60600", // +1.0%
		"ETH-USDT": "3003",  // +0.1%
		"SOL-USDT": "150",   // new pair, not diffable
	})

	threshold := decimal.NewFromFloat(0.005)

	moved := next.SignificantMoves(prev, threshold)
	assert.Equal(t, []string{"BTC-USDT"}, moved)

	// No previous snapshot means nothing to diff.
	assert.Nil(t, next.SignificantMoves(nil, threshold))
}
