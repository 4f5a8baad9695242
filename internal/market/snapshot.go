package market

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pair is a tradable currency pair as reported by the exchange.
// LastPrice is quoted in units of the quote currency per one unit of base.
type Pair struct {
	Symbol    string
	Base      string
	Quote     string
	LastPrice decimal.Decimal
	Volume    decimal.Decimal
}

// Snapshot is an immutable view of the liquid pair set at a point in time.
// The feed applies the minimum-volume filter before a snapshot is built,
// so everything in Pairs is considered executable at its quoted price.
type Snapshot struct {
	Pairs     map[string]Pair
	FetchedAt time.Time
}

// SplitSymbol decomposes an exchange symbol like "BTC-USDT" into its base and
// quote currencies. It reports ok=false for anything that does not split into
// exactly two distinct non-empty parts.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	base, quote, found := strings.Cut(symbol, "-")
	if !found || base == "" || quote == "" || base == quote {
		return "", "", false
	}
	if strings.Contains(quote, "-") {
		return "", "", false
	}
	return base, quote, true
}

// SignificantMoves returns the symbols present in both snapshots whose
// relative price change against prev exceeds threshold. Pairs that entered or
// left the liquid set are not reported; a changed membership is picked up by
// the wholesale graph rebuild anyway.
func (s *Snapshot) SignificantMoves(prev *Snapshot, threshold decimal.Decimal) []string {
	if prev == nil {
		return nil
	}
	var moved []string
	for symbol, pair := range s.Pairs {
		old, ok := prev.Pairs[symbol]
		if !ok || old.LastPrice.IsZero() {
			continue
		}
		change := pair.LastPrice.Sub(old.LastPrice).Div(old.LastPrice).Abs()
		if change.GreaterThan(threshold) {
			moved = append(moved, symbol)
		}
	}
	return moved
}
