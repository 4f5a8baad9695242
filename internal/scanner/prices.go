package scanner

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"kucoin-arb-scanner-go/internal/market"
)

// SnapshotPrices serves leg prices from an already-fetched snapshot. No
// network calls are made, so every opportunity in a scan is priced from the
// same refresh.
type SnapshotPrices struct {
	Snapshot *market.Snapshot
}

// PriceFor returns the snapshot's last price for symbol.
func (p SnapshotPrices) PriceFor(_ context.Context, symbol string) (decimal.Decimal, error) {
	pair, ok := p.Snapshot.Pairs[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("snapshot %s: %w", symbol, market.ErrPriceUnavailable)
	}
	return pair.LastPrice, nil
}
