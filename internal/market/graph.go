package market

import "github.com/shopspring/decimal"

// Edge is one direction of a pair: converting an amount held in From into To.
// Rate is the pair's last price for the quote->base direction and its
// reciprocal for base->quote. Inverse marks the base->quote direction; the
// evaluator derives the trade action (buy or sell of the base currency) from
// this flag alone, never from symbol naming.
type Edge struct {
	From    string
	To      string
	Symbol  string
	Rate    decimal.Decimal
	Inverse bool
}

// Graph maps each currency to its outgoing conversion edges. A graph is built
// once per refresh and never mutated afterwards; a pair dropping out of the
// liquid set simply does not appear in the next build.
type Graph map[string][]Edge

// BuildGraph constructs a fresh conversion graph from a snapshot. Each pair
// contributes two edges: quote->base at the last price (buying base with
// quote) and base->quote at its reciprocal (selling base for quote).
// Malformed symbols and non-positive prices are skipped.
func BuildGraph(snapshot *Snapshot) Graph {
	g := make(Graph, len(snapshot.Pairs))
	for symbol, pair := range snapshot.Pairs {
		base, quote, ok := SplitSymbol(symbol)
		if !ok {
			continue
		}
		if !pair.LastPrice.IsPositive() {
			continue
		}
		g[quote] = append(g[quote], Edge{
			From:   quote,
			To:     base,
			Symbol: symbol,
			Rate:   pair.LastPrice,
		})
		g[base] = append(g[base], Edge{
			From:    base,
			To:      quote,
			Symbol:  symbol,
			Rate:    decimal.NewFromInt(1).Div(pair.LastPrice),
			Inverse: true,
		})
	}
	return g
}
