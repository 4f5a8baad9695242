package scanner

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"kucoin-arb-scanner-go/internal/market"
)

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// PriceSource supplies the live price for one pair symbol during evaluation.
// Implementations may serve the already-fetched snapshot or call the
// exchange's level1 orderbook endpoint per leg.
type PriceSource interface {
	PriceFor(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Step records one executed leg of a simulated loop.
type Step struct {
	Symbol          string
	Action          string
	Price           decimal.Decimal
	ResultingAmount decimal.Decimal
}

// Opportunity is the result of simulating one path at one initial amount.
// It is immutable once returned and owns copies of everything it references.
type Opportunity struct {
	Path          market.Path
	Route         []string
	InitialAmount decimal.Decimal
	FinalAmount   decimal.Decimal
	ProfitPct     decimal.Decimal
	Steps         []Step
}

// Evaluator simulates sequential conversion along a path, charging a
// multiplicative fee on every leg.
type Evaluator struct {
	FeeRate decimal.Decimal
}

var one = decimal.NewFromInt(1)

// Evaluate walks the path leg by leg carrying a running amount. An edge with
// Inverse set converts base into quote, a sell of the base currency at the
// live price; the opposite direction buys base, dividing by the price. Each
// leg's result is scaled by (1 - fee). If any leg's price is unavailable the
// whole path fails and no Opportunity is produced.
func (e Evaluator) Evaluate(ctx context.Context, path market.Path, initial decimal.Decimal, prices PriceSource) (Opportunity, error) {
	if len(path.Edges) == 0 {
		return Opportunity{}, fmt.Errorf("evaluate: empty path")
	}

	feeFactor := one.Sub(e.FeeRate)
	amount := initial
	steps := make([]Step, 0, len(path.Edges))

	for _, edge := range path.Edges {
		price, err := prices.PriceFor(ctx, edge.Symbol)
		if err != nil {
			return Opportunity{}, fmt.Errorf("evaluate %s leg %s: %w", path.Start(), edge.Symbol, err)
		}
		if !price.IsPositive() {
			return Opportunity{}, fmt.Errorf("evaluate %s leg %s: %w", path.Start(), edge.Symbol, market.ErrPriceUnavailable)
		}

		var action string
		if edge.Inverse {
			action = ActionSell
			amount = amount.Mul(price)
		} else {
			action = ActionBuy
			amount = amount.Div(price)
		}
		amount = amount.Mul(feeFactor)

		steps = append(steps, Step{
			Symbol:          edge.Symbol,
			Action:          action,
			Price:           price,
			ResultingAmount: amount,
		})
	}

	profit := amount.Sub(initial).Div(initial).Mul(decimal.NewFromInt(100))

	return Opportunity{
		Path:          path,
		Route:         path.Route(),
		InitialAmount: initial,
		FinalAmount:   amount,
		ProfitPct:     profit,
		Steps:         steps,
	}, nil
}
