// Package sink contains ResultSink implementations: the destinations that
// receive the ranked opportunities after each completed scan.
package sink

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"kucoin-arb-scanner-go/internal/scanner"
)

// LogSink writes the ranked opportunities to the log, one block per route
// with per-step lines.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("report")}
}

// Publish logs the ranking.
func (s *LogSink) Publish(_ context.Context, opps []scanner.Opportunity) error {
	if len(opps) == 0 {
		s.logger.Info("No profitable opportunities this scan")
		return nil
	}

	s.logger.Info("Top arbitrage opportunities", zap.Int("count", len(opps)))
	for i, opp := range opps {
		s.logger.Info("Opportunity",
			zap.Int("rank", i+1),
			zap.String("route", strings.Join(opp.Route, " -> ")),
			zap.String("profit_pct", opp.ProfitPct.StringFixed(4)),
			zap.String("initial_amount", opp.InitialAmount.String()),
			zap.String("final_amount", opp.FinalAmount.StringFixed(4)),
		)
		for _, step := range opp.Steps {
			s.logger.Info("  step",
				zap.String("pair", step.Symbol),
				zap.String("action", step.Action),
				zap.String("price", step.Price.String()),
				zap.String("resulting_amount", step.ResultingAmount.StringFixed(8)),
			)
		}
	}
	return nil
}
