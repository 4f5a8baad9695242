package sink

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"kucoin-arb-scanner-go/internal/models"
	"kucoin-arb-scanner-go/internal/scanner"
)

// DatabaseSink persists each scan's ranking so the history survives
// restarts. Rankings accumulate; the live top-K lives in the RankingStore,
// the database keeps everything ever published.
type DatabaseSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDatabaseSink creates a DatabaseSink.
func NewDatabaseSink(db *gorm.DB, logger *zap.Logger) *DatabaseSink {
	return &DatabaseSink{db: db, logger: logger}
}

// Publish writes the ranked opportunities and their legs in one transaction.
func (s *DatabaseSink) Publish(ctx context.Context, opps []scanner.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	now := time.Now().Unix()
	records := make([]models.Opportunity, len(opps))
	for i, opp := range opps {
		legs := make([]models.TradeLeg, len(opp.Steps))
		for j, step := range opp.Steps {
			legs[j] = models.TradeLeg{
				Symbol:          step.Symbol,
				Action:          step.Action,
				Price:           step.Price.InexactFloat64(),
				ResultingAmount: step.ResultingAmount.InexactFloat64(),
			}
		}
		records[i] = models.Opportunity{
			Route:         strings.Join(opp.Route, " -> "),
			Anchor:        opp.Path.Start(),
			InitialAmount: opp.InitialAmount.InexactFloat64(),
			FinalAmount:   opp.FinalAmount.InexactFloat64(),
			ProfitPct:     opp.ProfitPct.InexactFloat64(),
			ScanAt:        now,
			Legs:          legs,
		}
	}

	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return err
	}

	s.logger.Debug("Persisted scan results", zap.Int("count", len(records)))
	return nil
}
