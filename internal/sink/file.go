package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"kucoin-arb-scanner-go/internal/scanner"
)

// FileSink dumps the current ranking to a JSON file, replacing the previous
// dump on every publish. The write goes through a temp file and rename so a
// reader never sees a torn file.
type FileSink struct {
	path   string
	logger *zap.Logger
}

// NewFileSink creates a FileSink writing to path.
func NewFileSink(path string, logger *zap.Logger) *FileSink {
	return &FileSink{path: path, logger: logger}
}

type fileOpportunity struct {
	Route            []string   `json:"route"`
	InitialAmount    float64    `json:"initial_amount"`
	FinalAmount      float64    `json:"final_amount"`
	ProfitPercentage float64    `json:"profit_percentage"`
	Steps            []fileStep `json:"steps"`
}

type fileStep struct {
	Pair            string  `json:"pair"`
	Action          string  `json:"action"`
	Price           float64 `json:"price"`
	ResultingAmount float64 `json:"resulting_amount"`
}

// Publish writes the ranking as indented JSON.
func (s *FileSink) Publish(_ context.Context, opps []scanner.Opportunity) error {
	out := make([]fileOpportunity, len(opps))
	for i, opp := range opps {
		steps := make([]fileStep, len(opp.Steps))
		for j, step := range opp.Steps {
			steps[j] = fileStep{
				Pair:            step.Symbol,
				Action:          step.Action,
				Price:           step.Price.InexactFloat64(),
				ResultingAmount: step.ResultingAmount.InexactFloat64(),
			}
		}
		out[i] = fileOpportunity{
			Route:            opp.Route,
			InitialAmount:    opp.InitialAmount.InexactFloat64(),
			FinalAmount:      opp.FinalAmount.InexactFloat64(),
			ProfitPercentage: opp.ProfitPct.InexactFloat64(),
			Steps:            steps,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".opportunities-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	s.logger.Debug("Wrote opportunities file", zap.String("path", s.path), zap.Int("count", len(opps)))
	return nil
}
