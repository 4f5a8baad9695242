package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// APIServer exposes the scheduler status and the current ranking over HTTP.
// It reads the ranking through RankingStore.Top, so it only ever sees a
// complete scan's results.
type APIServer struct {
	server    *http.Server
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewAPIServer creates a new APIServer listening on the given port.
func NewAPIServer(scheduler *Scheduler, port int, logger *zap.Logger) *APIServer {
	s := &APIServer{
		scheduler: scheduler,
		logger:    logger.Named("api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/opportunities", s.opportunitiesHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	st := s.scheduler.Status()
	status := struct {
		State      string `json:"state"`
		StartTime  string `json:"start_time"`
		Uptime     string `json:"uptime"`
		CycleCount int64  `json:"cycle_count"`
		ScanCount  int64  `json:"scan_count"`
		LastScanAt string `json:"last_scan_at,omitempty"`
	}{
		State:      st.State,
		StartTime:  st.StartTime.Format(time.RFC3339),
		Uptime:     time.Since(st.StartTime).String(),
		CycleCount: st.CycleCount,
		ScanCount:  st.ScanCount,
	}
	if !st.LastScanAt.IsZero() {
		status.LastScanAt = st.LastScanAt.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("Failed to write status response", zap.Error(err))
		http.Error(w, "Failed to encode status", http.StatusInternalServerError)
	}
}

// opportunityView converts decimals to floats at the reporting boundary.
type opportunityView struct {
	Route         []string   `json:"route"`
	InitialAmount float64    `json:"initial_amount"`
	FinalAmount   float64    `json:"final_amount"`
	ProfitPct     float64    `json:"profit_percentage"`
	Steps         []stepView `json:"steps"`
}

type stepView struct {
	Symbol          string  `json:"pair"`
	Action          string  `json:"action"`
	Price           float64 `json:"price"`
	ResultingAmount float64 `json:"resulting_amount"`
}

func (s *APIServer) opportunitiesHandler(w http.ResponseWriter, r *http.Request) {
	top := s.scheduler.Store().Top()
	views := make([]opportunityView, len(top))
	for i, opp := range top {
		steps := make([]stepView, len(opp.Steps))
		for j, step := range opp.Steps {
			steps[j] = stepView{
				Symbol:          step.Symbol,
				Action:          step.Action,
				Price:           step.Price.InexactFloat64(),
				ResultingAmount: step.ResultingAmount.InexactFloat64(),
			}
		}
		views[i] = opportunityView{
			Route:         opp.Route,
			InitialAmount: opp.InitialAmount.InexactFloat64(),
			FinalAmount:   opp.FinalAmount.InexactFloat64(),
			ProfitPct:     opp.ProfitPct.InexactFloat64(),
			Steps:         steps,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		s.logger.Error("Failed to write opportunities response", zap.Error(err))
		http.Error(w, "Failed to encode opportunities", http.StatusInternalServerError)
	}
}
