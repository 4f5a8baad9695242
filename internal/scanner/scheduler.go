package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kucoin-arb-scanner-go/internal/config"
	"kucoin-arb-scanner-go/internal/market"
)

// MarketDataFeed supplies liquidity-filtered snapshots of the tradable pair
// set.
type MarketDataFeed interface {
	FetchSnapshot(ctx context.Context) (*market.Snapshot, error)
}

// ResultSink receives the ranked opportunities after each completed scan.
type ResultSink interface {
	Publish(ctx context.Context, opps []Opportunity) error
}

// Status is a point-in-time view of the scheduler for the API server.
type Status struct {
	State      string    `json:"state"`
	StartTime  time.Time `json:"start_time"`
	ScanCount  int64     `json:"scan_count"`
	CycleCount int64     `json:"cycle_count"`
	LastScanAt time.Time `json:"last_scan_at"`
}

// Scheduler drives the refresh loop: fetch a snapshot, diff it against the
// previous one, rebuild the graph and re-scan when prices moved materially,
// then sleep until the next tick. The scheduler is the only component with a
// run loop; it owns the graph and the previous snapshot exclusively.
type Scheduler struct {
	logger    *zap.Logger
	cfg       *config.Config
	feed      MarketDataFeed
	level1    PriceSource // nil in snapshot mode
	evaluator Evaluator
	store     *RankingStore
	sinks     []ResultSink

	threshold decimal.Decimal
	amounts   []decimal.Decimal

	prev *market.Snapshot

	mu     sync.Mutex
	status Status
}

// NewScheduler creates a scheduler. level1 may be nil, in which case every
// scan prices its legs from the snapshot it was triggered by.
func NewScheduler(logger *zap.Logger, cfg *config.Config, feed MarketDataFeed, level1 PriceSource, store *RankingStore, sinks ...ResultSink) *Scheduler {
	amounts := make([]decimal.Decimal, len(cfg.Scanner.InitialAmounts))
	for i, a := range cfg.Scanner.InitialAmounts {
		amounts[i] = decimal.NewFromFloat(a)
	}

	return &Scheduler{
		logger:    logger,
		cfg:       cfg,
		feed:      feed,
		level1:    level1,
		evaluator: Evaluator{FeeRate: decimal.NewFromFloat(cfg.Scanner.FeeRate)},
		store:     store,
		sinks:     sinks,
		threshold: decimal.NewFromFloat(cfg.Scanner.PriceChangeThreshold),
		amounts:   amounts,
		status:    Status{State: "Idle"},
	}
}

// Store exposes the ranking store for readers.
func (s *Scheduler) Store() *RankingStore {
	return s.store
}

// Status returns a copy of the current scheduler status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) setState(state string) {
	s.mu.Lock()
	s.status.State = state
	s.mu.Unlock()
}

// Run executes refresh cycles until ctx is cancelled. The first cycle starts
// immediately; later ones fire on the configured interval. A failed cycle
// never stops the loop.
func (s *Scheduler) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.Scanner.RefreshInterval) * time.Second

	s.mu.Lock()
	s.status.StartTime = time.Now()
	s.mu.Unlock()

	s.logger.Info("Starting refresh loop",
		zap.Duration("interval", interval),
		zap.Strings("anchors", s.cfg.Scanner.Anchors),
		zap.String("price_source", s.cfg.Scanner.PriceSource),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping refresh loop")
			s.setState("Idle")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle performs one Fetching -> Diffing -> Rebuilding -> Scanning pass.
// On feed failure the cycle is skipped and the previous ranking stays intact.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.mu.Lock()
	s.status.CycleCount++
	s.mu.Unlock()

	s.setState("Fetching")
	snapshot, err := s.feed.FetchSnapshot(ctx)
	if err != nil {
		s.logger.Error("Snapshot fetch failed, skipping cycle", zap.Error(err))
		s.setState("Sleeping")
		return
	}

	s.setState("Diffing")
	firstCycle := s.prev == nil
	moved := snapshot.SignificantMoves(s.prev, s.threshold)
	s.prev = snapshot

	if !firstCycle && len(moved) == 0 {
		s.logger.Info("No significant price moves, skipping scan")
		s.setState("Sleeping")
		return
	}
	if len(moved) > 0 {
		s.logger.Info("Significant price moves detected", zap.Int("pairs", len(moved)))
	}

	s.setState("Rebuilding")
	graph := market.BuildGraph(snapshot)

	s.setState("Scanning")
	paths := s.enumeratePaths(graph)
	s.logger.Info("Enumerated candidate paths",
		zap.Int("paths", len(paths)),
		zap.Int("currencies", len(graph)),
	)

	prices := s.level1
	if prices == nil {
		prices = SnapshotPrices{Snapshot: snapshot}
	}

	results := s.evaluateAll(ctx, paths, prices)
	if ctx.Err() != nil {
		// Shutdown mid-scan: drop the partial result set rather than publish
		// a ranking mixing this cycle with none.
		s.setState("Idle")
		return
	}

	s.store.Update(results)

	top := s.store.Top()
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, top); err != nil {
			s.logger.Error("Failed to publish scan results", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.status.ScanCount++
	s.status.LastScanAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("Scan complete",
		zap.Int("evaluated", len(paths)*len(s.amounts)),
		zap.Int("profitable", s.store.Len()),
	)
	s.setState("Sleeping")
}

// enumeratePaths runs the cycle search for every configured anchor.
func (s *Scheduler) enumeratePaths(graph market.Graph) []market.Path {
	var paths []market.Path
	for _, anchor := range s.cfg.Scanner.Anchors {
		found := market.FindCycles(graph, anchor, s.cfg.Scanner.MinPathLen, s.cfg.Scanner.MaxPathLen)
		paths = append(paths, found...)
	}
	return paths
}

type evalJob struct {
	path    market.Path
	initial decimal.Decimal
}

// evaluateAll simulates every (path, initial amount) combination. Jobs run
// concurrently in batches of at most batch_size, with a pause between batches
// so a level1 price source does not hammer the exchange beyond the client's
// own limiter. Failed evaluations (unavailable leg price) are dropped, not
// fatal.
func (s *Scheduler) evaluateAll(ctx context.Context, paths []market.Path, prices PriceSource) []Opportunity {
	jobs := make([]evalJob, 0, len(paths)*len(s.amounts))
	for _, path := range paths {
		for _, initial := range s.amounts {
			jobs = append(jobs, evalJob{path: path, initial: initial})
		}
	}

	batchSize := s.cfg.Scanner.BatchSize
	// Pacing only matters when legs hit the network; snapshot-priced scans
	// run their batches back to back.
	var pause time.Duration
	if s.level1 != nil {
		pause = time.Duration(s.cfg.Scanner.BatchPause) * time.Second
	}

	var results []Opportunity
	for start := 0; start < len(jobs); start += batchSize {
		end := start + batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		batch := jobs[start:end]

		var wg sync.WaitGroup
		evaluated := make(chan Opportunity, len(batch))

		for _, job := range batch {
			wg.Add(1)
			go func(job evalJob) {
				defer wg.Done()
				opp, err := s.evaluator.Evaluate(ctx, job.path, job.initial, prices)
				if err != nil {
					s.logger.Debug("Path evaluation failed", zap.Error(err))
					return
				}
				evaluated <- opp
			}(job)
		}

		go func() {
			wg.Wait()
			close(evaluated)
		}()

		for opp := range evaluated {
			results = append(results, opp)
		}

		if ctx.Err() != nil {
			return results
		}

		if end < len(jobs) && pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return results
			}
		}
	}

	return results
}
