package scanner

import (
	"sort"
	"sync"
)

// RankingStore holds the top-K opportunities of the most recent scan, sorted
// by profit descending. Contents are replaced wholesale each scan; a scan
// that never runs (feed failure, no significant moves) leaves the previous
// ranking intact. Reads get a copy, so the API server never observes a
// half-replaced slice.
type RankingStore struct {
	mu   sync.RWMutex
	topK int
	opps []Opportunity
}

// NewRankingStore creates a store retaining up to topK entries.
func NewRankingStore(topK int) *RankingStore {
	return &RankingStore{topK: topK}
}

// Update replaces the stored ranking with the profitable subset of opps,
// sorted by profit descending. Ties keep their input order. Non-profitable
// opportunities are discarded entirely, not ranked low.
func (s *RankingStore) Update(opps []Opportunity) {
	ranked := make([]Opportunity, 0, len(opps))
	for _, opp := range opps {
		if opp.ProfitPct.IsPositive() {
			ranked = append(ranked, opp)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ProfitPct.GreaterThan(ranked[j].ProfitPct)
	})

	if len(ranked) > s.topK {
		ranked = ranked[:s.topK]
	}

	s.mu.Lock()
	s.opps = ranked
	s.mu.Unlock()
}

// Top returns a copy of the current ranking.
func (s *RankingStore) Top() []Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Opportunity, len(s.opps))
	copy(out, s.opps)
	return out
}

// Len returns the number of stored opportunities.
func (s *RankingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.opps)
}
