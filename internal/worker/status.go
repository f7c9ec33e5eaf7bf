package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ppiankov/dealscout/internal/model"
)

// Status tracks a run's progress. Counters are updated atomically by the workers;
// readers only ever see a Snapshot.
type Status struct {
	mu        sync.RWMutex
	runID     string
	state     model.RunState
	startedAt time.Time

	found          atomic.Int64
	enriched       atomic.Int64
	scored         atomic.Int64
	pagesFetched   atomic.Int64
	pagesCached    atomic.Int64
	policyExcluded atomic.Int64
	fetchFailures  atomic.Int64
}

// NewStatus creates a pending status
func NewStatus() *Status {
	return &Status{state: model.RunPending}
}

// Start resets the counters for a new run
func (s *Status) Start(runID string, found int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runID = runID
	s.state = model.RunRunning
	s.startedAt = time.Now()

	s.found.Store(int64(found))
	s.enriched.Store(0)
	s.scored.Store(0)
	s.pagesFetched.Store(0)
	s.pagesCached.Store(0)
	s.policyExcluded.Store(0)
	s.fetchFailures.Store(0)
}

// SetState moves the run to a new state
func (s *Status) SetState(state model.RunState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State returns the current state
func (s *Status) State() model.RunState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RecordEnriched counts an enriched candidate and its page outcomes
func (s *Status) RecordEnriched(outcomes []model.FetchOutcome) {
	s.enriched.Add(1)
	for _, o := range outcomes {
		switch o.Status {
		case model.FetchStatusFetched:
			s.pagesFetched.Add(1)
		case model.FetchStatusCached:
			s.pagesCached.Add(1)
		case model.FetchStatusPolicyExcluded:
			s.policyExcluded.Add(1)
		case model.FetchStatusFailed:
			s.fetchFailures.Add(1)
		}
	}
}

// RecordScored counts a scored candidate
func (s *Status) RecordScored() {
	s.scored.Add(1)
}

// Snapshot returns a copy of the current progress
func (s *Status) Snapshot() model.RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.RunStats{
		RunID:          s.runID,
		State:          s.state,
		StartedAt:      s.startedAt,
		Found:          s.found.Load(),
		Enriched:       s.enriched.Load(),
		Scored:         s.scored.Load(),
		PagesFetched:   s.pagesFetched.Load(),
		PagesCached:    s.pagesCached.Load(),
		PolicyExcluded: s.policyExcluded.Load(),
		FetchFailures:  s.fetchFailures.Load(),
	}
}
