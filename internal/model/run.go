package model

import "time"

// RunState is the lifecycle state of a run
type RunState string

const (
	RunPending   RunState = "pending"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunCancelled RunState = "cancelled"
	RunFailed    RunState = "failed"
)

// Finished reports whether the run has reached a terminal state
func (s RunState) Finished() bool {
	return s == RunCompleted || s == RunCancelled || s == RunFailed
}

// RunStats is a point-in-time copy of a run's progress counters
type RunStats struct {
	RunID          string    `json:"run_id"`
	State          RunState  `json:"state"`
	StartedAt      time.Time `json:"started_at"`
	Found          int64     `json:"found"`
	Enriched       int64     `json:"enriched"`
	Scored         int64     `json:"scored"`
	PagesFetched   int64     `json:"pages_fetched"`
	PagesCached    int64     `json:"pages_cached"`
	PolicyExcluded int64     `json:"policy_excluded"`
	FetchFailures  int64     `json:"fetch_failures"`
}

// CandidateFailure is a candidate that produced no score
type CandidateFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// RunResult is the outcome of one run: the ranked candidates and how the run went
type RunResult struct {
	RunID      string             `json:"run_id"`
	State      RunState           `json:"state"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Profile    *CriteriaProfile   `json:"criteria"`
	Candidates []ScoredCandidate  `json:"candidates"`
	Failures   []CandidateFailure `json:"failures,omitempty"`
	Stats      RunStats           `json:"stats"`
}
