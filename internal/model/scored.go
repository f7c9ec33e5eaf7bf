package model

// ScoredCandidate is the scoring outcome for one candidate.
// The Ranker sets Rank; nothing changes afterwards.
type ScoredCandidate struct {
	Candidate               CandidateCompany      `json:"candidate"`
	IsDisqualified          bool                  `json:"is_disqualified"`
	DisqualificationReasons []string              `json:"disqualification_reasons"`
	Scores                  map[Criterion]float64 `json:"scores"`    // Per-criterion value in [0,1]
	Breakdown               []CriterionScore      `json:"breakdown"` // How each value was reached
	FitScore                float64               `json:"fit_score"` // 0..100
	Confidence              float64               `json:"confidence"`
	MatchSummary            []string              `json:"match_summary"`
	Evidence                []Evidence            `json:"evidence"` // Aggregated, de-duplicated
	Rank                    int                   `json:"rank"`
}

// Name returns the candidate name used for ordering
func (s *ScoredCandidate) Name() string {
	return s.Candidate.Name
}

// CriterionScore is the transparent per-criterion result
type CriterionScore struct {
	Criterion        Criterion  `json:"criterion"`
	Value            float64    `json:"value"`
	Weight           float64    `json:"weight"`            // As configured
	NormalizedWeight float64    `json:"normalized_weight"` // Share of the fit score
	Applicable       bool       `json:"applicable"`        // Has a rule and a non-zero weight
	Detail           string     `json:"detail"`            // e.g. "2/4 industries matched"
	Evidence         []Evidence `json:"evidence,omitempty"`
	NoEvidence       bool       `json:"no_evidence"` // Weighted but untraceable to any evidence
}
