package score

import (
	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/model"
)

// Engine filters, scores and ranks enriched candidates against one profile
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a scoring engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Score evaluates one candidate. Disqualified candidates skip the criterion
// scorers: every value is 0, fit is 0 and confidence is data completeness only.
func (e *Engine) Score(c model.CandidateCompany, p *model.CriteriaProfile) model.ScoredCandidate {
	if reasons := Filter(&c, p); len(reasons) > 0 {
		e.logger.Debug("disqualified",
			zap.String("candidate", c.Name),
			zap.Strings("reasons", reasons),
		)
		return disqualified(&c, p, reasons)
	}

	results := make(map[model.Criterion]Result, len(Scorers))
	for _, crit := range model.ScoredCriteria {
		results[crit] = Scorers[crit](&c, p)
	}
	return Aggregate(&c, p, results, e.logger)
}

// ScoreAndRank scores every candidate and returns the ranked list
func (e *Engine) ScoreAndRank(candidates []model.CandidateCompany, p *model.CriteriaProfile) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, e.Score(c, p))
	}
	return Rank(scored)
}

func disqualified(c *model.CandidateCompany, p *model.CriteriaProfile, reasons []string) model.ScoredCandidate {
	out := model.ScoredCandidate{
		Candidate:               *c,
		IsDisqualified:          true,
		DisqualificationReasons: reasons,
		Scores:                  make(map[model.Criterion]float64, len(model.ScoredCriteria)),
		Confidence:              Completeness(c, p),
		MatchSummary:            []string{},
		Evidence:                model.DedupeEvidence(c.Evidence),
	}
	for _, crit := range model.ScoredCriteria {
		out.Scores[crit] = 0
		out.Breakdown = append(out.Breakdown, model.CriterionScore{
			Criterion:  crit,
			Weight:     p.Weight(crit),
			Applicable: Applicable(crit, p),
			Detail:     "disqualified",
		})
	}
	return out
}
