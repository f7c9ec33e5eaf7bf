package score

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/model"
)

// summaryThreshold is the criterion value at which a match is worth a summary line
const summaryThreshold = 0.6

var summaryTemplates = map[model.Criterion]string{
	model.CriterionIndustry:      "Operates in target industries (%s)",
	model.CriterionKeyword:       "Mentions target keywords (%s)",
	model.CriterionBusinessModel: "Business model fits (%s)",
	model.CriterionCustomerType:  "Serves target customers (%s)",
	model.CriterionSize:          "Size fits (%s)",
	model.CriterionCompliance:    "Holds required compliance (%s)",
	model.CriterionSignals:       "Shows preferred signals (%s)",
}

// Aggregate combines per-criterion results into the fit score, confidence and summary.
// Only applicable criteria are weighted; their weights are normalized to sum to 1.
func Aggregate(c *model.CandidateCompany, p *model.CriteriaProfile, results map[model.Criterion]Result, logger *zap.Logger) model.ScoredCandidate {
	if logger == nil {
		logger = zap.NewNop()
	}

	var total float64
	for _, crit := range model.ScoredCriteria {
		if Applicable(crit, p) {
			total += p.Weight(crit)
		}
	}

	out := model.ScoredCandidate{
		Candidate:               *c,
		DisqualificationReasons: []string{},
		Scores:                  make(map[model.Criterion]float64, len(model.ScoredCriteria)),
		Evidence:                model.DedupeEvidence(c.Evidence),
		MatchSummary:            []string{},
	}

	var fit, confSum float64
	weighted, withEvidence := 0, 0

	for _, crit := range model.ScoredCriteria {
		r := results[crit]
		value := checkedValue(crit, r.Value, c.Name, logger)
		out.Scores[crit] = value

		applicable := Applicable(crit, p)
		entry := model.CriterionScore{
			Criterion:  crit,
			Value:      value,
			Weight:     p.Weight(crit),
			Applicable: applicable,
			Detail:     r.Detail,
			Evidence:   r.Evidence,
		}

		if applicable && total > 0 {
			entry.NormalizedWeight = p.Weight(crit) / total
			fit += entry.NormalizedWeight * value
			weighted++

			if all := c.EvidenceFor(crit); len(all) > 0 {
				withEvidence++
				confSum += meanConfidence(all)
			} else {
				entry.NoEvidence = true
			}

			if value >= summaryThreshold {
				out.MatchSummary = append(out.MatchSummary, summaryLine(crit, r))
			}
		}
		out.Breakdown = append(out.Breakdown, entry)
	}

	if weighted > 0 {
		out.FitScore = clamp(100*fit, 0, 100)
		if withEvidence > 0 {
			completeness := float64(withEvidence) / float64(weighted)
			out.Confidence = clamp(confSum/float64(withEvidence)*completeness, 0, 1)
		}
	}

	for _, note := range c.Ambiguities {
		out.MatchSummary = append(out.MatchSummary, "Review: "+note)
	}
	return out
}

// Completeness is the share of weighted criteria with any evidence at all
func Completeness(c *model.CandidateCompany, p *model.CriteriaProfile) float64 {
	weighted, withEvidence := 0, 0
	for _, crit := range model.ScoredCriteria {
		if !Applicable(crit, p) {
			continue
		}
		weighted++
		if len(c.EvidenceFor(crit)) > 0 {
			withEvidence++
		}
	}
	if weighted == 0 {
		return 0
	}
	return float64(withEvidence) / float64(weighted)
}

// checkedValue clamps a criterion value into [0,1], logging any violation
func checkedValue(crit model.Criterion, v float64, candidate string, logger *zap.Logger) float64 {
	if !math.IsNaN(v) && v >= 0 && v <= 1 {
		return v
	}
	err := &model.AggregationInvariantError{Criterion: crit, Value: v}
	logger.Error("aggregation invariant violated",
		zap.String("candidate", candidate),
		zap.String("criterion", string(crit)),
		zap.Error(err),
	)
	return model.ClampConfidence(v)
}

func summaryLine(crit model.Criterion, r Result) string {
	line := fmt.Sprintf(summaryTemplates[crit], r.Detail)
	if best, ok := strongest(r.Evidence); ok {
		line += fmt.Sprintf(": %q", best.Snippet)
	}
	return line
}

// strongest returns the highest-confidence evidence, the earliest on ties
func strongest(items []model.Evidence) (model.Evidence, bool) {
	if len(items) == 0 {
		return model.Evidence{}, false
	}
	best := items[0]
	for _, ev := range items[1:] {
		if ev.Confidence > best.Confidence {
			best = ev
		}
	}
	return best, true
}

func meanConfidence(items []model.Evidence) float64 {
	var sum float64
	for _, ev := range items {
		sum += model.ClampConfidence(ev.Confidence)
	}
	return sum / float64(len(items))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
