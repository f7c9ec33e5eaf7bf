package score

import (
	"sort"

	"github.com/ppiankov/dealscout/internal/model"
)

// Before reports whether a is displayed ahead of b: qualified first, then fit
// score descending, confidence descending and name ascending
func Before(a, b *model.ScoredCandidate) bool {
	if a.IsDisqualified != b.IsDisqualified {
		return !a.IsDisqualified
	}
	if a.FitScore != b.FitScore {
		return a.FitScore > b.FitScore
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Name() < b.Name()
}

// Rank orders a copy of the list and numbers it 1..n.
// Ranking an already ranked list yields the same order and ranks.
func Rank(items []model.ScoredCandidate) []model.ScoredCandidate {
	out := append([]model.ScoredCandidate(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return Before(&out[i], &out[j]) })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
