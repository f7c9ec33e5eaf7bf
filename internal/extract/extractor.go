package extract

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/llm"
	"github.com/ppiankov/dealscout/internal/model"
)

const (
	// resolvedConfidence is the confidence a single-valued field needs before
	// fallback strategies stop being consulted for it
	resolvedConfidence = 0.6

	// ambiguityMargin is the confidence gap under which a discarded value is reported
	ambiguityMargin = 0.1
)

// Result is the merged extraction output for one candidate
type Result struct {
	// Evidence holds every accepted item: pages in order, strategies by priority
	Evidence []model.Evidence

	// Resolved holds the winning value of each single-valued field
	Resolved map[model.Field]string

	// Values holds the union of values for multi-valued fields, sorted
	Values map[model.Field][]string

	Ambiguities []string
	Failures    []*model.ExtractionError
}

// Extractor runs strategies over pages and merges their evidence
type Extractor struct {
	primary  []Strategy
	fallback []Strategy
	logger   *zap.Logger
}

// NewExtractor orders strategies by method priority. Fallback strategies (llm)
// only run while weighted fields remain unresolved.
func NewExtractor(logger *zap.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	ordered := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Method().Priority() < ordered[j].Method().Priority()
	})

	x := &Extractor{logger: logger}
	for _, s := range ordered {
		if s.Method().IsFallback() {
			x.fallback = append(x.fallback, s)
		} else {
			x.primary = append(x.primary, s)
		}
	}
	return x
}

// DefaultStrategies returns the rule-based strategies plus an LLM fallback when a provider is given
func DefaultStrategies(provider llm.Provider, modelName string) []Strategy {
	strategies := []Strategy{NewPatternStrategy(), NewHeuristicStrategy()}
	if provider != nil {
		strategies = append(strategies, NewLLMStrategy(provider, modelName))
	}
	return strategies
}

// Extract runs every primary strategy on every page, then fallback strategies page
// by page until nothing relevant is left unresolved
func (x *Extractor) Extract(ctx context.Context, pages []Page, hint Hint) Result {
	var res Result

	for _, page := range pages {
		for _, s := range x.primary {
			res.Evidence = append(res.Evidence, x.run(ctx, s, page, hint, &res)...)
		}
	}

	for _, s := range x.fallback {
		for _, page := range pages {
			if ctx.Err() != nil {
				break
			}
			unresolved := Unresolved(hint.Profile, res.Evidence)
			if len(unresolved) == 0 {
				break
			}
			h := hint
			h.Unresolved = unresolved
			x.logger.Debug("fallback extraction",
				zap.String("strategy", s.Name()),
				zap.String("url", page.URL),
				zap.Int("unresolved", len(unresolved)),
			)
			res.Evidence = append(res.Evidence, x.run(ctx, s, page, h, &res)...)
		}
	}

	res.Resolved, res.Values, res.Ambiguities = merge(res.Evidence, pageOrder(pages))
	return res
}

// run calls one strategy on one page. Errors, panics and malformed output drop
// the strategy's whole output for that page.
func (x *Extractor) run(ctx context.Context, s Strategy, page Page, hint Hint, res *Result) (out []model.Evidence) {
	items, err := x.call(ctx, s, page, hint)
	if err == nil {
		out, err = sanitize(items, s.Method(), page.URL)
	}
	if err != nil {
		xerr := &model.ExtractionError{Strategy: s.Name(), URL: page.URL, Err: err}
		res.Failures = append(res.Failures, xerr)
		x.logger.Warn("strategy skipped",
			zap.String("strategy", s.Name()),
			zap.String("url", page.URL),
			zap.Error(xerr),
		)
		return nil
	}
	return out
}

func (x *Extractor) call(ctx context.Context, s Strategy, page Page, hint Hint) (items []model.Evidence, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Extract(ctx, page, hint)
}

func sanitize(items []model.Evidence, method model.ExtractionMethod, pageURL string) ([]model.Evidence, error) {
	out := make([]model.Evidence, 0, len(items))
	for _, ev := range items {
		if ev.Criterion == "" || ev.Field == "" || strings.TrimSpace(ev.Value) == "" || math.IsNaN(ev.Confidence) {
			return nil, fmt.Errorf("%w: criterion=%q field=%q value=%q confidence=%v",
				model.ErrMalformedEvidence, ev.Criterion, ev.Field, ev.Value, ev.Confidence)
		}
		ev.Confidence = model.ClampConfidence(ev.Confidence)
		ev.ExtractionMethod = method
		if ev.SourceURL == "" {
			ev.SourceURL = pageURL
		}
		out = append(out, ev)
	}
	return out, nil
}

// RelevantFields lists the fields that feed the profile's weighted criteria
func RelevantFields(p *model.CriteriaProfile) []model.Field {
	if p == nil {
		return nil
	}
	var out []model.Field
	for _, c := range p.WeightedCriteria() {
		switch c {
		case model.CriterionKeyword:
			// literal text matches only; a model cannot add to them
		case model.CriterionBusinessModel:
			if len(p.BusinessModel.Types) > 0 {
				out = append(out, model.FieldBusinessModel)
			}
			if p.BusinessModel.RecurringRevenueRequired {
				out = append(out, model.FieldRecurringRevenue)
			}
		case model.CriterionSize:
			if p.Size.Employees().IsSet() {
				out = append(out, model.FieldEmployeeCount)
			}
			if p.Size.Revenue().IsSet() {
				out = append(out, model.FieldRevenue)
			}
		default:
			out = append(out, fieldsFor(c)...)
		}
	}
	return out
}

// Unresolved lists relevant fields with no evidence, and single-valued fields
// whose best evidence is below the resolved threshold
func Unresolved(p *model.CriteriaProfile, evidence []model.Evidence) []model.Field {
	best := make(map[model.Field]float64)
	for _, ev := range evidence {
		if cur, ok := best[ev.Field]; !ok || ev.Confidence > cur {
			best[ev.Field] = ev.Confidence
		}
	}
	var out []model.Field
	for _, f := range RelevantFields(p) {
		conf, ok := best[f]
		if !ok || (f.SingleValued() && conf < resolvedConfidence) {
			out = append(out, f)
		}
	}
	return out
}

func pageOrder(pages []Page) map[string]int {
	order := make(map[string]int, len(pages))
	for i, p := range pages {
		if _, ok := order[p.URL]; !ok {
			order[p.URL] = i
		}
	}
	return order
}

type ranked struct {
	ev   model.Evidence
	page int
}

// before orders evidence for conflict resolution: confidence, then method
// priority, then page order, then value
func (a ranked) before(b ranked) bool {
	if a.ev.Confidence != b.ev.Confidence {
		return a.ev.Confidence > b.ev.Confidence
	}
	if pa, pb := a.ev.ExtractionMethod.Priority(), b.ev.ExtractionMethod.Priority(); pa != pb {
		return pa < pb
	}
	if a.page != b.page {
		return a.page < b.page
	}
	return a.ev.Value < b.ev.Value
}

func merge(evidence []model.Evidence, order map[string]int) (map[model.Field]string, map[model.Field][]string, []string) {
	resolved := make(map[model.Field]string)
	values := make(map[model.Field][]string)

	// best evidence per single-valued field and case-folded value
	groups := make(map[model.Field]map[string]ranked)
	for _, ev := range evidence {
		if !ev.Field.SingleValued() {
			values[ev.Field] = model.AddTerm(values[ev.Field], ev.Value)
			continue
		}
		page, ok := order[ev.SourceURL]
		if !ok {
			page = len(order)
		}
		r := ranked{ev: ev, page: page}
		if groups[ev.Field] == nil {
			groups[ev.Field] = make(map[string]ranked)
		}
		key := strings.ToLower(ev.Value)
		if cur, ok := groups[ev.Field][key]; !ok || r.before(cur) {
			groups[ev.Field][key] = r
		}
	}

	fields := make([]string, 0, len(groups))
	for f := range groups {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	var ambiguities []string
	for _, name := range fields {
		f := model.Field(name)
		candidates := make([]ranked, 0, len(groups[f]))
		for _, r := range groups[f] {
			candidates = append(candidates, r)
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].before(candidates[j]) })

		winner := candidates[0]
		resolved[f] = winner.ev.Value
		if len(candidates) > 1 {
			runnerUp := candidates[1]
			if winner.ev.Confidence-runnerUp.ev.Confidence < ambiguityMargin {
				ambiguities = append(ambiguities, fmt.Sprintf("ambiguous %s: kept %q (%s, %.2f) over %q (%s, %.2f)",
					f, winner.ev.Value, winner.ev.ExtractionMethod, winner.ev.Confidence,
					runnerUp.ev.Value, runnerUp.ev.ExtractionMethod, runnerUp.ev.Confidence))
			}
		}
	}
	return resolved, values, ambiguities
}
