package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/dealscout/internal/model"
)

// Result is one criterion's value with the evidence behind it
type Result struct {
	Value    float64
	Evidence []model.Evidence
	Detail   string
}

// CriterionFunc scores one criterion. Implementations are pure: they read the
// candidate and the profile and change neither.
type CriterionFunc func(c *model.CandidateCompany, p *model.CriteriaProfile) Result

// Scorers maps every weighted criterion to its scoring function
var Scorers = map[model.Criterion]CriterionFunc{
	model.CriterionIndustry:      ScoreIndustry,
	model.CriterionKeyword:       ScoreKeywords,
	model.CriterionBusinessModel: ScoreBusinessModel,
	model.CriterionCustomerType:  ScoreCustomerType,
	model.CriterionSize:          ScoreSize,
	model.CriterionCompliance:    ScoreCompliance,
	model.CriterionSignals:       ScoreSignals,
}

// Applicable reports whether a criterion takes part in weight normalization:
// it needs a configured rule and a positive weight
func Applicable(c model.Criterion, p *model.CriteriaProfile) bool {
	return p.HasRule(c) && p.Weight(c) > 0
}

// ScoreIndustry is the fraction of included industries matched by the
// candidate's industries or keywords
func ScoreIndustry(c *model.CandidateCompany, p *model.CriteriaProfile) Result {
	want := model.Normalize(p.IndustriesInclude)
	if len(want) == 0 {
		return Result{Value: 1, Detail: "no industries configured"}
	}

	var matched []string
	var evidence []model.Evidence
	for _, term := range want {
		hit := false
		for _, ind := range c.Industries {
			if strings.Contains(strings.ToLower(ind), term) {
				hit = true
				evidence = append(evidence, c.EvidenceForValue(model.FieldIndustry, ind)...)
			}
		}
		for _, kw := range c.Keywords {
			if strings.Contains(strings.ToLower(kw), term) {
				hit = true
				evidence = append(evidence, c.EvidenceForValue(model.FieldKeyword, kw)...)
			}
		}
		if hit {
			matched = append(matched, term)
		}
	}

	return Result{
		Value:    fraction(len(matched), len(want)),
		Evidence: model.DedupeEvidence(evidence),
		Detail:   matchDetail(matched, len(want), "industries"),
	}
}

// ScoreKeywords is the fraction of include keywords found on the candidate's pages
func ScoreKeywords(c *model.CandidateCompany, p *model.CriteriaProfile) Result {
	want := model.Normalize(p.KeywordsInclude)
	if len(want) == 0 {
		return Result{Value: 1, Detail: "no keywords configured"}
	}

	var matched []string
	var evidence []model.Evidence
	for _, term := range want {
		if !model.ContainsFold(c.Keywords, term) {
			continue
		}
		matched = append(matched, term)
		for _, ev := range c.EvidenceForValue(model.FieldKeyword, term) {
			if ev.Criterion == model.CriterionKeyword {
				evidence = append(evidence, ev)
			}
		}
	}

	return Result{
		Value:    fraction(len(matched), len(want)),
		Evidence: evidence,
		Detail:   matchDetail(matched, len(want), "keywords"),
	}
}

// ScoreBusinessModel is 1 when the business model is one of the wanted types.
// Missing required recurring revenue caps the value at 0.5.
func ScoreBusinessModel(c *model.CandidateCompany, p *model.CriteriaProfile) Result {
	rules := p.BusinessModel
	value := 1.0
	var details []string
	var evidence []model.Evidence

	if c.BusinessModel != "" {
		evidence = append(evidence, c.EvidenceForValue(model.FieldBusinessModel, c.BusinessModel)...)
	}

	if len(rules.Types) > 0 {
		switch {
		case c.BusinessModel == "":
			value = 0
			details = append(details, "business model unknown")
		case model.ContainsFold(rules.Types, c.BusinessModel):
			details = append(details, c.BusinessModel+" is a target model")
		default:
			value = 0
			details = append(details, c.BusinessModel+" is not a target model")
		}
	}

	if rules.RecurringRevenueRequired {
		if c.RecurringRevenue {
			evidence = append(evidence, c.EvidenceForField(model.FieldRecurringRevenue)...)
			details = append(details, "recurring revenue")
		} else {
			if value > 0.5 {
				value = 0.5
			}
			details = append(details, "no recurring revenue evidence")
		}
	}

	if len(details) == 0 {
		details = append(details, "no business model rules")
	}
	return Result{Value: value, Evidence: evidence, Detail: strings.Join(details, "; ")}
}

// ScoreCustomerType is the fraction of wanted customer types the candidate serves
func ScoreCustomerType(c *model.CandidateCompany, p *model.CriteriaProfile) Result {
	return overlap(p.CustomerType, c.CustomerTypes, c, model.FieldCustomerType, "customer types")
}

// ScoreSize checks employee count and revenue against their ranges.
// Every constrained dimension with data must pass; data for only part of the
// constrained dimensions, or none at all, is neutral at 0.5.
func ScoreSize(c *model.CandidateCompany, p *model.CriteriaProfile) Result {
	type dimension struct {
		name  string
		field model.Field
		rng   model.Range
		value *float64
	}

	var employees *float64
	if c.EmployeeCount != nil {
		n := float64(*c.EmployeeCount)
		employees = &n
	}
	dims := []dimension{
		{"employees", model.FieldEmployeeCount, p.Size.Employees(), employees},
		{"revenue", model.FieldRevenue, p.Size.Revenue(), c.Revenue},
	}

	constrained, evaluated := 0, 0
	var details []string
	var evidence []model.Evidence
	for _, d := range dims {
		if !d.rng.IsSet() {
			continue
		}
		constrained++
		if d.value == nil {
			details = append(details, d.name+" unknown")
			continue
		}
		evaluated++
		evidence = append(evidence, c.EvidenceForField(d.field)...)
		if !d.rng.Contains(*d.value) {
			details = append(details, fmt.Sprintf("%s %s outside %s", d.name, formatAmount(*d.value), formatRange(d.rng)))
			return Result{Value: 0, Evidence: evidence, Detail: strings.Join(details, "; ")}
		}
		details = append(details, fmt.Sprintf("%s %s within %s", d.name, formatAmount(*d.value), formatRange(d.rng)))
	}

	switch {
	case constrained == 0:
		return Result{Value: 1, Detail: "no size constraints"}
	case evaluated == 0:
		return Result{Value: 0.5, Detail: "no size data"}
	case evaluated < constrained:
		return Result{Value: 0.5, Evidence: evidence, Detail: strings.Join(details, "; ")}
	default:
		return Result{Value: 1, Evidence: evidence, Detail: strings.Join(details, "; ")}
	}
}

// ScoreCompliance is the fraction of required compliance tags present
func ScoreCompliance(c *model.CandidateCompany, p *model.CriteriaProfile) Result {
	return overlap(p.ComplianceTags, c.ComplianceTags, c, model.FieldComplianceTag, "compliance tags")
}

// ScoreSignals is the fraction of preferred signals detected
func ScoreSignals(c *model.CandidateCompany, p *model.CriteriaProfile) Result {
	return overlap(p.PreferredSignals, c.Signals, c, model.FieldSignal, "signals")
}

// overlap scores the share of wanted labels the candidate has. Labels compare
// ignoring case, spaces, hyphens and underscores ("SOC 2" equals "soc2").
func overlap(want, have []string, c *model.CandidateCompany, field model.Field, noun string) Result {
	if len(want) == 0 {
		return Result{Value: 1, Detail: "no " + noun + " configured"}
	}

	index := make(map[string]string, len(have))
	for _, h := range have {
		index[labelKey(h)] = h
	}

	seen := make(map[string]bool, len(want))
	var matched []string
	var evidence []model.Evidence
	total := 0
	for _, w := range want {
		key := labelKey(w)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		total++
		if h, ok := index[key]; ok {
			matched = append(matched, h)
			evidence = append(evidence, c.EvidenceForValue(field, h)...)
		}
	}

	return Result{
		Value:    fraction(len(matched), total),
		Evidence: evidence,
		Detail:   matchDetail(matched, total, noun),
	}
}

func labelKey(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(n) / float64(total)
}

func matchDetail(matched []string, total int, noun string) string {
	if len(matched) == 0 {
		return fmt.Sprintf("0/%d %s matched", total, noun)
	}
	return fmt.Sprintf("%d/%d %s matched (%s)", len(matched), total, noun, strings.Join(matched, ", "))
}

func formatAmount(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("%.0fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func formatRange(r model.Range) string {
	switch {
	case r.Min != nil && r.Max != nil:
		return formatAmount(*r.Min) + "-" + formatAmount(*r.Max)
	case r.Min != nil:
		return ">=" + formatAmount(*r.Min)
	case r.Max != nil:
		return "<=" + formatAmount(*r.Max)
	default:
		return "any"
	}
}
