package score

import (
	"strings"

	"github.com/ppiankov/dealscout/internal/model"
)

// Rule is one hard disqualification check. It returns a reason, or "" when the
// candidate passes.
type Rule struct {
	Name  string
	Check func(c *model.CandidateCompany, p *model.CriteriaProfile) string
}

// Rules run in this order and never short-circuit
var Rules = []Rule{
	{Name: "dealbreaker", Check: checkDealbreakers},
	{Name: "geography", Check: checkGeography},
	{Name: "business_model", Check: checkBusinessModel},
	{Name: "industry_exclude", Check: checkExcludedIndustries},
	{Name: "keyword_exclude", Check: checkExcludedKeywords},
}

// Filter evaluates every rule and returns the reasons in rule order.
// A candidate is disqualified when the list is non-empty.
func Filter(c *model.CandidateCompany, p *model.CriteriaProfile) []string {
	var reasons []string
	for _, r := range Rules {
		if reason := r.Check(c, p); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}

func checkDealbreakers(c *model.CandidateCompany, p *model.CriteriaProfile) string {
	facts := make([]string, 0, len(c.Keywords)+len(c.Industries)+len(c.Signals))
	facts = append(facts, c.Keywords...)
	facts = append(facts, c.Industries...)
	facts = append(facts, c.Signals...)
	if hits := matchTerms(p.Dealbreakers, facts); len(hits) > 0 {
		return "Dealbreaker: " + strings.Join(hits, ", ")
	}
	return ""
}

// checkGeography only judges what is known; a candidate with no location passes
func checkGeography(c *model.CandidateCompany, p *model.CriteriaProfile) string {
	g := p.Geography

	if model.CountryCode(c.Country) != "" {
		for _, ex := range g.ExcludeCountries {
			if model.SameCountry(c.Country, ex) {
				return "Excluded country: " + c.Country
			}
		}
		if len(g.Countries) > 0 {
			member := false
			for _, want := range g.Countries {
				if model.SameCountry(c.Country, want) {
					member = true
					break
				}
			}
			if !member {
				return "Not in required countries: " + c.Country
			}
		}
	}

	if len(g.Regions) > 0 && strings.TrimSpace(c.Headquarters) != "" {
		hq := strings.ToLower(c.Headquarters)
		for _, region := range g.Regions {
			if r := strings.ToLower(strings.TrimSpace(region)); r != "" && strings.Contains(hq, r) {
				return ""
			}
		}
		return "Outside required regions: " + c.Headquarters
	}
	return ""
}

func checkBusinessModel(c *model.CandidateCompany, p *model.CriteriaProfile) string {
	if c.BusinessModel != "" && model.ContainsFold(p.BusinessModel.ExcludeTypes, c.BusinessModel) {
		return "Excluded business model: " + c.BusinessModel
	}
	return ""
}

func checkExcludedIndustries(c *model.CandidateCompany, p *model.CriteriaProfile) string {
	if hits := matchTerms(p.IndustriesExclude, c.Industries); len(hits) > 0 {
		return "Excluded industry: " + strings.Join(hits, ", ")
	}
	return ""
}

func checkExcludedKeywords(c *model.CandidateCompany, p *model.CriteriaProfile) string {
	if hits := matchTerms(p.KeywordsExclude, c.Keywords); len(hits) > 0 {
		return "Excluded keyword: " + strings.Join(hits, ", ")
	}
	return ""
}

// matchTerms returns the terms found as case-insensitive substrings of any fact,
// in term order without duplicates
func matchTerms(terms, facts []string) []string {
	var hits []string
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" || model.ContainsFold(hits, term) {
			continue
		}
		for _, f := range facts {
			if strings.Contains(strings.ToLower(f), t) {
				hits = append(hits, strings.TrimSpace(term))
				break
			}
		}
	}
	return hits
}
