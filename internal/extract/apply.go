package extract

import (
	"strconv"

	"github.com/ppiankov/dealscout/internal/model"
)

// Apply returns a copy of seed with the merged facts filled in and the evidence appended.
// Values the seed already carries win over extracted ones.
func Apply(seed model.CandidateCompany, r Result) model.CandidateCompany {
	c := seed
	c.Industries = union(seed.Industries, r.Values[model.FieldIndustry])
	c.Keywords = union(seed.Keywords, r.Values[model.FieldKeyword])
	c.CustomerTypes = union(seed.CustomerTypes, r.Values[model.FieldCustomerType])
	c.ComplianceTags = union(seed.ComplianceTags, r.Values[model.FieldComplianceTag])
	c.Signals = union(seed.Signals, r.Values[model.FieldSignal])

	if len(r.Values[model.FieldRecurringRevenue]) > 0 {
		c.RecurringRevenue = true
	}

	if c.BusinessModel == "" {
		c.BusinessModel = r.Resolved[model.FieldBusinessModel]
	}
	if c.EmployeeCount == nil {
		if v, ok := r.Resolved[model.FieldEmployeeCount]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				c.EmployeeCount = &n
			}
		}
	}
	if c.Revenue == nil {
		c.Revenue = parseAmount(r.Resolved[model.FieldRevenue])
	}
	if c.Funding == nil {
		c.Funding = parseAmount(r.Resolved[model.FieldFunding])
	}
	if c.Country == "" {
		c.Country = r.Resolved[model.FieldCountry]
	}
	if c.Headquarters == "" {
		c.Headquarters = r.Resolved[model.FieldHeadquarters]
	}

	c.Evidence = append(append([]model.Evidence(nil), seed.Evidence...), r.Evidence...)
	if len(r.Ambiguities) > 0 {
		c.Ambiguities = append(append([]string(nil), seed.Ambiguities...), r.Ambiguities...)
	}
	return c
}

func union(base, extra []string) []string {
	out := append([]string(nil), base...)
	for _, v := range extra {
		out = model.AddTerm(out, v)
	}
	return out
}

func parseAmount(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
