package model

import (
	"sort"
	"strings"
)

// Criterion names one axis of fit
type Criterion string

const (
	CriterionIndustry      Criterion = "industry"       // Industry overlap
	CriterionKeyword       Criterion = "keyword"        // Include-keyword coverage
	CriterionBusinessModel Criterion = "business_model" // Business model type and recurring revenue
	CriterionCustomerType  Criterion = "customer_type"  // Customer segment overlap
	CriterionSize          Criterion = "size"           // Employee count and revenue bounds
	CriterionCompliance    Criterion = "compliance"     // Required compliance tags
	CriterionSignals       Criterion = "signals"        // Preferred growth signals
	CriterionGeography     Criterion = "geography"      // Location facts (filter only, never weighted)
	CriterionDealbreaker   Criterion = "dealbreaker"    // Dealbreaker and exclusion terms (filter only)
)

// ScoredCriteria lists the weighted criteria in evaluation order
var ScoredCriteria = []Criterion{
	CriterionIndustry,
	CriterionKeyword,
	CriterionBusinessModel,
	CriterionCustomerType,
	CriterionSize,
	CriterionCompliance,
	CriterionSignals,
}

// DefaultWeights apply when a profile carries no weights at all
var DefaultWeights = map[Criterion]float64{
	CriterionIndustry:      0.20,
	CriterionKeyword:       0.15,
	CriterionBusinessModel: 0.20,
	CriterionCustomerType:  0.15,
	CriterionSize:          0.10,
	CriterionCompliance:    0.05,
	CriterionSignals:       0.05,
}

// IsScored reports whether the criterion can carry a weight
func (c Criterion) IsScored() bool {
	for _, s := range ScoredCriteria {
		if s == c {
			return true
		}
	}
	return false
}

// CriteriaProfile is the scoring configuration for one run.
// It is built and validated once (see internal/criteria) and never mutated afterwards.
type CriteriaProfile struct {
	IndustriesInclude []string           `json:"industries_include" yaml:"industries_include" mapstructure:"industries_include"`
	IndustriesExclude []string           `json:"industries_exclude" yaml:"industries_exclude" mapstructure:"industries_exclude"`
	KeywordsInclude   []string           `json:"keywords_include" yaml:"keywords_include" mapstructure:"keywords_include"`
	KeywordsExclude   []string           `json:"keywords_exclude" yaml:"keywords_exclude" mapstructure:"keywords_exclude"`
	Geography         Geography          `json:"geography" yaml:"geography" mapstructure:"geography"`
	Size              SizeConstraints    `json:"size" yaml:"size" mapstructure:"size"`
	BusinessModel     BusinessModelRules `json:"business_model" yaml:"business_model" mapstructure:"business_model"`
	CustomerType      []string           `json:"customer_type" yaml:"customer_type" mapstructure:"customer_type"`
	ComplianceTags    []string           `json:"compliance_tags" yaml:"compliance_tags" mapstructure:"compliance_tags"`
	Dealbreakers      []string           `json:"dealbreakers" yaml:"dealbreakers" mapstructure:"dealbreakers"`
	PreferredSignals  []string           `json:"preferred_signals" yaml:"preferred_signals" mapstructure:"preferred_signals"`
	Weights           map[string]float64 `json:"weights" yaml:"weights" mapstructure:"weights"`
}

// Geography constrains candidate location
type Geography struct {
	Countries        []string `json:"countries" yaml:"countries" mapstructure:"countries"`                         // ISO codes or names; empty = any
	ExcludeCountries []string `json:"exclude_countries" yaml:"exclude_countries" mapstructure:"exclude_countries"` // ISO codes or names
	Regions          []string `json:"regions" yaml:"regions" mapstructure:"regions"`                               // Matched against headquarters text
}

// SizeConstraints holds optional employee and revenue bounds
type SizeConstraints struct {
	EmployeesMin *float64 `json:"employees_min,omitempty" yaml:"employees_min,omitempty" mapstructure:"employees_min"`
	EmployeesMax *float64 `json:"employees_max,omitempty" yaml:"employees_max,omitempty" mapstructure:"employees_max"`
	RevenueMin   *float64 `json:"revenue_min,omitempty" yaml:"revenue_min,omitempty" mapstructure:"revenue_min"`
	RevenueMax   *float64 `json:"revenue_max,omitempty" yaml:"revenue_max,omitempty" mapstructure:"revenue_max"`
}

// Employees returns the employee range
func (s SizeConstraints) Employees() Range {
	return Range{Min: s.EmployeesMin, Max: s.EmployeesMax}
}

// Revenue returns the revenue range
func (s SizeConstraints) Revenue() Range {
	return Range{Min: s.RevenueMin, Max: s.RevenueMax}
}

// IsSet reports whether any size bound is configured
func (s SizeConstraints) IsSet() bool {
	return s.Employees().IsSet() || s.Revenue().IsSet()
}

// Range is a numeric interval; a nil bound is unconstrained on that side
type Range struct {
	Min *float64
	Max *float64
}

// IsSet reports whether either bound is present
func (r Range) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

// Contains reports whether v lies within the range (inclusive)
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// BusinessModelRules constrains the business model
type BusinessModelRules struct {
	Types                    []string `json:"types" yaml:"types" mapstructure:"types"`
	ExcludeTypes             []string `json:"exclude_types" yaml:"exclude_types" mapstructure:"exclude_types"`
	RecurringRevenueRequired bool     `json:"recurring_revenue_required" yaml:"recurring_revenue_required" mapstructure:"recurring_revenue_required"`
}

// Weight returns the configured weight for a criterion.
// An empty weights map falls back to DefaultWeights; otherwise an absent criterion weighs 0.
func (p *CriteriaProfile) Weight(c Criterion) float64 {
	if len(p.Weights) == 0 {
		return DefaultWeights[c]
	}
	return p.Weights[string(c)]
}

// HasRule reports whether the profile configures anything the criterion can score against
func (p *CriteriaProfile) HasRule(c Criterion) bool {
	switch c {
	case CriterionIndustry:
		return len(p.IndustriesInclude) > 0
	case CriterionKeyword:
		return len(p.KeywordsInclude) > 0
	case CriterionBusinessModel:
		return len(p.BusinessModel.Types) > 0 || p.BusinessModel.RecurringRevenueRequired
	case CriterionCustomerType:
		return len(p.CustomerType) > 0
	case CriterionSize:
		return p.Size.IsSet()
	case CriterionCompliance:
		return len(p.ComplianceTags) > 0
	case CriterionSignals:
		return len(p.PreferredSignals) > 0
	default:
		return false
	}
}

// WeightedCriteria returns the criteria that have a rule and a non-zero weight, in evaluation order
func (p *CriteriaProfile) WeightedCriteria() []Criterion {
	var out []Criterion
	for _, c := range ScoredCriteria {
		if p.HasRule(c) && p.Weight(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Normalize lowercases, trims and de-duplicates a term list, returning it sorted
func Normalize(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ContainsFold reports whether list holds s, ignoring case and surrounding space
func ContainsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), s) {
			return true
		}
	}
	return false
}
