package model

import (
	"sort"
	"strings"
)

// CandidateCompany is a company under evaluation.
// Discovery supplies the identity; the extractor fills the attributes and appends evidence.
type CandidateCompany struct {
	Name    string `json:"name"`
	Domain  string `json:"domain"`           // Canonical domain (no scheme, www or port)
	Website string `json:"website"`          // Full site URL used for crawling
	Source  string `json:"source,omitempty"` // Discovery source that supplied the seed

	Industries       []string `json:"industries,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	EmployeeCount    *int     `json:"employee_count,omitempty"`
	Revenue          *float64 `json:"revenue,omitempty"` // USD per year
	Funding          *float64 `json:"funding,omitempty"` // USD raised to date
	BusinessModel    string   `json:"business_model,omitempty"`
	RecurringRevenue bool     `json:"recurring_revenue"`
	CustomerTypes    []string `json:"customer_types,omitempty"`
	ComplianceTags   []string `json:"compliance_tags,omitempty"`
	Signals          []string `json:"detected_signals,omitempty"`
	Country          string   `json:"country,omitempty"`      // ISO 3166 alpha-2 when known
	Headquarters     string   `json:"headquarters,omitempty"` // Free-text location

	Evidence      []Evidence     `json:"evidence"`
	Ambiguities   []string       `json:"ambiguities,omitempty"`    // Near-tie conflicts kept for review
	FetchOutcomes []FetchOutcome `json:"fetch_outcomes,omitempty"` // Per-page crawl result
}

// AddEvidence appends evidence; existing items are never rewritten
func (c *CandidateCompany) AddEvidence(items ...Evidence) {
	c.Evidence = append(c.Evidence, items...)
}

// EvidenceFor returns the candidate's evidence for one criterion, in stored order
func (c *CandidateCompany) EvidenceFor(criterion Criterion) []Evidence {
	var out []Evidence
	for _, ev := range c.Evidence {
		if ev.Criterion == criterion {
			out = append(out, ev)
		}
	}
	return out
}

// EvidenceForValue returns evidence for a field whose value matches (case-insensitive)
func (c *CandidateCompany) EvidenceForValue(field Field, value string) []Evidence {
	var out []Evidence
	for _, ev := range c.Evidence {
		if ev.Field == field && strings.EqualFold(ev.Value, value) {
			out = append(out, ev)
		}
	}
	return out
}

// EvidenceForField returns all evidence for a field
func (c *CandidateCompany) EvidenceForField(field Field) []Evidence {
	var out []Evidence
	for _, ev := range c.Evidence {
		if ev.Field == field {
			out = append(out, ev)
		}
	}
	return out
}

// FetchStatus is the outcome of one page fetch
type FetchStatus string

const (
	FetchStatusFetched        FetchStatus = "fetched"
	FetchStatusCached         FetchStatus = "cached"
	FetchStatusPolicyExcluded FetchStatus = "policy_excluded"
	FetchStatusFailed         FetchStatus = "failed"
)

// FetchOutcome records what happened to one crawled URL
type FetchOutcome struct {
	URL    string      `json:"url"`
	Status FetchStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// AddTerm inserts a term into a sorted set, ignoring case duplicates
func AddTerm(set []string, term string) []string {
	term = strings.TrimSpace(term)
	if term == "" || ContainsFold(set, term) {
		return set
	}
	set = append(set, term)
	sort.Strings(set)
	return set
}
