package model

import "math"

// ExtractionMethod identifies the strategy family that produced a piece of evidence
type ExtractionMethod string

const (
	MethodPattern   ExtractionMethod = "pattern"   // Regex tables
	MethodHeuristic ExtractionMethod = "heuristic" // Keyword maps and page metadata
	MethodLLM       ExtractionMethod = "llm"       // Language-model fallback
)

// Priority orders methods for conflict tie-breaks (lower wins)
func (m ExtractionMethod) Priority() int {
	switch m {
	case MethodPattern:
		return 0
	case MethodHeuristic:
		return 1
	case MethodLLM:
		return 2
	default:
		return 3
	}
}

// IsFallback reports whether the method only runs for unresolved fields
func (m ExtractionMethod) IsFallback() bool {
	return m == MethodLLM
}

// Field names the candidate attribute a piece of evidence supports
type Field string

const (
	FieldIndustry         Field = "industry"
	FieldKeyword          Field = "keyword"
	FieldBusinessModel    Field = "business_model"
	FieldRecurringRevenue Field = "recurring_revenue"
	FieldCustomerType     Field = "customer_type"
	FieldEmployeeCount    Field = "employee_count"
	FieldRevenue          Field = "revenue"
	FieldFunding          Field = "funding"
	FieldComplianceTag    Field = "compliance_tag"
	FieldSignal           Field = "signal"
	FieldCountry          Field = "country"
	FieldHeadquarters     Field = "headquarters"
)

// SingleValued reports whether a candidate holds at most one value for the field.
// Conflicting evidence on these fields is resolved; other fields accumulate.
func (f Field) SingleValued() bool {
	switch f {
	case FieldBusinessModel, FieldEmployeeCount, FieldRevenue, FieldFunding, FieldCountry, FieldHeadquarters:
		return true
	default:
		return false
	}
}

// Evidence is a cited, confidence-scored fact tied to one criterion.
// Values are never modified after creation; copy and replace instead.
type Evidence struct {
	Criterion        Criterion        `json:"criterion"`         // Criterion the fact feeds
	Field            Field            `json:"field"`             // Candidate attribute
	Value            string           `json:"value"`             // Normalized fact value
	Snippet          string           `json:"snippet"`           // Verbatim excerpt, bounded length
	SourceURL        string           `json:"source_url"`        // Page the snippet came from
	Confidence       float64          `json:"confidence"`        // 0..1
	ExtractionMethod ExtractionMethod `json:"extraction_method"` // pattern, heuristic, llm
}

// ClampConfidence bounds a confidence value to [0,1]; NaN becomes 0
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DedupeEvidence removes repeated (criterion, snippet, source) items, keeping the
// highest-confidence copy at the position of the first occurrence
func DedupeEvidence(items []Evidence) []Evidence {
	type key struct {
		criterion Criterion
		snippet   string
		source    string
	}
	index := make(map[key]int, len(items))
	out := make([]Evidence, 0, len(items))
	for _, ev := range items {
		k := key{ev.Criterion, ev.Snippet, ev.SourceURL}
		if i, ok := index[k]; ok {
			if ev.Confidence > out[i].Confidence {
				out[i] = ev
			}
			continue
		}
		index[k] = len(out)
		out = append(out, ev)
	}
	return out
}
