package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/dealscout/internal/model"
)

// Strategy turns one page into evidence.
// Strategies are pure with respect to the page; they never fetch.
type Strategy interface {
	Name() string
	Method() model.ExtractionMethod
	Extract(ctx context.Context, page Page, hint Hint) ([]model.Evidence, error)
}

// Hint tells strategies what the run cares about
type Hint struct {
	Profile     *model.CriteriaProfile
	CompanyName string
	Website     string

	// Unresolved lists fields of weighted criteria the primary strategies left empty.
	// Fallback strategies only report these.
	Unresolved []model.Field
}

// Wants reports whether f is among the unresolved fields
func (h Hint) Wants(f model.Field) bool {
	for _, u := range h.Unresolved {
		if u == f {
			return true
		}
	}
	return false
}

// criterionFor maps a field to the criterion it feeds
func criterionFor(f model.Field) model.Criterion {
	switch f {
	case model.FieldIndustry:
		return model.CriterionIndustry
	case model.FieldKeyword:
		return model.CriterionKeyword
	case model.FieldBusinessModel, model.FieldRecurringRevenue:
		return model.CriterionBusinessModel
	case model.FieldCustomerType:
		return model.CriterionCustomerType
	case model.FieldEmployeeCount, model.FieldRevenue:
		return model.CriterionSize
	case model.FieldComplianceTag:
		return model.CriterionCompliance
	case model.FieldSignal, model.FieldFunding:
		return model.CriterionSignals
	case model.FieldCountry, model.FieldHeadquarters:
		return model.CriterionGeography
	default:
		return ""
	}
}

// fieldsFor lists the fields that can satisfy a criterion
func fieldsFor(c model.Criterion) []model.Field {
	switch c {
	case model.CriterionIndustry:
		return []model.Field{model.FieldIndustry}
	case model.CriterionKeyword:
		return []model.Field{model.FieldKeyword}
	case model.CriterionBusinessModel:
		return []model.Field{model.FieldBusinessModel, model.FieldRecurringRevenue}
	case model.CriterionCustomerType:
		return []model.Field{model.FieldCustomerType}
	case model.CriterionSize:
		return []model.Field{model.FieldEmployeeCount, model.FieldRevenue}
	case model.CriterionCompliance:
		return []model.Field{model.FieldComplianceTag}
	case model.CriterionSignals:
		return []model.Field{model.FieldSignal}
	default:
		return nil
	}
}

// termPattern matches a profile term as a whole word or phrase, ignoring case.
// Word boundaries are only asserted where the term begins or ends with a word character.
// An empty term yields nil.
func termPattern(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	words := strings.Fields(term)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	expr := strings.Join(words, `\s+`)
	if isWordByte(term[0]) {
		expr = `\b` + expr
	}
	if isWordByte(term[len(term)-1]) {
		expr += `\b`
	}
	return regexp.MustCompile(`(?i)` + expr)
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
