package extract

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/dealscout/internal/llm"
	"github.com/ppiankov/dealscout/internal/model"
)

// defaultLLMConfidence applies when the model omits its own confidence
const defaultLLMConfidence = 0.5

// LLMStrategy asks a language model for the fields the rule-based strategies missed
type LLMStrategy struct {
	provider llm.Provider
	model    string
}

// NewLLMStrategy wraps a provider; modelName may be empty to use the provider default
func NewLLMStrategy(provider llm.Provider, modelName string) *LLMStrategy {
	return &LLMStrategy{provider: provider, model: modelName}
}

// Name returns the strategy name
func (s *LLMStrategy) Name() string { return "llm:" + s.provider.Name() }

// Method returns the extraction method
func (s *LLMStrategy) Method() model.ExtractionMethod { return model.MethodLLM }

// Extract sends the page text to the model and converts its answer for unresolved fields only
func (s *LLMStrategy) Extract(ctx context.Context, page Page, hint Hint) ([]model.Evidence, error) {
	if len(hint.Unresolved) == 0 || strings.TrimSpace(page.Text) == "" {
		return nil, nil
	}

	fields := make([]string, len(hint.Unresolved))
	for i, f := range hint.Unresolved {
		fields[i] = string(f)
	}

	resp, err := s.provider.ExtractFacts(ctx, llm.ExtractRequest{
		CompanyName: hint.CompanyName,
		Website:     hint.Website,
		Content:     page.Text,
		Fields:      fields,
		Model:       s.model,
	})
	if err != nil {
		return nil, err
	}
	return factsToEvidence(resp.Facts, page, hint)
}

func factsToEvidence(facts llm.Facts, page Page, hint Hint) ([]model.Evidence, error) {
	conf := facts.Confidence
	if conf == 0 {
		conf = defaultLLMConfidence
	}
	e := emitter{url: page.URL, method: model.MethodLLM}
	cite := func(field model.Field, value string) string {
		return llmSnippet(page.Text, facts.Evidence[string(field)], value)
	}

	if hint.Wants(model.FieldBusinessModel) && facts.BusinessModel != "" && !strings.EqualFold(facts.BusinessModel, "other") {
		v := CanonicalBusinessModel(facts.BusinessModel)
		e.add(model.FieldBusinessModel, v, cite(model.FieldBusinessModel, facts.BusinessModel), conf)
	}
	if hint.Wants(model.FieldRecurringRevenue) && facts.RecurringRevenue != nil && *facts.RecurringRevenue {
		e.add(model.FieldRecurringRevenue, "true", cite(model.FieldRecurringRevenue, "subscription"), conf)
	}
	if hint.Wants(model.FieldCustomerType) {
		for _, ct := range facts.CustomerTypes {
			e.add(model.FieldCustomerType, CanonicalCustomerType(ct), cite(model.FieldCustomerType, ct), conf)
		}
	}
	if hint.Wants(model.FieldEmployeeCount) && facts.EmployeeCountEstimate != nil {
		n, err := positiveNumber("employee_count_estimate", *facts.EmployeeCountEstimate)
		if err != nil {
			return nil, err
		}
		v := strconv.FormatFloat(math.Round(n), 'f', 0, 64)
		e.add(model.FieldEmployeeCount, v, cite(model.FieldEmployeeCount, v), conf)
	}
	if hint.Wants(model.FieldRevenue) && facts.RevenueEstimateUSD != nil {
		n, err := positiveNumber("revenue_estimate_usd", *facts.RevenueEstimateUSD)
		if err != nil {
			return nil, err
		}
		v := strconv.FormatFloat(n, 'f', 0, 64)
		e.add(model.FieldRevenue, v, cite(model.FieldRevenue, v), conf)
	}
	if hint.Wants(model.FieldIndustry) {
		for _, ind := range facts.Industries {
			e.add(model.FieldIndustry, strings.ToLower(strings.TrimSpace(ind)), cite(model.FieldIndustry, ind), conf)
		}
	}
	if hint.Wants(model.FieldComplianceTag) {
		for _, tag := range facts.ComplianceCertifications {
			e.add(model.FieldComplianceTag, tag, cite(model.FieldComplianceTag, tag), conf)
		}
	}
	if hint.Wants(model.FieldSignal) {
		for _, sig := range facts.PositiveSignals {
			e.add(model.FieldSignal, sig, cite(model.FieldSignal, sig), conf)
		}
	}
	if hint.Wants(model.FieldCountry) && facts.Country != "" {
		if code := model.CountryCode(facts.Country); code != "" {
			e.add(model.FieldCountry, code, cite(model.FieldCountry, facts.Country), conf)
		}
	}
	if hint.Wants(model.FieldHeadquarters) && facts.Headquarters != "" {
		e.add(model.FieldHeadquarters, facts.Headquarters, cite(model.FieldHeadquarters, facts.Headquarters), conf)
	}

	return e.items, nil
}

func positiveNumber(name string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %s = %v", model.ErrMalformedEvidence, name, v)
	}
	return v, nil
}

// llmSnippet prefers the model's quote when it really occurs in the page,
// then the value itself, and otherwise labels the snippet as inferred
func llmSnippet(text, quote, value string) string {
	for _, needle := range []string{quote, value} {
		needle = strings.TrimSpace(needle)
		if needle == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(needle))
		if snippet, ok := SnippetFor(text, re); ok {
			return snippet
		}
	}
	label := strings.TrimSpace(quote)
	if label == "" {
		label = value
	}
	return truncate("model inference: "+label, 200)
}
