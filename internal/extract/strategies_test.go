package extract

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/dealscout/internal/model"
)

const acmeText = "Acme Ledger is a SaaS platform for finance teams. Our subscription plans are billed monthly. " +
	"We serve B2B customers and enterprise finance teams. Acme has 120 employees and is SOC 2 compliant. " +
	"Headquartered in Austin, TX. We're hiring!"

// findEvidence returns the first item for field with value (case-insensitive)
func findEvidence(items []model.Evidence, field model.Field, value string) (model.Evidence, bool) {
	for _, ev := range items {
		if ev.Field == field && strings.EqualFold(ev.Value, value) {
			return ev, true
		}
	}
	return model.Evidence{}, false
}

func TestPatternStrategy(t *testing.T) {
	page := Page{URL: "https://acme.example/", Text: acmeText}
	items, err := NewPatternStrategy().Extract(context.Background(), page, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	tests := []struct {
		field     model.Field
		value     string
		criterion model.Criterion
		conf      float64
	}{
		{model.FieldBusinessModel, "SaaS", model.CriterionBusinessModel, 2.0 / 3.0},
		{model.FieldRecurringRevenue, "true", model.CriterionBusinessModel, recurringConfidence},
		{model.FieldCustomerType, "B2B", model.CriterionCustomerType, customerConfidence},
		{model.FieldCustomerType, "enterprise", model.CriterionCustomerType, customerConfidence},
		{model.FieldEmployeeCount, "120", model.CriterionSize, employeeConfidence},
		{model.FieldComplianceTag, "SOC2", model.CriterionCompliance, complianceConfidence},
		{model.FieldSignal, "growing_team", model.CriterionSignals, signalConfidence},
		{model.FieldHeadquarters, "Austin, TX", model.CriterionGeography, locationConfidence},
		{model.FieldCountry, "US", model.CriterionGeography, locationConfidence},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"="+tt.value, func(t *testing.T) {
			ev, ok := findEvidence(items, tt.field, tt.value)
			if !ok {
				t.Fatalf("Expected %s=%s in %+v", tt.field, tt.value, items)
			}
			if ev.Criterion != tt.criterion {
				t.Errorf("Expected criterion %s, got %s", tt.criterion, ev.Criterion)
			}
			if math.Abs(ev.Confidence-tt.conf) > 1e-9 {
				t.Errorf("Expected confidence %.3f, got %.3f", tt.conf, ev.Confidence)
			}
			if ev.SourceURL != page.URL || ev.ExtractionMethod != model.MethodPattern {
				t.Errorf("Unexpected provenance: %+v", ev)
			}
			if ev.Snippet == "" || len(ev.Snippet) > maxSnippet {
				t.Errorf("Bad snippet %q", ev.Snippet)
			}
		})
	}

	for _, absent := range []model.Field{model.FieldRevenue, model.FieldFunding} {
		for _, ev := range items {
			if ev.Field == absent {
				t.Errorf("Did not expect %s evidence, got %+v", absent, ev)
			}
		}
	}
}

func TestPatternStrategy_Financials(t *testing.T) {
	text := "We crossed $12.5M ARR this year after we raised $30 million in our Series B. Team of 1,450 people."
	items, err := NewPatternStrategy().Extract(context.Background(), Page{URL: "u", Text: text}, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if _, ok := findEvidence(items, model.FieldRevenue, "12500000"); !ok {
		t.Errorf("Expected revenue 12500000, got %+v", items)
	}
	if ev, ok := findEvidence(items, model.FieldFunding, "30000000"); !ok {
		t.Errorf("Expected funding 30000000, got %+v", items)
	} else if ev.Criterion != model.CriterionSignals {
		t.Errorf("Expected funding to feed signals, got %s", ev.Criterion)
	}
	if _, ok := findEvidence(items, model.FieldEmployeeCount, "1450"); !ok {
		t.Errorf("Expected employee count 1450, got %+v", items)
	}
}

func TestPatternStrategy_NoMatches(t *testing.T) {
	items, err := NewPatternStrategy().Extract(context.Background(), Page{URL: "u", Text: "Welcome to our website."}, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no evidence, got %+v", items)
	}
}

func TestHeuristicStrategy(t *testing.T) {
	profile := &model.CriteriaProfile{
		IndustriesInclude: []string{"fintech", "regtech"},
		KeywordsInclude:   []string{"lending software", "open banking"},
		KeywordsExclude:   []string{"payday"},
		Dealbreakers:      []string{"crypto"},
	}
	page := Page{
		URL:          "https://pay.example/about",
		Title:        "Acme Pay",
		MetaKeywords: []string{"regtech"},
		Text:         "Acme Pay builds payments and lending software for banks. We never touch crypto.",
	}

	items, err := NewHeuristicStrategy().Extract(context.Background(), page, Hint{Profile: profile})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	tests := []struct {
		field     model.Field
		value     string
		criterion model.Criterion
	}{
		{model.FieldIndustry, "fintech", model.CriterionIndustry},
		{model.FieldIndustry, "regtech", model.CriterionIndustry},
		{model.FieldIndustry, "cryptocurrency", model.CriterionIndustry},
		{model.FieldKeyword, "lending software", model.CriterionKeyword},
		{model.FieldKeyword, "crypto", model.CriterionDealbreaker},
	}
	for _, tt := range tests {
		ev, ok := findEvidence(items, tt.field, tt.value)
		if !ok {
			t.Errorf("Expected %s=%s in %+v", tt.field, tt.value, items)
			continue
		}
		if ev.Criterion != tt.criterion {
			t.Errorf("%s=%s: expected criterion %s, got %s", tt.field, tt.value, tt.criterion, ev.Criterion)
		}
		if ev.ExtractionMethod != model.MethodHeuristic {
			t.Errorf("Expected heuristic method, got %s", ev.ExtractionMethod)
		}
	}

	for _, missing := range []string{"open banking", "payday"} {
		if _, ok := findEvidence(items, model.FieldKeyword, missing); ok {
			t.Errorf("Did not expect keyword %q", missing)
		}
	}
	if _, ok := findEvidence(items, model.FieldIndustry, "healthcare tech"); ok {
		t.Error("Did not expect healthcare tech")
	}
}

func TestHeuristicStrategy_WordBoundaries(t *testing.T) {
	// "api" must not match inside "capital", nor "ehr" inside "behring"
	page := Page{URL: "u", Text: "Capital planning for Behring Group"}
	items, err := NewHeuristicStrategy().Extract(context.Background(), page, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no evidence, got %+v", items)
	}
}

func TestHeuristicStrategy_OrganizationMetadata(t *testing.T) {
	employees := 45
	page := Page{
		URL:          "https://berlin.example/",
		Organization: &Organization{Employees: &employees, Country: "Germany", Locality: "Berlin"},
	}
	items, err := NewHeuristicStrategy().Extract(context.Background(), page, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if ev, ok := findEvidence(items, model.FieldEmployeeCount, "45"); !ok || ev.Confidence != metadataConfidence {
		t.Errorf("Expected employee count 45 at %.1f, got %+v", metadataConfidence, items)
	}
	if _, ok := findEvidence(items, model.FieldHeadquarters, "Berlin, Germany"); !ok {
		t.Errorf("Expected headquarters, got %+v", items)
	}
	if _, ok := findEvidence(items, model.FieldCountry, "DE"); !ok {
		t.Errorf("Expected country DE, got %+v", items)
	}
}
