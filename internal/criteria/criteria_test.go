package criteria

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/dealscout/internal/model"
)

const sampleProfile = `
industries_include: [fintech, "healthcare tech"]
industries_exclude: [gambling]
keywords_include: [api]
geography:
  countries: [US, CA]
size:
  employees_min: 10
  employees_max: 200
  revenue_max: 50000000
business_model:
  types: [SaaS]
  recurring_revenue_required: true
customer_type: [B2B]
compliance_tags: [SOC2]
dealbreakers: [crypto]
preferred_signals: [growing_team]
weights:
  industry: 2
  business_model: 1
`

func TestParse_Valid(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.IndustriesInclude) != 2 || p.IndustriesInclude[1] != "healthcare tech" {
		t.Errorf("unexpected industries_include: %v", p.IndustriesInclude)
	}
	if p.Size.EmployeesMin == nil || *p.Size.EmployeesMin != 10 {
		t.Errorf("expected employees_min 10, got %v", p.Size.EmployeesMin)
	}
	if p.Size.RevenueMin != nil {
		t.Errorf("expected revenue_min unset, got %v", *p.Size.RevenueMin)
	}
	if !p.BusinessModel.RecurringRevenueRequired {
		t.Error("expected recurring_revenue_required")
	}
	if p.Weight(model.CriterionIndustry) != 2 {
		t.Errorf("expected industry weight 2, got %v", p.Weight(model.CriterionIndustry))
	}
	if p.Weight(model.CriterionSize) != 0 {
		t.Errorf("absent weight should be 0 when weights are given, got %v", p.Weight(model.CriterionSize))
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		problem string
	}{
		{
			name:    "negative weight",
			doc:     "weights:\n  industry: -1\n",
			problem: "weights.industry: must be non-negative",
		},
		{
			name:    "employees min above max",
			doc:     "size:\n  employees_min: 500\n  employees_max: 50\n",
			problem: "size.employees: min 500 exceeds max 50",
		},
		{
			name:    "revenue min above max",
			doc:     "size:\n  revenue_min: 10\n  revenue_max: 5\n",
			problem: "size.revenue: min 10 exceeds max 5",
		},
		{
			name:    "unknown criterion weight",
			doc:     "weights:\n  vibes: 1\n",
			problem: "weights.vibes: unknown criterion",
		},
		{
			name:    "unknown field",
			doc:     "industries: [fintech]\n",
			problem: "decode document",
		},
		{
			name:    "not yaml",
			doc:     "weights: [1, 2\n",
			problem: "parse document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, model.ErrInvalidProfile) {
				t.Errorf("expected ErrInvalidProfile, got %v", err)
			}
			var cfgErr *model.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if !strings.Contains(cfgErr.Error(), tt.problem) {
				t.Errorf("expected problem %q in %q", tt.problem, cfgErr.Error())
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	min, max := 10.0, 1.0
	p := &model.CriteriaProfile{
		Size:    model.SizeConstraints{EmployeesMin: &min, EmployeesMax: &max},
		Weights: map[string]float64{"industry": -1, "size": -2},
	}

	err := Validate(p)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if len(cfgErr.Problems) != 3 {
		t.Errorf("expected 3 problems, got %d: %v", len(cfgErr.Problems), cfgErr.Problems)
	}
}

func TestValidate_ZeroWeightsAllowed(t *testing.T) {
	p := &model.CriteriaProfile{Weights: map[string]float64{"industry": 0}}
	if err := Validate(p); err != nil {
		t.Errorf("zero weight should be valid: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	if err := os.WriteFile(path, []byte(sampleProfile), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(p.Dealbreakers) != 1 || p.Dealbreakers[0] != "crypto" {
		t.Errorf("unexpected dealbreakers: %v", p.Dealbreakers)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
