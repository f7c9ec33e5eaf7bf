package criteria

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/dealscout/internal/model"
)

// Load reads a criteria document (YAML or JSON) and returns a validated profile
func Load(path string) (*model.CriteriaProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a criteria document.
// Unknown keys and type mismatches are reported as a ConfigError.
func Parse(data []byte) (*model.CriteriaProfile, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &model.ConfigError{Problems: []string{fmt.Sprintf("parse document: %v", err)}}
	}

	profile := &model.CriteriaProfile{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           profile,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &model.ConfigError{Problems: []string{fmt.Sprintf("decode document: %v", err)}}
	}

	if err := Validate(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Validate checks weights and numeric ranges. All problems are collected into one ConfigError.
func Validate(p *model.CriteriaProfile) error {
	if p == nil {
		return &model.ConfigError{Problems: []string{"profile is missing"}}
	}

	var problems []string

	names := make([]string, 0, len(p.Weights))
	for name := range p.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w := p.Weights[name]
		if !model.Criterion(name).IsScored() {
			problems = append(problems, fmt.Sprintf("weights.%s: unknown criterion", name))
			continue
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			problems = append(problems, fmt.Sprintf("weights.%s: must be a finite number", name))
			continue
		}
		if w < 0 {
			problems = append(problems, fmt.Sprintf("weights.%s: must be non-negative, got %v", name, w))
		}
	}

	problems = append(problems, checkRange("size.employees", p.Size.Employees())...)
	problems = append(problems, checkRange("size.revenue", p.Size.Revenue())...)

	if len(problems) > 0 {
		return &model.ConfigError{Problems: problems}
	}
	return nil
}

func checkRange(name string, r model.Range) []string {
	var problems []string
	if r.Min != nil && *r.Min < 0 {
		problems = append(problems, fmt.Sprintf("%s_min: must be non-negative, got %v", name, *r.Min))
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		problems = append(problems, fmt.Sprintf("%s: min %v exceeds max %v", name, *r.Min, *r.Max))
	}
	return problems
}
