package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse means the model answered with something other than the JSON contract
var ErrMalformedResponse = errors.New("malformed model response")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractFacts asks the model for structured company facts from page text
	ExtractFacts(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for fact extraction
type ExtractRequest struct {
	CompanyName string
	Website     string

	// Content is visible page text; it is cut to Config.MaxContentChars
	Content string

	// Fields lists the attributes the caller still needs, in prompt order
	Fields []string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExtractResponse contains the parsed facts
type ExtractResponse struct {
	Facts      Facts
	Model      string
	TokensUsed int
}

// Facts is the JSON contract the extraction prompt asks for
type Facts struct {
	BusinessModel            string            `json:"business_model"`
	BusinessModelExplanation string            `json:"business_model_explanation"`
	RecurringRevenue         *bool             `json:"recurring_revenue"`
	CustomerTypes            []string          `json:"customer_types"`
	EmployeeCountEstimate    *float64          `json:"employee_count_estimate"`
	RevenueEstimateUSD       *float64          `json:"revenue_estimate_usd"`
	Industries               []string          `json:"industries"`
	ComplianceCertifications []string          `json:"compliance_certifications"`
	PositiveSignals          []string          `json:"positive_signals"`
	PotentialConcerns        []string          `json:"potential_concerns"`
	Headquarters             string            `json:"headquarters"`
	Country                  string            `json:"country"`
	Evidence                 map[string]string `json:"evidence"` // field -> verbatim quote
	Confidence               float64           `json:"confidence"`
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// MaxContentChars caps page text sent in one prompt
	MaxContentChars int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:        "", // Disabled by default
		Timeout:         30,
		MaxTokens:       1024,
		MaxContentChars: 8000,
	}
}

const systemPrompt = "You extract facts about companies from their own web pages. Answer with JSON only and never guess beyond the text."

// BuildPrompt constructs the extraction prompt
func BuildPrompt(req ExtractRequest, maxContentChars int) string {
	content := req.Content
	if maxContentChars > 0 && len(content) > maxContentChars {
		content = strings.ToValidUTF8(content[:maxContentChars], "") + "...[truncated]"
	}

	focus := "all fields"
	if len(req.Fields) > 0 {
		focus = strings.Join(req.Fields, ", ")
	}

	return fmt.Sprintf(`Analyze this company's web content and extract structured information.

Company: %s
Website: %s

Content from their website:
---
%s
---

Extract the following information in JSON format:
{
    "business_model": "SaaS|marketplace|services|hardware|e-commerce|other",
    "business_model_explanation": "brief explanation",
    "recurring_revenue": true or false or null,
    "customer_types": ["B2B", "B2C", "enterprise", "SMB"],
    "employee_count_estimate": number or null,
    "revenue_estimate_usd": number or null,
    "industries": ["list of industries"],
    "compliance_certifications": ["SOC2", "HIPAA", etc.],
    "positive_signals": ["growing_team", "recent_funding", etc.],
    "potential_concerns": ["list any red flags"],
    "headquarters": "city, country" or null,
    "country": "ISO 3166 alpha-2 code" or null,
    "evidence": {"field name": "short verbatim quote from the content"},
    "confidence": 0.0-1.0
}

Focus on: %s.
Only include fields you can reasonably infer from the content. Be conservative with estimates.
Return only valid JSON, no other text.`, req.CompanyName, req.Website, content, focus)
}

// ParseFacts decodes a model answer, tolerating markdown code fences around the JSON
func ParseFacts(text string) (*Facts, error) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}

	var facts Facts
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &facts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if facts.Confidence < 0 || facts.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformedResponse, facts.Confidence)
	}
	return &facts, nil
}

// pick returns the first non-empty string
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pickInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
