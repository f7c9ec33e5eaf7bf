package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the slice of the genai client the provider uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	models contentGenerator
	config Config
}

// NewGeminiProvider creates a provider on the Gemini API backend
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiProvider{models: client.Models, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable reports whether a client was configured
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	return p != nil && p.models != nil
}

// ExtractFacts runs the extraction prompt through GenerateContent
func (p *GeminiProvider) ExtractFacts(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	model := pick(req.Model, p.config.Model, defaultGeminiModel)

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	temperature := float32(0.1)
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       &temperature,
		MaxOutputTokens:   int32(pickInt(req.MaxTokens, p.config.MaxTokens, 1024)),
		ResponseMIMEType:  "application/json",
	}

	resp, err := p.models.GenerateContent(ctx, model, genai.Text(BuildPrompt(req, p.config.MaxContentChars)), genConfig)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	facts, err := ParseFacts(output)
	if err != nil {
		return nil, err
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &ExtractResponse{Facts: *facts, Model: model, TokensUsed: tokens}, nil
}
