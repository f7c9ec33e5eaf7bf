package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestParseFacts(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain", factsJSON, false},
		{"json fence", "Here you go:\n```json\n" + factsJSON + "\n```", false},
		{"bare fence", "```\n" + factsJSON + "\n```", false},
		{"prose", "The company sells software.", true},
		{"confidence out of range", `{"confidence": 1.5}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, err := ParseFacts(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if facts.BusinessModel != "SaaS" {
				t.Errorf("expected SaaS, got %q", facts.BusinessModel)
			}
		})
	}
}

func TestBuildPrompt_TruncatesContent(t *testing.T) {
	req := ExtractRequest{
		CompanyName: "Acme",
		Website:     "https://acme.example",
		Content:     strings.Repeat("a", 100),
		Fields:      []string{"business_model", "employee_count"},
	}
	prompt := BuildPrompt(req, 10)

	if !strings.Contains(prompt, strings.Repeat("a", 10)+"...[truncated]") {
		t.Error("expected content cut at 10 characters")
	}
	if strings.Contains(prompt, strings.Repeat("a", 11)) {
		t.Error("content longer than the limit leaked into the prompt")
	}
	if !strings.Contains(prompt, "Focus on: business_model, employee_count.") {
		t.Error("expected requested fields in the prompt")
	}
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{})
	if err != nil || p != nil {
		t.Errorf("expected disabled provider, got %v %v", p, err)
	}

	if _, err := NewProvider(ctx, Config{Provider: "mystery"}); err == nil {
		t.Error("expected error for unknown provider")
	}

	p, err = NewProvider(ctx, Config{Provider: "ollama", Model: "llama3.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected ollama, got %s", p.Name())
	}
}

type fakeModels struct {
	model  string
	prompt string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func TestGeminiProvider_ExtractFacts(t *testing.T) {
	fake := &fakeModels{
		resp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: factsJSON}}},
			}},
		},
	}
	provider := &GeminiProvider{models: fake, config: Config{Timeout: 5}}

	resp, err := provider.ExtractFacts(context.Background(), ExtractRequest{CompanyName: "Acme", Content: "text"})
	if err != nil {
		t.Fatalf("ExtractFacts failed: %v", err)
	}
	if fake.model != defaultGeminiModel {
		t.Errorf("expected default model, got %s", fake.model)
	}
	if !strings.Contains(fake.prompt, "Company: Acme") {
		t.Error("expected the extraction prompt to be sent")
	}
	if len(resp.Facts.Industries) != 1 || resp.Facts.Industries[0] != "fintech" {
		t.Errorf("unexpected industries %v", resp.Facts.Industries)
	}
}

func TestGeminiProvider_EmptyResponse(t *testing.T) {
	provider := &GeminiProvider{models: &fakeModels{resp: &genai.GenerateContentResponse{}}}
	if _, err := provider.ExtractFacts(context.Background(), ExtractRequest{Content: "text"}); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestNewGeminiProvider_MissingKey(t *testing.T) {
	if _, err := NewGeminiProvider(context.Background(), Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
