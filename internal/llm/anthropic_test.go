package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func anthropicTextResponse(text string) anthropicResponse {
	resp := anthropicResponse{
		ID:    "msg_123",
		Type:  "message",
		Role:  "assistant",
		Model: "claude-3-5-haiku-20241022",
	}
	resp.Content = append(resp.Content, struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "text", Text: text})
	resp.Usage.InputTokens = 50
	resp.Usage.OutputTokens = 25
	return resp
}

func TestAnthropicProvider_ExtractFacts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.System == "" {
			t.Error("Expected a system prompt")
		}

		// Fenced JSON is accepted
		_ = json.NewEncoder(w).Encode(anthropicTextResponse("```json\n" + factsJSON + "\n```"))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.ExtractFacts(context.Background(), ExtractRequest{
		CompanyName: "Acme Ledger",
		Content:     "subscription platform",
		Fields:      []string{"business_model"},
	})
	if err != nil {
		t.Fatalf("ExtractFacts failed: %v", err)
	}

	if resp.Facts.BusinessModel != "SaaS" {
		t.Errorf("Expected SaaS, got %s", resp.Facts.BusinessModel)
	}
	if resp.Facts.RecurringRevenue == nil || !*resp.Facts.RecurringRevenue {
		t.Error("Expected recurring revenue true")
	}
	if resp.TokensUsed != 75 {
		t.Errorf("Expected 75 tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "bad", BaseURL: server.URL, Timeout: 5})
	_, err := provider.ExtractFacts(context.Background(), ExtractRequest{Content: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("Expected error to carry API error type, got %v", err)
	}
}

func TestAnthropicProvider_MissingKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}
