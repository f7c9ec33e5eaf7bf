package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/dealscout/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name disables the fallback and returns nil.
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(ctx, config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama, gemini)", config.Provider)
	}
}

// ConfigFromModel converts the application config to llm.Config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = llmConfig.Provider
	cfg.Model = llmConfig.Model
	cfg.APIKey = llmConfig.APIKey
	cfg.BaseURL = llmConfig.BaseURL
	if llmConfig.Timeout > 0 {
		cfg.Timeout = llmConfig.Timeout
	}
	if llmConfig.MaxTokens > 0 {
		cfg.MaxTokens = llmConfig.MaxTokens
	}
	if llmConfig.MaxContentChars > 0 {
		cfg.MaxContentChars = llmConfig.MaxContentChars
	}
	cfg.HTTPProxy = httpConfig.HTTPProxy
	cfg.HTTPSProxy = httpConfig.HTTPSProxy
	cfg.NoProxy = httpConfig.NoProxy
	return cfg
}
