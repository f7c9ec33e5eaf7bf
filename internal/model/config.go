package model

import "time"

// Config is the runtime configuration (file, env and flags merged by the CLI)
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls the page fetcher
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per-fetch timeout
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// FetchConfig controls crawl politeness and page selection
type FetchConfig struct {
	DomainInterval time.Duration `yaml:"domain_interval" mapstructure:"domain_interval"` // Minimum gap between fetches to one domain
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	Pages          []string      `yaml:"pages" mapstructure:"pages"` // Paths crawled per candidate, "" is the home page
}

// CacheConfig controls the content cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MaxAge    time.Duration `yaml:"max_age" mapstructure:"max_age"`       // Freshness window
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"` // In-process layer
}

// LLMConfig controls the fallback extraction strategy
type LLMConfig struct {
	Provider        string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini or empty
	Model           string `yaml:"model" mapstructure:"model"`
	APIKey          string `yaml:"-" mapstructure:"api_key"`
	BaseURL         string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout         int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens       int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxContentChars int    `yaml:"max_content_chars" mapstructure:"max_content_chars"`
}

// ConcurrencyConfig sizes the worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// StoreConfig enables the Postgres result sink
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty" mapstructure:"database_url"`
	Migrate     bool   `yaml:"migrate" mapstructure:"migrate"`
}

// MetricsConfig exposes run metrics over HTTP
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty" mapstructure:"addr"`
}

// LogConfig selects the log encoder and level
type LogConfig struct {
	JSON  bool `yaml:"json" mapstructure:"json"`
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// DefaultPages are crawled for every candidate unless configured otherwise
var DefaultPages = []string{"", "about", "product", "pricing", "careers"}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "DealScout/0.1 (+https://github.com/ppiankov/dealscout)",
			MaxBodyBytes: 2_000_000,
		},
		Fetch: FetchConfig{
			DomainInterval: time.Second,
			RespectRobots:  true,
			Pages:          append([]string(nil), DefaultPages...),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MaxAge:    30 * 24 * time.Hour,
			MemoryTTL: time.Hour,
		},
		LLM: LLMConfig{
			Timeout:         30,
			MaxTokens:       1024,
			MaxContentChars: 8000,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 8,
		},
		Store: StoreConfig{
			Migrate: true,
		},
	}
}
