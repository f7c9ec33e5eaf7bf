package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/cache"
	"github.com/ppiankov/dealscout/internal/extract"
	"github.com/ppiankov/dealscout/internal/llm"
	"github.com/ppiankov/dealscout/internal/model"
	"github.com/ppiankov/dealscout/internal/util"
	"github.com/ppiankov/dealscout/internal/worker"
)

// Pipeline wires the fetch gate and the extractor from the runtime configuration.
// One Pipeline serves every candidate of a run.
type Pipeline struct {
	gate      *Gate
	extractor *extract.Extractor
	provider  llm.Provider // nil when the LLM fallback is disabled
	pages     []string
	config    *model.Config
	logger    *zap.Logger
}

// NewPipeline creates a pipeline with the given configuration.
// An LLM provider that cannot be created is logged and the fallback disabled.
func NewPipeline(ctx context.Context, cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var robots *util.RobotsChecker
	if cfg.Fetch.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, logger.Named("robots"))
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := DefaultCacheDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.MaxAge)
	}

	gate := NewGate(GateConfig{
		Limiter: worker.NewLimiter(cfg.Fetch.DomainInterval),
		Robots:  robots,
		Cache:   store,
		Fetcher: NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		MaxAge:  cfg.Cache.MaxAge,
		Timeout: cfg.HTTP.Timeout,
		Logger:  logger.Named("gate"),
	})

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			logger.Warn("llm fallback disabled", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		} else {
			provider = p
		}
	}

	return &Pipeline{
		gate:      gate,
		extractor: extract.NewExtractor(logger.Named("extract"), extract.DefaultStrategies(provider, cfg.LLM.Model)...),
		provider:  provider,
		pages:     cfg.Fetch.Pages,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Enricher returns the enricher for one criteria profile
func (p *Pipeline) Enricher(profile *model.CriteriaProfile) *Enricher {
	return NewEnricher(p.gate, p.extractor, profile, p.pages, p.logger.Named("enrich"))
}

// EnricherFactory adapts the pipeline to the run coordinator
func (p *Pipeline) EnricherFactory() worker.EnricherFactory {
	return func(profile *model.CriteriaProfile) worker.Enricher {
		return p.Enricher(profile)
	}
}

// LLMProvider returns the fallback provider name, or "" when disabled
func (p *Pipeline) LLMProvider() string {
	if p.provider == nil {
		return ""
	}
	return p.provider.Name()
}

// DefaultCacheDir is ~/.dealscout/cache
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".dealscout", "cache"), nil
}
