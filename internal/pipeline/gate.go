package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/cache"
	"github.com/ppiankov/dealscout/internal/model"
	"github.com/ppiankov/dealscout/internal/util"
	"github.com/ppiankov/dealscout/internal/worker"
)

// CachedPage is the unit stored in the content cache
type CachedPage struct {
	URL       string    `json:"url"`
	FinalURL  string    `json:"final_url"`
	Status    int       `json:"status"`
	HTML      string    `json:"html"`
	FetchedAt time.Time `json:"fetched_at"`

	FromCache bool `json:"-"`
}

// GateConfig wires the collaborators of a Gate.
// A nil Robots disables policy checks; a nil Cache disables caching.
type GateConfig struct {
	Limiter *worker.Limiter
	Robots  *util.RobotsChecker
	Cache   cache.Cache
	Fetcher *Fetcher
	MaxAge  time.Duration
	Timeout time.Duration
	Logger  *zap.Logger
}

// Gate is the only path from the engine to the network.
// It serves fresh cached content, honors robots policy, spaces requests per
// domain and stores what it fetches.
type Gate struct {
	limiter *worker.Limiter
	robots  *util.RobotsChecker
	cache   cache.Cache
	fetcher *Fetcher
	maxAge  time.Duration
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	delays sync.Map // domain -> struct{}, crawl delays already applied
}

// NewGate creates a fetch gate
func NewGate(cfg GateConfig) *Gate {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = worker.NewLimiter(time.Second)
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(timeout, "DealScout", 2<<20, "", "", "")
	}

	return &Gate{
		limiter: limiter,
		robots:  cfg.Robots,
		cache:   cfg.Cache,
		fetcher: fetcher,
		maxAge:  maxAge,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Cached returns content fetched within the freshness window, or a miss
func (g *Gate) Cached(rawURL string) (*CachedPage, bool) {
	if g.cache == nil {
		return nil, false
	}

	data, ok := g.cache.Get(cache.CacheKey(rawURL))
	if !ok {
		return nil, false
	}

	var page CachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		g.logger.Debug("discarding unreadable cache entry", zap.String("url", rawURL), zap.Error(err))
		return nil, false
	}

	if g.now().Sub(page.FetchedAt) >= g.maxAge {
		return nil, false
	}

	page.FromCache = true
	return &page, true
}

// Fetch returns the page for rawURL, from cache when fresh.
// Errors are *model.FetchError; a robots-disallowed path fails with kind
// policy_excluded and no request is made.
func (g *Gate) Fetch(ctx context.Context, rawURL string) (*CachedPage, error) {
	if page, ok := g.Cached(rawURL); ok {
		return page, nil
	}

	domain, err := worker.ExtractDomain(rawURL)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Kind: model.FetchNetwork, Err: fmt.Errorf("parse URL: %w", err)}
	}

	if g.robots != nil {
		allowed, crawlDelay, err := g.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, &model.FetchError{URL: rawURL, Kind: model.FetchNetwork, Err: err}
		}
		if !allowed {
			g.logger.Info("policy excluded", zap.String("url", rawURL))
			return nil, &model.FetchError{URL: rawURL, Kind: model.FetchPolicyExcluded}
		}
		g.applyCrawlDelay(domain, crawlDelay)
	}

	if err := g.limiter.Acquire(ctx, domain); err != nil {
		return nil, &model.FetchError{URL: rawURL, Kind: model.FetchNetwork, Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.fetcher.Fetch(fetchCtx, rawURL)
	if err != nil {
		return nil, err
	}

	page := &CachedPage{
		URL:       rawURL,
		FinalURL:  result.FinalURL,
		Status:    result.StatusCode,
		HTML:      result.HTML,
		FetchedAt: g.now().UTC(),
	}
	g.store(page)

	return page, nil
}

func (g *Gate) store(page *CachedPage) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		g.logger.Warn("encode cache entry", zap.String("url", page.URL), zap.Error(err))
		return
	}
	if err := g.cache.Set(cache.CacheKey(page.URL), data, g.maxAge); err != nil {
		g.logger.Warn("store cache entry", zap.String("url", page.URL), zap.Error(err))
	}
}

// applyCrawlDelay slows a domain whose policy asks for more than the default spacing
func (g *Gate) applyCrawlDelay(domain string, delay time.Duration) {
	if delay <= g.limiter.Interval() {
		return
	}
	if _, loaded := g.delays.LoadOrStore(domain, struct{}{}); loaded {
		return
	}
	g.logger.Debug("applying crawl delay", zap.String("domain", domain), zap.Duration("delay", delay))
	g.limiter.SetDomainInterval(domain, delay)
}
