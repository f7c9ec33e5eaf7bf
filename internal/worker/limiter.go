package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces requests per domain. Each domain gets its own token bucket
// with burst 1, so consecutive permits for one domain are at least one
// interval apart while different domains proceed in parallel.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	interval time.Duration
}

// NewLimiter creates a limiter granting one permit per domain per interval
func NewLimiter(interval time.Duration) *Limiter {
	if interval < 0 {
		interval = 0
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Interval returns the default per-domain spacing
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Acquire blocks until the domain may be contacted again or ctx is done
func (l *Limiter) Acquire(ctx context.Context, domain string) error {
	return l.getLimiter(strings.ToLower(domain)).Wait(ctx)
}

// Wait acquires a permit for the domain of rawURL
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain, err := ExtractDomain(rawURL)
	if err != nil {
		return err
	}
	return l.Acquire(ctx, domain)
}

// Allow checks if a request is allowed without waiting
func (l *Limiter) Allow(rawURL string) bool {
	domain, err := ExtractDomain(rawURL)
	if err != nil {
		return false
	}
	return l.getLimiter(domain).Allow()
}

// getLimiter returns the rate limiter for a domain
func (l *Limiter) getLimiter(domain string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[domain]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(every(l.interval), 1)
	l.limiters[domain] = limiter

	return limiter
}

// SetDomainInterval widens the spacing for one domain, e.g. from a robots.txt crawl delay.
// Intervals shorter than the default are ignored.
func (l *Limiter) SetDomainInterval(domain string, interval time.Duration) {
	if interval <= l.interval {
		return
	}
	limiter := l.getLimiter(strings.ToLower(domain))
	limiter.SetLimit(every(interval))
}

func every(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// ExtractDomain returns the lowercase host of a URL without its port
func ExtractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return strings.ToLower(parsed.Hostname()), nil
}
