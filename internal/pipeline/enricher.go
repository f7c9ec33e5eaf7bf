package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/extract"
	"github.com/ppiankov/dealscout/internal/model"
)

// PageSource is the part of the Gate the enricher depends on
type PageSource interface {
	Fetch(ctx context.Context, rawURL string) (*CachedPage, error)
}

// Enricher crawls one candidate's pages and turns them into evidence
type Enricher struct {
	source    PageSource
	extractor *extract.Extractor
	profile   *model.CriteriaProfile
	pages     []string
	logger    *zap.Logger
}

// NewEnricher creates an enricher. An empty page list crawls model.DefaultPages.
func NewEnricher(source PageSource, extractor *extract.Extractor, profile *model.CriteriaProfile, pages []string, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(pages) == 0 {
		pages = model.DefaultPages
	}
	return &Enricher{
		source:    source,
		extractor: extractor,
		profile:   profile,
		pages:     pages,
		logger:    logger,
	}
}

// Enrich fetches the candidate's pages through the gate, extracts evidence and
// applies it. Per-page failures are recorded as fetch outcomes. When no page could
// be obtained the returned candidate is still usable and the error wraps model.ErrNoPages.
func (e *Enricher) Enrich(ctx context.Context, seed model.CandidateCompany) (model.CandidateCompany, error) {
	log := e.logger.With(zap.String("candidate", seed.Name))

	urls, err := PageURLs(seed.Website, e.pages)
	if err != nil {
		return seed, fmt.Errorf("%s: %w: %v", seed.Name, model.ErrNoPages, err)
	}

	var pages []extract.Page
	var outcomes []model.FetchOutcome

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}

		cp, err := e.source.Fetch(ctx, u)
		switch {
		case errors.Is(err, model.ErrPolicyExcluded):
			outcomes = append(outcomes, model.FetchOutcome{URL: u, Status: model.FetchStatusPolicyExcluded})
			continue
		case err != nil:
			log.Debug("fetch failed", zap.String("url", u), zap.Error(err))
			outcomes = append(outcomes, model.FetchOutcome{URL: u, Status: model.FetchStatusFailed, Error: err.Error()})
			continue
		}

		pageURL := cp.FinalURL
		if pageURL == "" {
			pageURL = u
		}
		page, err := extract.ParsePage(cp.HTML, pageURL)
		if err != nil {
			outcomes = append(outcomes, model.FetchOutcome{URL: u, Status: model.FetchStatusFailed, Error: err.Error()})
			continue
		}

		status := model.FetchStatusFetched
		if cp.FromCache {
			status = model.FetchStatusCached
		}
		outcomes = append(outcomes, model.FetchOutcome{URL: u, Status: status})
		pages = append(pages, page)
	}

	res := e.extractor.Extract(ctx, pages, extract.Hint{
		Profile:     e.profile,
		CompanyName: seed.Name,
		Website:     seed.Website,
	})

	c := extract.Apply(seed, res)
	c.FetchOutcomes = append(append([]model.FetchOutcome(nil), seed.FetchOutcomes...), outcomes...)

	log.Debug("enriched",
		zap.Int("pages", len(pages)),
		zap.Int("evidence", len(res.Evidence)),
		zap.Int("strategy_failures", len(res.Failures)),
	)

	if len(pages) == 0 {
		return c, fmt.Errorf("%s: %w", seed.Website, model.ErrNoPages)
	}
	return c, nil
}

// PageURLs expands a website into the URLs of the given paths on the same host.
// A website without a scheme is assumed to be https.
func PageURLs(website string, paths []string) ([]string, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return nil, fmt.Errorf("empty website")
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	base, err := url.Parse(website)
	if err != nil {
		return nil, fmt.Errorf("parse website: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("website %q has no host", website)
	}

	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		u := url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/" + strings.Trim(strings.TrimSpace(p), "/")}
		s := u.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}
