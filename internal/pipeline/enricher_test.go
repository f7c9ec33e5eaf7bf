package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/dealscout/internal/cache"
	"github.com/ppiankov/dealscout/internal/extract"
	"github.com/ppiankov/dealscout/internal/model"
	"github.com/ppiankov/dealscout/internal/util"
	"github.com/ppiankov/dealscout/internal/worker"
)

const aboutHTML = `<html><head><title>About Acme</title></head>
<body><p>Acme is a SaaS company with 40 employees serving B2B customers.</p></body></html>`

// recordingStrategy notes every page it is shown
type recordingStrategy struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingStrategy) Name() string                   { return "recorder" }
func (r *recordingStrategy) Method() model.ExtractionMethod { return model.MethodHeuristic }

func (r *recordingStrategy) Extract(ctx context.Context, page extract.Page, hint extract.Hint) ([]model.Evidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, page.URL)
	return nil, nil
}

// companySite serves robots, an about page with facts, a plain home page and 404 elsewhere
func companySite(t *testing.T, robots string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var pageHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = fmt.Fprint(w, robots)
			return
		case "/":
			pageHits.Add(1)
			_, _ = fmt.Fprint(w, `<html><body><h1>Welcome to Acme</h1></body></html>`)
		case "/about":
			pageHits.Add(1)
			_, _ = fmt.Fprint(w, aboutHTML)
		default:
			pageHits.Add(1)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &pageHits
}

func gateWith(c cache.Cache, robots bool) *Gate {
	cfg := GateConfig{
		Limiter: worker.NewLimiter(0),
		Cache:   c,
		Fetcher: NewFetcher(2*time.Second, "DealScout/0.1", 1<<20, "", "", ""),
		Timeout: 2 * time.Second,
	}
	if robots {
		cfg.Robots = util.NewRobotsChecker("DealScout/0.1", 2*time.Second, nil)
	}
	return NewGate(cfg)
}

func outcomeStatuses(outcomes []model.FetchOutcome) map[string]model.FetchStatus {
	out := make(map[string]model.FetchStatus, len(outcomes))
	for _, o := range outcomes {
		out[o.URL] = o.Status
	}
	return out
}

func TestPageURLs(t *testing.T) {
	tests := []struct {
		website string
		paths   []string
		want    []string
		wantErr bool
	}{
		{"https://acme.example", []string{"", "about"}, []string{"https://acme.example/", "https://acme.example/about"}, false},
		{"acme.example/some/path?q=1", []string{"/pricing/"}, []string{"https://acme.example/pricing"}, false},
		{"http://acme.example:8080", []string{"", "/", "careers"}, []string{"http://acme.example:8080/", "http://acme.example:8080/careers"}, false},
		{"", []string{""}, nil, true},
		{"https://", []string{""}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.website, func(t *testing.T) {
			got, err := PageURLs(tt.website, tt.paths)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PageURLs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageURLs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnricher_RecordsOutcomesAndExtracts(t *testing.T) {
	server, _ := companySite(t, "User-agent: *\nDisallow: /pricing\n")
	gate := gateWith(cache.NewMemoryCache(time.Hour, time.Minute), true)

	profile := &model.CriteriaProfile{BusinessModel: model.BusinessModelRules{Types: []string{"SaaS"}}}
	enricher := NewEnricher(gate, extract.NewExtractor(nil, extract.DefaultStrategies(nil, "")...), profile,
		[]string{"", "about", "pricing", "careers"}, nil)

	c, err := enricher.Enrich(context.Background(), model.CandidateCompany{Name: "Acme", Website: server.URL})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	want := map[string]model.FetchStatus{
		server.URL + "/":        model.FetchStatusFetched,
		server.URL + "/about":   model.FetchStatusFetched,
		server.URL + "/pricing": model.FetchStatusPolicyExcluded,
		server.URL + "/careers": model.FetchStatusFailed,
	}
	if got := outcomeStatuses(c.FetchOutcomes); !reflect.DeepEqual(got, want) {
		t.Errorf("Unexpected outcomes:\n got %v\nwant %v", got, want)
	}

	if c.BusinessModel != "SaaS" {
		t.Errorf("Expected SaaS, got %q", c.BusinessModel)
	}
	if c.EmployeeCount == nil || *c.EmployeeCount != 40 {
		t.Errorf("Expected 40 employees, got %v", c.EmployeeCount)
	}
	for _, ev := range c.Evidence {
		if ev.SourceURL != server.URL+"/about" && ev.SourceURL != server.URL+"/" {
			t.Errorf("Evidence from an unexpected page: %+v", ev)
		}
	}

	// second pass is served from the cache
	c, err = enricher.Enrich(context.Background(), model.CandidateCompany{Name: "Acme", Website: server.URL})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if got := outcomeStatuses(c.FetchOutcomes)[server.URL+"/about"]; got != model.FetchStatusCached {
		t.Errorf("Expected cached on second pass, got %s", got)
	}
}

// A page disallowed by the host's policy never reaches the extractor; the
// candidate is scored from what was cached before.
func TestEnricher_PolicyExcludedPagesNeverExtracted(t *testing.T) {
	server, hits := companySite(t, "User-agent: *\nDisallow: /\n")
	shared := cache.NewMemoryCache(time.Hour, time.Minute)

	// an earlier run, before the policy changed, cached the about page
	if _, err := gateWith(shared, false).Fetch(context.Background(), server.URL+"/about"); err != nil {
		t.Fatalf("seed fetch failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("Expected one page request while seeding, got %d", hits.Load())
	}

	recorder := &recordingStrategy{}
	strategies := append(extract.DefaultStrategies(nil, ""), recorder)
	enricher := NewEnricher(gateWith(shared, true), extract.NewExtractor(nil, strategies...), &model.CriteriaProfile{},
		[]string{"", "about", "pricing"}, nil)

	c, err := enricher.Enrich(context.Background(), model.CandidateCompany{Name: "Acme", Website: server.URL})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("Disallowed pages must not be requested, got %d page hits", hits.Load())
	}
	if !reflect.DeepEqual(recorder.urls, []string{server.URL + "/about"}) {
		t.Errorf("Extractor saw %v, want only the cached about page", recorder.urls)
	}

	want := map[string]model.FetchStatus{
		server.URL + "/":        model.FetchStatusPolicyExcluded,
		server.URL + "/about":   model.FetchStatusCached,
		server.URL + "/pricing": model.FetchStatusPolicyExcluded,
	}
	if got := outcomeStatuses(c.FetchOutcomes); !reflect.DeepEqual(got, want) {
		t.Errorf("Unexpected outcomes:\n got %v\nwant %v", got, want)
	}
	if len(c.Evidence) == 0 {
		t.Fatal("Expected evidence from the cached page")
	}
	for _, ev := range c.Evidence {
		if ev.SourceURL != server.URL+"/about" {
			t.Errorf("Evidence must come from the cached page only, got %+v", ev)
		}
	}
}

func TestEnricher_NoPages(t *testing.T) {
	server, _ := companySite(t, "User-agent: *\nDisallow: /\n")
	enricher := NewEnricher(gateWith(nil, true), extract.NewExtractor(nil, extract.DefaultStrategies(nil, "")...),
		&model.CriteriaProfile{}, nil, nil)

	c, err := enricher.Enrich(context.Background(), model.CandidateCompany{Name: "Acme", Website: server.URL})
	if !errors.Is(err, model.ErrNoPages) {
		t.Fatalf("Expected ErrNoPages, got %v", err)
	}
	if c.Name != "Acme" || len(c.FetchOutcomes) != len(model.DefaultPages) {
		t.Errorf("Candidate should still carry identity and outcomes, got %+v", c)
	}
	if len(c.Evidence) != 0 {
		t.Errorf("Expected no evidence, got %d", len(c.Evidence))
	}
}

func TestEnricher_StopsOnCancel(t *testing.T) {
	server, hits := companySite(t, "")
	enricher := NewEnricher(gateWith(nil, false), extract.NewExtractor(nil), &model.CriteriaProfile{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := enricher.Enrich(ctx, model.CandidateCompany{Name: "Acme", Website: server.URL})
	if !errors.Is(err, model.ErrNoPages) {
		t.Errorf("Expected ErrNoPages after cancellation, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("No fetch may start after cancellation, got %d", hits.Load())
	}
}
