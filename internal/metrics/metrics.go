package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/model"
)

var (
	candidatesDesc = prometheus.NewDesc(
		"dealscout_candidates",
		"Candidates in the current run by stage",
		[]string{"stage"},
		nil,
	)
	pagesDesc = prometheus.NewDesc(
		"dealscout_pages",
		"Crawled pages in the current run by outcome",
		[]string{"outcome"},
		nil,
	)
	stateDesc = prometheus.NewDesc(
		"dealscout_run_state",
		"1 for the current run state, 0 otherwise",
		[]string{"state"},
		nil,
	)
	elapsedDesc = prometheus.NewDesc(
		"dealscout_run_elapsed_seconds",
		"Seconds since the current run started",
		nil,
		nil,
	)
)

var states = []model.RunState{
	model.RunPending, model.RunRunning, model.RunCompleted, model.RunCancelled, model.RunFailed,
}

// StatusSource is anything that can report run progress
type StatusSource interface {
	Status() model.RunStats
}

// RunCollector is a custom Prometheus collector that reads the run status
// snapshot on each scrape.
type RunCollector struct {
	source StatusSource
	now    func() time.Time
}

// NewRunCollector creates a collector over a status source
func NewRunCollector(source StatusSource) *RunCollector {
	return &RunCollector{source: source, now: time.Now}
}

// Describe sends the metric descriptors to the channel.
func (c *RunCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- candidatesDesc
	ch <- pagesDesc
	ch <- stateDesc
	ch <- elapsedDesc
}

// Collect emits the current snapshot as gauges.
func (c *RunCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Status()

	for _, m := range []struct {
		label string
		value int64
	}{
		{"found", s.Found},
		{"enriched", s.Enriched},
		{"scored", s.Scored},
	} {
		ch <- prometheus.MustNewConstMetric(candidatesDesc, prometheus.GaugeValue, float64(m.value), m.label)
	}

	for _, m := range []struct {
		label string
		value int64
	}{
		{string(model.FetchStatusFetched), s.PagesFetched},
		{string(model.FetchStatusCached), s.PagesCached},
		{string(model.FetchStatusPolicyExcluded), s.PolicyExcluded},
		{string(model.FetchStatusFailed), s.FetchFailures},
	} {
		ch <- prometheus.MustNewConstMetric(pagesDesc, prometheus.GaugeValue, float64(m.value), m.label)
	}

	for _, st := range states {
		v := 0.0
		if s.State == st {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(stateDesc, prometheus.GaugeValue, v, string(st))
	}

	elapsed := 0.0
	if !s.StartedAt.IsZero() {
		elapsed = c.now().Sub(s.StartedAt).Seconds()
	}
	ch <- prometheus.MustNewConstMetric(elapsedDesc, prometheus.GaugeValue, elapsed)
}

// NewHandler registers the collector on a fresh registry and returns the /metrics handler
func NewHandler(source StatusSource) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewRunCollector(source)); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, source StatusSource, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	handler, err := NewHandler(source)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("metrics listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	}
}
