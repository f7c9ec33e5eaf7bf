package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/dealscout/internal/model"
)

func TestFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, "", "", "")
	result, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.HTML != "<html><body>OK</body></html>" {
		t.Errorf("unexpected HTML: %s", result.HTML)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("unexpected status %d", result.StatusCode)
	}
}

func TestFetcher_MaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 4, "", "", "")
	result, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if result.HTML != "0123" {
		t.Errorf("expected truncated body, got %q", result.HTML)
	}
}

func TestFetcher_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, "", "", "")
			_, err := fetcher.Fetch(context.Background(), server.URL)

			var fetchErr *model.FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected *model.FetchError, got %v", err)
			}
			if fetchErr.Kind != model.FetchHTTPStatus || fetchErr.StatusCode != tt.status {
				t.Errorf("unexpected error %+v", fetchErr)
			}
			if fetchErr.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", fetchErr.Retryable(), tt.retryable)
			}
		})
	}
}

func TestFetcher_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	fetcher := NewFetcher(time.Second, "test-agent", 1<<20, "", "", "")
	_, err := fetcher.Fetch(context.Background(), addr)

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *model.FetchError, got %v", err)
	}
	if fetchErr.Kind != model.FetchNetwork {
		t.Errorf("expected network kind, got %s", fetchErr.Kind)
	}
	if !fetchErr.Retryable() {
		t.Error("network errors should be retryable")
	}
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, "", "", "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := fetcher.Fetch(ctx, server.URL)
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *model.FetchError, got %v", err)
	}
	if fetchErr.Kind != model.FetchTimeout {
		t.Errorf("expected timeout kind, got %s", fetchErr.Kind)
	}
}
