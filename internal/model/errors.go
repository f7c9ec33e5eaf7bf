package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPolicyExcluded marks a fetch refused by the host's robots policy
	ErrPolicyExcluded = errors.New("disallowed by robots policy")
	// ErrInvalidProfile is the errors.Is target for every ConfigError
	ErrInvalidProfile = errors.New("invalid criteria profile")
	// ErrNoPages means none of a candidate's pages could be obtained
	ErrNoPages = errors.New("no pages fetched")
	// ErrMalformedEvidence marks strategy output that cannot be used
	ErrMalformedEvidence = errors.New("malformed evidence")
)

// FetchErrorKind classifies fetch failures
type FetchErrorKind string

const (
	FetchNetwork        FetchErrorKind = "network"
	FetchTimeout        FetchErrorKind = "timeout"
	FetchHTTPStatus     FetchErrorKind = "status"
	FetchPolicyExcluded FetchErrorKind = "policy_excluded"
)

// FetchError is a per-page failure. It never aborts a run.
type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchPolicyExcluded:
		return fmt.Sprintf("fetch %s: %v", e.URL, ErrPolicyExcluded)
	case FetchHTTPStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	if e.Kind == FetchPolicyExcluded {
		return ErrPolicyExcluded
	}
	return e.Err
}

// Retryable reports whether a later attempt could succeed.
// The fetch gate itself never retries.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case FetchNetwork, FetchTimeout:
		return true
	case FetchHTTPStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// ExtractionError is a single strategy failing on a single page
type ExtractionError struct {
	Strategy string
	URL      string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("strategy %s on %s: %v", e.Strategy, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConfigError lists every problem found in a criteria profile.
// It is fatal to the run and raised before any candidate is processed.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidProfile, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrInvalidProfile }

// AggregationInvariantError reports a criterion value outside [0,1] reaching the aggregator.
// It is logged and the value clamped; the run continues.
type AggregationInvariantError struct {
	Criterion Criterion
	Value     float64
}

func (e *AggregationInvariantError) Error() string {
	return fmt.Sprintf("criterion %s produced out-of-range value %v", e.Criterion, e.Value)
}
