package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Cache is a byte store keyed by string.
// Writes to one key are atomic and idempotent, so concurrent workers may race on the same URL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from a URL
func CacheKey(rawURL string) string {
	hash := sha256.Sum256([]byte(NormalizeURL(rawURL)))
	return "dealscout:v1:" + hex.EncodeToString(hash[:])
}

// NormalizeURL canonicalizes a URL for keying: lowercase scheme and host,
// no fragment, no default port, no trailing slash on non-root paths
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	parsed.Host = host
	parsed.Fragment = ""

	if parsed.Path == "" {
		parsed.Path = "/"
	} else if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}
