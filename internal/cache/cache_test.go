package cache

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTPS://Example.COM", "https://example.com/"},
		{"https://example.com/about/", "https://example.com/about"},
		{"https://example.com:443/pricing#plans", "https://example.com/pricing"},
		{"http://example.com:80/", "http://example.com/"},
		{"https://example.com/a?b=1", "https://example.com/a?b=1"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCacheKey_EquivalentURLs(t *testing.T) {
	a := CacheKey("https://Example.com/about/")
	b := CacheKey("https://example.com/about")
	if a != b {
		t.Errorf("expected equal keys, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "dealscout:v1:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
	if CacheKey("https://example.com/careers") == a {
		t.Error("different paths should not share a key")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("expected hit with v, got %q %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(CacheKey("https://example.com"), []byte("page"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, ok := c.Get(CacheKey("https://example.com")); !ok || string(got) != "page" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get(CacheKey("https://example.com")); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache_ConcurrentWritesSameKey(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := CacheKey("https://example.com")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Set(key, []byte("same body"), 0); err != nil {
				t.Errorf("Set failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got, ok := c.Get(key); !ok || string(got) != "same body" {
		t.Errorf("expected intact entry, got %q %v", got, ok)
	}
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Delete("nope"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	mem := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	layered := NewLayered(mem, disk)

	if err := disk.Set("k", []byte("from disk"), 0); err != nil {
		t.Fatal(err)
	}
	if got, ok := layered.Get("k"); !ok || string(got) != "from disk" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	if _, ok := mem.Get("k"); !ok {
		t.Error("expected disk hit to be promoted into memory")
	}

	if err := layered.Set("k2", []byte("both"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := disk.Get("k2"); !ok {
		t.Error("expected write-through to disk")
	}
}
