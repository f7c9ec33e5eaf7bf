package dedupe

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/dealscout/internal/model"
)

// DefaultNameThreshold is the similarity at which two company names are treated as one
const DefaultNameThreshold = 0.85

var (
	suffixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i),?\s+(inc\.?|llc|ltd\.?|corp\.?|co\.?|company|gmbh|s\.?a\.?|plc)$`),
		regexp.MustCompile(`(?i)\s+(incorporated|limited|corporation)$`),
	}
	nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// Deduplicator merges seeds that name the same company
type Deduplicator struct {
	threshold float64
}

// New creates a deduplicator. A threshold outside (0,1] uses DefaultNameThreshold.
func New(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultNameThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// Dedupe returns the seeds with duplicates merged into their first occurrence.
// Seeds match by normalized domain, then by fuzzy name. Input order is kept and
// the input slice is not modified.
func (d *Deduplicator) Dedupe(seeds []model.CandidateCompany) []model.CandidateCompany {
	out := make([]model.CandidateCompany, 0, len(seeds))
	byDomain := make(map[string]int, len(seeds))
	names := make([]string, 0, len(seeds))

	for _, seed := range seeds {
		c := seed
		if c.Domain == "" {
			c.Domain = c.Website
		}
		c.Domain = NormalizeDomain(c.Domain)

		if c.Domain != "" {
			if i, ok := byDomain[c.Domain]; ok {
				merge(&out[i], &c)
				continue
			}
		}

		name := NormalizeName(c.Name)
		dup := -1
		for i, seen := range names {
			if d.NamesMatch(name, seen) {
				dup = i
				break
			}
		}
		// two distinct domains are two companies even when the names are close
		if dup >= 0 && (out[dup].Domain == "" || c.Domain == "") {
			merge(&out[dup], &c)
			if out[dup].Domain != "" {
				byDomain[out[dup].Domain] = dup
			}
			continue
		}

		if c.Domain != "" {
			byDomain[c.Domain] = len(out)
		}
		names = append(names, name)
		out = append(out, c)
	}
	return out
}

// NamesMatch reports whether two normalized names refer to the same company
func (d *Deduplicator) NamesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return Similarity(a, b) >= d.threshold
}

// NormalizeDomain reduces a domain or URL to its lowercase host without www or port
func NormalizeDomain(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			raw = u.Host
		}
	}
	raw = strings.TrimPrefix(raw, "//")
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimPrefix(raw, "www.")
}

// NormalizeName lowercases a company name and strips legal suffixes and punctuation
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, re := range suffixPatterns {
		name = re.ReplaceAllString(name, "")
	}
	name = nonWord.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// Similarity is 1 minus the edit distance over the longer length, in [0,1]
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein([]rune(a), []rune(b)))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// merge fills the kept seed's empty fields from a duplicate
func merge(kept, dup *model.CandidateCompany) {
	if kept.Name == "" {
		kept.Name = dup.Name
	}
	if kept.Domain == "" {
		kept.Domain = dup.Domain
	}
	if kept.Website == "" {
		kept.Website = dup.Website
	}
	if kept.Source == "" {
		kept.Source = dup.Source
	}
	if kept.Country == "" {
		kept.Country = dup.Country
	}
	if kept.Headquarters == "" {
		kept.Headquarters = dup.Headquarters
	}
	if kept.EmployeeCount == nil {
		kept.EmployeeCount = dup.EmployeeCount
	}
	if len(dup.Industries) == 0 {
		return
	}
	kept.Industries = append([]string(nil), kept.Industries...)
	for _, ind := range dup.Industries {
		kept.Industries = model.AddTerm(kept.Industries, ind)
	}
}
