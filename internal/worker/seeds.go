package worker

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/dealscout/internal/dedupe"
	"github.com/ppiankov/dealscout/internal/model"
)

// ReadSeedsFromFile reads seed companies from a file
func ReadSeedsFromFile(filePath string) ([]model.CandidateCompany, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadSeeds(file, filePath)
}

// ReadSeeds parses one seed per line as "website[, name]". Blank lines and
// lines starting with # are skipped; a missing name defaults to the domain.
func ReadSeeds(r io.Reader, source string) ([]model.CandidateCompany, error) {
	var seeds []model.CandidateCompany
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		website, name, _ := strings.Cut(line, ",")
		website = strings.TrimSpace(website)
		name = strings.TrimSpace(name)

		domain := dedupe.NormalizeDomain(website)
		if domain == "" || strings.ContainsAny(domain, " \t") {
			return nil, fmt.Errorf("line %d: invalid website %q", lineNo, website)
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		if !strings.Contains(website, "://") {
			website = "https://" + website
		}
		if name == "" {
			name = domain
		}
		seeds = append(seeds, model.CandidateCompany{
			Name:    name,
			Domain:  domain,
			Website: website,
			Source:  source,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return seeds, nil
}
