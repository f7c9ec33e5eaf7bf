package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/dealscout/internal/model"
)

const (
	industryConfidence = 0.8
	keywordConfidence  = 0.7
	metadataConfidence = 0.9
)

// industryKeywords maps an industry to the terms that indicate it
var industryKeywords = map[string][]string{
	"healthcare tech": {
		"healthcare", "health tech", "medical", "patient", "clinical",
		"hospital", "telehealth", "healthtech", "medtech", "ehr", "emr",
	},
	"fintech": {
		"fintech", "financial", "banking", "payments", "lending",
		"insurance", "insurtech", "wealth", "trading",
	},
	"edtech": {
		"education", "edtech", "learning", "school", "training",
		"e-learning", "lms", "course", "student",
	},
	"cybersecurity": {
		"security", "cybersecurity", "infosec", "threat", "vulnerability",
		"encryption", "firewall", "siem",
	},
	"devtools": {
		"developer", "devops", "ci/cd", "deployment", "infrastructure",
		"api", "sdk", "programming", "software development",
	},
	"martech": {
		"marketing", "martech", "advertising", "attribution",
		"campaign", "crm", "customer data", "email marketing",
	},
	"hrtech": {
		"human resources", "recruiting", "hiring", "payroll",
		"benefits", "workforce", "talent",
	},
	"proptech": {
		"real estate", "property", "proptech", "housing", "rental",
		"mortgage", "construction",
	},
	"logistics": {
		"logistics", "shipping", "supply chain", "warehouse", "delivery",
		"freight", "fleet", "transportation",
	},
	"data infrastructure": {
		"database", "data warehouse", "etl", "data pipeline",
		"analytics", "business intelligence", "data lake",
	},
}

// riskCategory is a class of business that acquirers commonly rule out
type riskCategory struct {
	name     string
	field    model.Field // industry for lines of business, keyword for situations
	patterns []*regexp.Regexp
}

var riskCategories = []riskCategory{
	{"cryptocurrency", model.FieldIndustry, compileAll(`\bcrypto(currency|currencies)?\b`, `\bblockchain\b`, `\bnfts?\b`, `\bweb3\b`)},
	{"gambling", model.FieldIndustry, compileAll(`\bgambling\b`, `\bcasinos?\b`, `\bbetting\b`, `\bpoker\b`)},
	{"adult_content", model.FieldIndustry, compileAll(`\badult (content|entertainment)\b`, `\bexplicit\b`, `\b18\+`)},
	{"weapons", model.FieldIndustry, compileAll(`\bweapons?\b`, `\bfirearms?\b`, `\bammunition\b`)},
	{"tobacco", model.FieldIndustry, compileAll(`\btobacco\b`, `\bcigarettes?\b`, `\bvaping\b`, `\be-?cigs?\b`)},
	{"government_contractor", model.FieldKeyword, compileAll(`\bgovernment.contracts?\b`, `\bdefense.contracts?\b`)},
	{"litigation", model.FieldKeyword, compileAll(`\blawsuits?\b`, `\blitigation\b`, `\bsued\b`)},
	{"bankruptcy", model.FieldKeyword, compileAll(`\bbankruptcy\b`, `\binsolvent\b`, `\bchapter.11\b`)},
}

type industryRule struct {
	name     string
	patterns []*regexp.Regexp
}

// HeuristicStrategy matches keyword maps, profile terms and published metadata
type HeuristicStrategy struct {
	industries []industryRule
}

// NewHeuristicStrategy creates the keyword strategy with the built-in industry map
func NewHeuristicStrategy() *HeuristicStrategy {
	names := make([]string, 0, len(industryKeywords))
	for name := range industryKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make([]industryRule, 0, len(names))
	for _, name := range names {
		terms := append([]string{name}, industryKeywords[name]...)
		rule := industryRule{name: name}
		for _, term := range terms {
			rule.patterns = append(rule.patterns, termPattern(term))
		}
		rules = append(rules, rule)
	}
	return &HeuristicStrategy{industries: rules}
}

// Name returns the strategy name
func (s *HeuristicStrategy) Name() string { return "heuristic" }

// Method returns the extraction method
func (s *HeuristicStrategy) Method() model.ExtractionMethod { return model.MethodHeuristic }

// Extract runs the keyword maps over the page title, description, meta keywords and text
func (s *HeuristicStrategy) Extract(ctx context.Context, page Page, hint Hint) ([]model.Evidence, error) {
	corpus := pageCorpus(page)
	e := emitter{url: page.URL, method: model.MethodHeuristic}

	for _, rule := range s.industries {
		if snippet, ok := firstSnippet(corpus, rule.patterns); ok {
			e.add(model.FieldIndustry, rule.name, snippet, industryConfidence)
		}
	}

	for _, risk := range riskCategories {
		if snippet, ok := firstSnippet(corpus, risk.patterns); ok {
			if risk.field == model.FieldIndustry {
				e.add(model.FieldIndustry, risk.name, snippet, industryConfidence)
			} else {
				e.addFor(model.CriterionDealbreaker, model.FieldKeyword, risk.name, snippet, keywordConfidence)
			}
		}
	}

	if p := hint.Profile; p != nil {
		for _, term := range p.IndustriesInclude {
			if _, known := industryKeywords[strings.ToLower(strings.TrimSpace(term))]; known {
				continue
			}
			if snippet, ok := termSnippet(corpus, term); ok {
				e.add(model.FieldIndustry, term, snippet, industryConfidence)
			}
		}
		for _, term := range p.IndustriesExclude {
			if snippet, ok := termSnippet(corpus, term); ok {
				e.add(model.FieldIndustry, term, snippet, industryConfidence)
			}
		}
		for _, term := range p.KeywordsInclude {
			if snippet, ok := termSnippet(corpus, term); ok {
				e.addFor(model.CriterionKeyword, model.FieldKeyword, term, snippet, keywordConfidence)
			}
		}
		for _, term := range append(append([]string{}, p.KeywordsExclude...), p.Dealbreakers...) {
			if snippet, ok := termSnippet(corpus, term); ok {
				e.addFor(model.CriterionDealbreaker, model.FieldKeyword, term, snippet, keywordConfidence)
			}
		}
	}

	if org := page.Organization; org != nil {
		if org.Employees != nil && *org.Employees > 0 {
			e.add(model.FieldEmployeeCount, strconv.Itoa(*org.Employees),
				fmt.Sprintf("numberOfEmployees: %d", *org.Employees), metadataConfidence)
		}
		location := strings.Trim(strings.Join([]string{org.Locality, org.Country}, ", "), ", ")
		if location != "" {
			snippet := "address: " + location
			e.add(model.FieldHeadquarters, location, snippet, metadataConfidence)
			if code := model.LocationCountry(location); code != "" {
				e.add(model.FieldCountry, code, snippet, metadataConfidence)
			}
		}
	}

	return e.items, nil
}

// pageCorpus joins the searchable parts of a page
func pageCorpus(page Page) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{page.Title, page.Description, strings.Join(page.MetaKeywords, ", "), page.Text} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

func termSnippet(text, term string) (string, bool) {
	re := termPattern(term)
	if re == nil {
		return "", false
	}
	return SnippetFor(text, re)
}
