package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/dealscout/internal/model"
)

// Confidence assigned to pattern matches
const (
	employeeConfidence   = 0.8
	financialConfidence  = 0.7
	recurringConfidence  = 0.7
	customerConfidence   = 0.7
	complianceConfidence = 0.9
	signalConfidence     = 0.6
	locationConfidence   = 0.6
)

type labeledPatterns struct {
	label    string
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

var businessModelPatterns = []labeledPatterns{
	{"SaaS", compileAll(
		`\b(saas|software.as.a.service)\b`,
		`\b(subscription|recurring.revenue|monthly.plan)\b`,
		`\b(cloud.based|cloud.platform|cloud.software)\b`,
	)},
	{"marketplace", compileAll(
		`\b(marketplace|two.?sided|platform.connecting)\b`,
		`\b(buyers?.and.sellers?)\b`,
	)},
	{"services", compileAll(
		`\b(consulting|professional.services|agency)\b`,
		`\b(managed.services|service.provider)\b`,
	)},
	{"hardware", compileAll(
		`\b(hardware|devices?|physical.products?)\b`,
		`\b(manufacturing|iot.devices?)\b`,
	)},
	{"e-commerce", compileAll(
		`\b(e.?commerce|online.store|shop)\b`,
		`\b(retail|direct.to.consumer|d2c)\b`,
	)},
}

var recurringRevenuePatterns = compileAll(
	`\b(subscriptions?|recurring.revenue|monthly.plans?|annual.plans?|billed.(monthly|annually|yearly))\b`,
	`\$\d+(\.\d+)?\s*/\s*(mo|month|yr|year|user|seat)\b`,
	`\bper.(user|seat).per.(month|year)\b`,
	`\b(arr|mrr)\b`,
)

var customerTypePatterns = []labeledPatterns{
	{"B2B", compileAll(
		`\b(b2b|business.to.business)\b`,
		`\b(for.businesses|business.customers)\b`,
	)},
	{"B2C", compileAll(
		`\b(b2c|business.to.consumer|consumers)\b`,
		`\b(for.individuals|personal.use)\b`,
	)},
	{"enterprise", compileAll(
		`\b(enterprise|large.organizations?|fortune.500)\b`,
		`\b(enterprise.grade|enterprise.ready)\b`,
	)},
	{"SMB", compileAll(
		`\b(smbs?|small.business(es)?|medium.business(es)?)\b`,
		`\b(small.and.medium|growing.businesses)\b`,
	)},
}

var employeePatterns = compileAll(
	`(\d[\d,]*)\+?\s*employees`,
	`team\s*of\s*(\d[\d,]*)`,
	`(\d[\d,]*)\s*team\s*members`,
	`staff\s*of\s*(\d[\d,]*)`,
)

// Revenue and funding figures are stated in millions
var revenuePatterns = compileAll(
	`\$(\d+(?:\.\d+)?)\s*(?:m|million)\s*(?:arr|revenue|mrr)`,
	`(\d+(?:\.\d+)?)\s*million\s*(?:in\s*)?revenue`,
	`\barr\s*(?:of\s*)?\$?(\d+(?:\.\d+)?)\s*(?:m|million)\b`,
)

var fundingPatterns = compileAll(
	`raised\s*\$?(\d+(?:\.\d+)?)\s*(?:m|million)\b`,
	`\$(\d+(?:\.\d+)?)\s*(?:m|million)\s*(?:in\s*)?funding`,
	`series\s*[a-d]\s*(?:round\s*)?(?:of\s*)?\$?(\d+(?:\.\d+)?)\s*(?:m|million)\b`,
)

var compliancePatterns = []labeledPatterns{
	{"SOC2", compileAll(`\bsoc\s*2\b`, `\bsoc.ii\b`)},
	{"HIPAA", compileAll(`\bhipaa\b`)},
	{"GDPR", compileAll(`\bgdpr\b`)},
	{"ISO27001", compileAll(`\biso.?27001\b`)},
	{"PCI-DSS", compileAll(`\bpci.?dss\b`, `\bpci.compliant\b`)},
	{"FedRAMP", compileAll(`\bfedramp\b`)},
}

var signalPatterns = []labeledPatterns{
	{"growing_team", compileAll(`we.?re.hiring`, `join.our.team`, `open.positions`)},
	{"recent_funding", compileAll(`recently.raised`, `just.raised`, `announced.(?:\w+.)?funding`)},
	{"product_launch", compileAll(`just.launched`, `now.available`, `\bintroducing\b`)},
	{"customer_growth", compileAll(`serving.\d[\d,]*\+?.customers`, `trusted.by.\d[\d,]*\+?`)},
}

// Location phrases; the capture must start with a capital letter
var headquartersPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:(?:[Hh]eadquartered|[Bb]ased|[Ll]ocated)\s+in|[Hh]eadquarters:|HQ:)\s+([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*(?:,\s*[A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*){0,2})`),
}

// PatternStrategy reads facts from fixed regex tables
type PatternStrategy struct{}

// NewPatternStrategy creates the regex strategy
func NewPatternStrategy() *PatternStrategy {
	return &PatternStrategy{}
}

// Name returns the strategy name
func (s *PatternStrategy) Name() string { return "pattern" }

// Method returns the extraction method
func (s *PatternStrategy) Method() model.ExtractionMethod { return model.MethodPattern }

// Extract applies every table to the page text
func (s *PatternStrategy) Extract(ctx context.Context, page Page, hint Hint) ([]model.Evidence, error) {
	text := page.Text
	e := emitter{url: page.URL, method: model.MethodPattern}

	if label, count, loc := bestLabel(text, businessModelPatterns); label != "" {
		conf := float64(count) / 3.0
		if conf > 1 {
			conf = 1
		}
		e.add(model.FieldBusinessModel, label, Snippet(text, loc[0], loc[1]), conf)
	}

	if snippet, ok := firstSnippet(text, recurringRevenuePatterns); ok {
		e.add(model.FieldRecurringRevenue, "true", snippet, recurringConfidence)
	}

	for _, lp := range customerTypePatterns {
		if snippet, ok := firstSnippet(text, lp.patterns); ok {
			e.add(model.FieldCustomerType, lp.label, snippet, customerConfidence)
		}
	}

	if value, snippet, ok := firstNumber(text, employeePatterns); ok {
		e.add(model.FieldEmployeeCount, strconv.FormatFloat(value, 'f', 0, 64), snippet, employeeConfidence)
	}
	if value, snippet, ok := firstNumber(text, revenuePatterns); ok {
		e.add(model.FieldRevenue, strconv.FormatFloat(value*1_000_000, 'f', 0, 64), snippet, financialConfidence)
	}
	if value, snippet, ok := firstNumber(text, fundingPatterns); ok {
		e.add(model.FieldFunding, strconv.FormatFloat(value*1_000_000, 'f', 0, 64), snippet, financialConfidence)
	}

	for _, lp := range compliancePatterns {
		if snippet, ok := firstSnippet(text, lp.patterns); ok {
			e.add(model.FieldComplianceTag, lp.label, snippet, complianceConfidence)
		}
	}

	for _, lp := range signalPatterns {
		if snippet, ok := firstSnippet(text, lp.patterns); ok {
			e.add(model.FieldSignal, lp.label, snippet, signalConfidence)
		}
	}

	for _, re := range headquartersPatterns {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		location := text[m[2]:m[3]]
		if i := strings.Index(location, ". "); i >= 0 {
			location = location[:i]
		}
		location = strings.TrimRight(location, ".")
		snippet := Snippet(text, m[0], m[1])
		e.add(model.FieldHeadquarters, location, snippet, locationConfidence)
		if code := model.LocationCountry(location); code != "" {
			e.add(model.FieldCountry, code, snippet, locationConfidence)
		}
		break
	}

	return e.items, nil
}

// bestLabel returns the label with the most matches (table order breaks ties),
// its match count and the location of its earliest match
func bestLabel(text string, table []labeledPatterns) (string, int, []int) {
	bestCount := 0
	var best string
	var bestLoc []int
	for _, lp := range table {
		count := 0
		var first []int
		for _, re := range lp.patterns {
			locs := re.FindAllStringIndex(text, -1)
			count += len(locs)
			if len(locs) > 0 && (first == nil || locs[0][0] < first[0]) {
				first = locs[0]
			}
		}
		if count > bestCount {
			best, bestCount, bestLoc = lp.label, count, first
		}
	}
	return best, bestCount, bestLoc
}

// firstSnippet returns the snippet of the first pattern that matches
func firstSnippet(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if snippet, ok := SnippetFor(text, re); ok {
			return snippet, true
		}
	}
	return "", false
}

// firstNumber parses capture group 1 of the first pattern that matches
func firstNumber(text string, patterns []*regexp.Regexp) (float64, string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatchIndex(text)
		if m == nil || m[2] < 0 {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(text[m[2]:m[3]], ",", ""), 64)
		if err != nil || value <= 0 {
			continue
		}
		return value, Snippet(text, m[0], m[1]), true
	}
	return 0, "", false
}

// emitter accumulates evidence for one strategy run, one item per field and value
type emitter struct {
	url    string
	method model.ExtractionMethod
	seen   map[string]bool
	items  []model.Evidence
}

func (e *emitter) add(field model.Field, value, snippet string, confidence float64) {
	e.addFor(criterionFor(field), field, value, snippet, confidence)
}

func (e *emitter) addFor(criterion model.Criterion, field model.Field, value, snippet string, confidence float64) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	key := string(criterion) + "|" + string(field) + "|" + strings.ToLower(value)
	if e.seen == nil {
		e.seen = make(map[string]bool)
	}
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	e.items = append(e.items, model.Evidence{
		Criterion:        criterion,
		Field:            field,
		Value:            value,
		Snippet:          snippet,
		SourceURL:        e.url,
		Confidence:       confidence,
		ExtractionMethod: e.method,
	})
}

// CanonicalBusinessModel maps free-form business model names onto the table labels
func CanonicalBusinessModel(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	switch key {
	case "saas", "softwareasaservice", "subscriptionsoftware":
		return "SaaS"
	case "marketplace":
		return "marketplace"
	case "services", "service", "consulting", "agency":
		return "services"
	case "hardware":
		return "hardware"
	case "ecommerce", "retail", "d2c":
		return "e-commerce"
	default:
		return strings.TrimSpace(s)
	}
}

// CanonicalCustomerType maps customer segment spellings onto the table labels
func CanonicalCustomerType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b2b", "business":
		return "B2B"
	case "b2c", "consumer", "consumers":
		return "B2C"
	case "enterprise", "enterprises":
		return "enterprise"
	case "smb", "smbs", "small business", "mid-market":
		return "SMB"
	default:
		return strings.TrimSpace(s)
	}
}
