package extract

import (
	"regexp"
	"strings"
	"testing"
)

const acmeHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Acme Ledger | Close the books faster</title>
	<meta name="description" content="Accounting automation for   finance teams">
	<meta name="keywords" content="accounting, fintech, , close management">
	<script type="application/ld+json">
	{"@context":"https://schema.org","@graph":[
		{"@type":"WebSite","name":"Acme"},
		{"@type":"Organization","name":"Acme Ledger Inc.","foundingDate":"2016",
		 "numberOfEmployees":{"@type":"QuantitativeValue","minValue":100,"maxValue":140},
		 "address":{"@type":"PostalAddress","addressLocality":"Austin","addressCountry":"US"}}
	]}
	</script>
	<style>.hero { color: red; }</style>
</head>
<body>
	<header><a href="/">Home</a></header>
	<nav><a href="/pricing">Pricing</a><a href="/careers">Careers</a></nav>
	<main>
		<h1>Close the books faster</h1>
		<p>Acme Ledger is a SaaS platform for finance teams.</p>
		<p>Trusted by 500+ companies.</p>
	</main>
	<script>var tracking = "should not appear";</script>
	<form><input name="email"><button>Subscribe</button></form>
	<footer>Copyright Acme</footer>
</body>
</html>`

func TestParsePage(t *testing.T) {
	page, err := ParsePage(acmeHTML, "https://acme.example/")
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}

	if page.URL != "https://acme.example/" {
		t.Errorf("Expected URL to be kept, got %s", page.URL)
	}
	if page.Title != "Acme Ledger | Close the books faster" {
		t.Errorf("Unexpected title: %q", page.Title)
	}
	if page.Description != "Accounting automation for finance teams" {
		t.Errorf("Expected collapsed description, got %q", page.Description)
	}
	if strings.Join(page.MetaKeywords, "|") != "accounting|fintech|close management" {
		t.Errorf("Unexpected keywords: %v", page.MetaKeywords)
	}

	if !strings.Contains(page.Text, "Acme Ledger is a SaaS platform for finance teams.") {
		t.Errorf("Expected body text, got %q", page.Text)
	}
	for _, hidden := range []string{"tracking", "Pricing", "Copyright", "Subscribe", "color: red", "Home"} {
		if strings.Contains(page.Text, hidden) {
			t.Errorf("Boilerplate %q leaked into text: %q", hidden, page.Text)
		}
	}

	org := page.Organization
	if org == nil {
		t.Fatal("Expected Organization metadata")
	}
	if org.Name != "Acme Ledger Inc." || org.FoundingDate != "2016" {
		t.Errorf("Unexpected organization: %+v", org)
	}
	if org.Employees == nil || *org.Employees != 120 {
		t.Errorf("Expected midpoint of employee range (120), got %v", org.Employees)
	}
	if org.Country != "US" || org.Locality != "Austin" {
		t.Errorf("Unexpected address: %q %q", org.Locality, org.Country)
	}
}

func TestParsePage_EmployeeFormats(t *testing.T) {
	tests := []struct {
		name string
		ld   string
		want int
	}{
		{"number", `{"@type":"Organization","numberOfEmployees":42}`, 42},
		{"string", `{"@type":"Corporation","numberOfEmployees":"1,200"}`, 1200},
		{"quantitative value", `{"@type":"Organization","numberOfEmployees":{"value":75}}`, 75},
		{"array", `[{"@type":"Product"},{"@type":["Thing","LocalOrganization"],"numberOfEmployees":9}]`, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `<html><head><script type="application/ld+json">` + tt.ld + `</script></head><body>x</body></html>`
			page, err := ParsePage(raw, "https://x.example/")
			if err != nil {
				t.Fatalf("ParsePage failed: %v", err)
			}
			if page.Organization == nil || page.Organization.Employees == nil {
				t.Fatalf("Expected employees, got %+v", page.Organization)
			}
			if *page.Organization.Employees != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, *page.Organization.Employees)
			}
		})
	}
}

func TestParsePage_BadLDJSONIgnored(t *testing.T) {
	raw := `<html><head><script type="application/ld+json">{not json</script></head><body><p>Hello</p></body></html>`
	page, err := ParsePage(raw, "https://x.example/")
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	if page.Organization != nil {
		t.Errorf("Expected no organization, got %+v", page.Organization)
	}
	if page.Text != "Hello" {
		t.Errorf("Expected text Hello, got %q", page.Text)
	}
}

func TestParsePage_TextCapped(t *testing.T) {
	raw := "<html><body><p>" + strings.Repeat("word ", MaxTextChars) + "</p></body></html>"
	page, err := ParsePage(raw, "https://x.example/")
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	if len(page.Text) > MaxTextChars {
		t.Errorf("Expected text capped at %d, got %d", MaxTextChars, len(page.Text))
	}
}

func TestSnippet(t *testing.T) {
	short := "We are a SaaS company."
	if got := Snippet(short, 9, 13); got != short {
		t.Errorf("Expected whole text for short input, got %q", got)
	}

	long := strings.Repeat("a", 100) + "MATCH" + strings.Repeat("b", 100)
	got := Snippet(long, 100, 105)
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis on both sides, got %q", got)
	}
	if !strings.Contains(got, "MATCH") {
		t.Errorf("Expected match inside snippet, got %q", got)
	}
	if want := 3 + 80 + 5 + 80 + 3; len(got) != want {
		t.Errorf("Expected %d chars, got %d", want, len(got))
	}

	huge := strings.Repeat("x", 300)
	got = Snippet(huge, 0, 300)
	if len(got) > maxSnippet {
		t.Errorf("Expected at most %d chars, got %d", maxSnippet, len(got))
	}

	if _, ok := SnippetFor(short, regexp.MustCompile(`marketplace`)); ok {
		t.Error("Expected no snippet without a match")
	}
}

func TestSnippet_RuneSafe(t *testing.T) {
	text := strings.Repeat("é", 60) + "match" + strings.Repeat("ü", 60)
	got := Snippet(text, strings.Index(text, "match"), strings.Index(text, "match")+5)
	if !strings.Contains(got, "match") {
		t.Fatalf("Expected match, got %q", got)
	}
	if strings.ContainsRune(got, '�') {
		t.Errorf("Snippet split a rune: %q", got)
	}
}
