package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// MaxTextChars caps the visible text kept per page
const MaxTextChars = 50_000

// boilerplate is removed before visible text is collected
const boilerplate = "script, style, noscript, iframe, svg, nav, footer, header, aside, form"

// Page is one fetched document reduced to what strategies read
type Page struct {
	URL          string
	Title        string
	Description  string
	MetaKeywords []string
	Text         string        // Visible text, whitespace collapsed
	Organization *Organization // schema.org Organization, if published
}

// Organization holds the schema.org Organization facts a site publishes about itself
type Organization struct {
	Name         string
	Employees    *int
	Country      string
	Locality     string
	FoundingDate string
}

// ParsePage reduces raw HTML to a Page
func ParsePage(rawHTML, pageURL string) (Page, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	page := Page{URL: pageURL}

	if title := findFirst(root, isElement("title")); title != nil {
		page.Title = collapse(textOf(title))
	}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("property")
		}
		content, _ := s.Attr("content")
		switch strings.ToLower(name) {
		case "description", "og:description":
			if page.Description == "" {
				page.Description = collapse(content)
			}
		case "keywords":
			for _, kw := range strings.Split(content, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					page.MetaKeywords = append(page.MetaKeywords, kw)
				}
			}
		}
	})

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if org := parseOrganization(s.Text()); org != nil {
			page.Organization = org
			return false
		}
		return true
	})

	doc.Find(boilerplate).Remove()

	body := root
	if b := findFirst(root, isElement("body")); b != nil {
		body = b
	}
	page.Text = truncate(collapse(textOf(body)), MaxTextChars)

	return page, nil
}

// parseOrganization reads an ld+json block, which may be a single object,
// an array, or an object with an @graph
func parseOrganization(raw string) *Organization {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}

	var nodes []map[string]interface{}
	switch v := doc.(type) {
	case map[string]interface{}:
		nodes = append(nodes, v)
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]interface{}); ok {
					nodes = append(nodes, m)
				}
			}
		}
	case []interface{}:
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				nodes = append(nodes, m)
			}
		}
	}

	for _, node := range nodes {
		if !isOrganizationType(node["@type"]) {
			continue
		}
		org := &Organization{
			Name:         stringValue(node["name"]),
			FoundingDate: stringValue(node["foundingDate"]),
			Employees:    employeeValue(node["numberOfEmployees"]),
		}
		if addr, ok := node["address"].(map[string]interface{}); ok {
			org.Country = countryValue(addr["addressCountry"])
			org.Locality = stringValue(addr["addressLocality"])
		}
		return org
	}
	return nil
}

func isOrganizationType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return strings.HasSuffix(t, "Organization") || t == "Corporation"
	case []interface{}:
		for _, item := range t {
			if isOrganizationType(item) {
				return true
			}
		}
	}
	return false
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func countryValue(v interface{}) string {
	switch c := v.(type) {
	case string:
		return strings.TrimSpace(c)
	case map[string]interface{}:
		return stringValue(c["name"])
	}
	return ""
}

// employeeValue accepts a bare number, a numeric string, or a QuantitativeValue
func employeeValue(v interface{}) *int {
	switch e := v.(type) {
	case float64:
		n := int(e)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(e), ",", "")); err == nil {
			return &n
		}
	case map[string]interface{}:
		if n := employeeValue(e["value"]); n != nil {
			return n
		}
		lo, hi := employeeValue(e["minValue"]), employeeValue(e["maxValue"])
		switch {
		case lo != nil && hi != nil:
			mid := (*lo + *hi) / 2
			return &mid
		case lo != nil:
			return lo
		case hi != nil:
			return hi
		}
	}
	return nil
}
