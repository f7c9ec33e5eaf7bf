package extract

import (
	"regexp"
	"strings"
)

const (
	snippetContext = 80
	maxSnippet     = 200
	ellipsis       = "..."
)

// Snippet returns the text around text[start:end] with up to 80 characters of
// context on each side, marked with "..." where cut, at most 200 characters long
func Snippet(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}

	from := start - snippetContext
	if from < 0 {
		from = 0
	}
	to := end + snippetContext
	if to > len(text) {
		to = len(text)
	}
	from, to = runeStart(text, from), runeEnd(text, to)

	snippet := strings.TrimSpace(text[from:to])
	if from > 0 {
		snippet = ellipsis + snippet
	}
	if to < len(text) {
		snippet += ellipsis
	}

	if len(snippet) > maxSnippet {
		snippet = truncate(snippet, maxSnippet-len(ellipsis)) + ellipsis
	}
	return snippet
}

// SnippetFor finds the first match of re in text and returns its snippet
func SnippetFor(text string, re *regexp.Regexp) (string, bool) {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return Snippet(text, loc[0], loc[1]), true
}

// runeStart moves i forward to the start of a UTF-8 sequence
func runeStart(s string, i int) int {
	for i < len(s) && i > 0 && s[i]&0xC0 == 0x80 {
		i++
	}
	return i
}

// runeEnd moves i back so s[:i] does not end inside a UTF-8 sequence
func runeEnd(s string, i int) int {
	for i > 0 && i < len(s) && s[i]&0xC0 == 0x80 {
		i--
	}
	return i
}
