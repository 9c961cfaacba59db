// Package territory assigns regions and territories to clients by matching
// free-text addresses against curated name variations.
package territory

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims, lowercases, applies NFKC and drops every punctuation rune
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
}

// wordBoundary stands in for \b, which in Go's regexp only understands ASCII words
const wordBoundary = `[^\p{L}\p{N}_]`

// compileVariation builds a case-insensitive pattern matching the normalized
// tokens of a variation separated by any whitespace, as whole words.
// Variations without tokens yield nil.
func compileVariation(variation string) (*regexp.Regexp, error) {
	tokens := strings.Fields(Normalize(variation))
	if len(tokens) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	expr := `(?i)(?:^|` + wordBoundary + `)` + strings.Join(quoted, `\s+`) + `(?:` + wordBoundary + `|$)`
	return regexp.Compile(expr)
}
