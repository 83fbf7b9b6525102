package application

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText lowercases value and strips diacritics so "Básquetbol" matches
// "basquetbol". Transformers are stateful, so a new chain is built per call.
func foldText(value string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, value)
	if err != nil {
		stripped = value
	}
	return cases.Fold().String(strings.TrimSpace(stripped))
}

// matchesQuery reports whether query occurs in any of fields, ignoring case
// and accents. An empty query matches everything.
func matchesQuery(query string, fields ...string) bool {
	needle := foldText(query)
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(foldText(field), needle) {
			return true
		}
	}
	return false
}
