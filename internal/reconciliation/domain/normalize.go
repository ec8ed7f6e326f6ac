package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeText upper-cases, strips accents and collapses whitespace so that
// "José  da Silva" and "JOSE DA SILVA PIX" compare on equal footing. Bank
// statement descriptions arrive unaccented and upper-cased while client names
// are typed by humans.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(out)), " ")
}

// NormalizeText exposes the matcher's normalization for callers that filter
// listings with the same comparison rules (orphan free-text search).
func NormalizeText(s string) string {
	return normalizeText(s)
}

// nameTokens splits a normalized string into comparable word tokens,
// dropping single-letter noise like middle initials.
func nameTokens(s string) []string {
	fields := strings.Fields(s)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
