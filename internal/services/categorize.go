package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"dinero/internal/core"
)

// deaccent lowercasing happens separately; this strips combining marks so
// "café" and "cafe" match the same keyword.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeText(s string) string {
	s = strings.ToLower(s)
	out, _, err := transform.String(deaccent, s)
	if err != nil {
		return s
	}
	return out
}

// MatchCategory picks the category whose keywords best match a free-text
// description. Matching is bidirectional substring over normalized tokens: a
// keyword hits when it contains a token or a token contains it. Ties go to
// the first category in the given order (the repository lists them
// alphabetically); zero hits means no auto-assignment and nil is returned.
func MatchCategory(description string, categories []core.Category) *core.Category {
	tokens := strings.Fields(normalizeText(description))
	if len(tokens) == 0 {
		return nil
	}

	var best *core.Category
	bestCount := 0
	for i := range categories {
		c := &categories[i]
		if len(c.Keywords) == 0 {
			continue
		}
		count := 0
		for _, keyword := range c.Keywords {
			kw := normalizeText(keyword)
			if kw == "" {
				continue
			}
			for _, token := range tokens {
				if strings.Contains(kw, token) || strings.Contains(token, kw) {
					count++
					break
				}
			}
		}
		if count > bestCount {
			best = c
			bestCount = count
		}
	}
	return best
}
