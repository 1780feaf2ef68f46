// Package slug implements the Slug Generator (C14): a deterministic,
// URL-safe identifier derived from an entity name, used as the upsert key
// for CanonicalEntity records and as the Slug Matcher's comparison key.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	leadingArticles = regexp.MustCompile(`(?i)^(the|a|an)\s+`)
	nonSlugChars    = regexp.MustCompile(`[^a-z0-9\-\s]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	hyphenRun       = regexp.MustCompile(`-+`)
)

// Generate derives a slug from name: strip a leading article, transliterate
// to ASCII, drop everything but alphanumerics/hyphens/whitespace, hyphenate
// whitespace, then collapse and trim hyphens.
//
//	"The Royal Botanic Garden"  -> "royal-botanic-garden"
//	"Café de l'Écluse"          -> "cafe-de-lecluse"
func Generate(name string) string {
	return normalize(name)
}

// GenerateWithLocation appends a normalized location suffix, for
// disambiguating two entities that would otherwise collapse to the same
// name-only slug ("the royal oak" in two different towns).
func GenerateWithLocation(name, location string) string {
	s := normalize(name)
	if location == "" {
		return s
	}
	loc := normalize(location)
	if loc == "" {
		return s
	}
	return hyphenRun.ReplaceAllString(strings.Trim(s+"-"+loc, "-"), "-")
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = leadingArticles.ReplaceAllString(s, "")
	s = transliterate(s)
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// transliterate folds accented and otherwise non-ASCII Latin characters
// down to their closest ASCII equivalent by Unicode-normalizing to NFKD
// (which separates base letters from combining marks) and then dropping
// the combining marks, e.g. "é" -> "e". Characters with no NFKD
// decomposition, such as "ß", are left as they are here and are then
// dropped by normalize's non-slug-character filter.
func transliterate(s string) string {
	t := transform.Chain(norm.NFKD, transform.RemoveFunc(isMn))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
