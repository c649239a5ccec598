// Package normalize derives the ordered candidate keys tried by every source.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

// Code trims s, folds full-width characters (common in OCR output from
// packaging photos) and upper-cases it.
func Code(s string) string {
	s = width.Fold.String(strings.TrimSpace(s))
	return cases.Upper(language.Und).String(s)
}

// Candidates returns [prefix+code, code], upper-cased, prefixed form first.
// No dedup: when code already carries the prefix both entries may be tried.
func Candidates(prefix, code string) []string {
	prefix = strings.TrimSpace(prefix)
	code = strings.TrimSpace(code)
	return []string{
		Code(prefix + code),
		Code(code),
	}
}

// Prefixed is the first candidate, used where a source takes a single key
func Prefixed(prefix, code string) string {
	return Candidates(prefix, code)[0]
}

// PackagerVariants returns the concatenated and hyphenated packager codes,
// in that order. Parts are trimmed but keep their case; the packager
// database serves lower-case slugs.
func PackagerVariants(country, number, suffix string) []string {
	c := width.Fold.String(strings.TrimSpace(country))
	n := width.Fold.String(strings.TrimSpace(number))
	s := width.Fold.String(strings.TrimSpace(suffix))

	return []string{
		c + n + s,
		c + "-" + n + "-" + s,
	}
}
