package core

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// \s alone is ASCII only: also match vertical tab, unicode separators and the BOM.
	slugSpaceRegex   = regexp.MustCompile(`[\s\x0B\p{Z}\x{FEFF}]+`)
	slugInvalidRegex = regexp.MustCompile(`[^\w-]+`)
	slugHyphensRegex = regexp.MustCompile(`--+`)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Slugify normalizes free text into a filesystem and URL safe string:
// lower-cased and trimmed, whitespace runs become a single hyphen, anything that is not
// an ASCII word character or a hyphen is dropped (accented letters included) and
// repeated hyphens are collapsed. Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = strings.TrimFunc(strings.ToLower(s), isSlugSpace)
	s = slugSpaceRegex.ReplaceAllString(s, "-")
	s = slugInvalidRegex.ReplaceAllString(s, "")
	return slugHyphensRegex.ReplaceAllString(s, "-")
}

func isSlugSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// UniqueStrings drops empty and duplicate values from ss, keeping the first occurrence order.
func UniqueStrings(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
