package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// abbreviations are applied in order, repeatedly, until none match.
var abbreviations = []struct{ long, short string }{
	{"street", "st"},
	{"road", "rd"},
	{"avenue", "ave"},
}

// NormalizeLight canonicalizes a name for override matching: lowercase,
// abbreviate street/road/avenue and remove whitespace.
func NormalizeLight(name string) string {
	if name == "" {
		return ""
	}
	s := abbreviate(strings.ToLower(name))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return abbreviate(s)
}

// NormalizeStrict canonicalizes a name for table matching. It applies the same
// abbreviations as NormalizeLight and keeps only the letters a-z. Latin
// diacritics are folded first so "Dún Laoghaire" keeps its u.
func NormalizeStrict(name string) string {
	if name == "" {
		return ""
	}
	s := abbreviate(strings.ToLower(foldDiacritics(name)))
	s = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, s)
	return abbreviate(s)
}

// abbreviate runs the substitutions to a fixed point. A single pass is not
// idempotent: "streetreet" becomes "street" after one replacement.
func abbreviate(s string) string {
	for {
		next := s
		for _, a := range abbreviations {
			next = strings.ReplaceAll(next, a.long, a.short)
		}
		if next == s {
			return s
		}
		s = next
	}
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// containsEither reports equality or containment in either direction. Empty
// operands never match: every string contains "".
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
