package internal

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// localeFolds substitutes letters that NFD decomposition does not reduce to
// an ASCII base letter. Lowercase only; Normalize lowercases first.
var localeFolds = strings.NewReplacer(
	"ø", "o",
	"æ", "ae",
	"å", "a",
	"œ", "oe",
	"ß", "ss",
	"ð", "d",
	"þ", "th",
	"đ", "d",
	"ł", "l",
)

// Normalize folds text for matching: lowercases, strips diacritics,
// substitutes locale letters and collapses whitespace. Pure; every
// text-matching component goes through it.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))

	// Fresh transformer per call; a shared chain carries state and would not
	// be safe under concurrent callers.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripper, s); err == nil {
		s = folded
	}

	s = localeFolds.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
