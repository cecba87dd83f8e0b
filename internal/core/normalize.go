package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that carry no combining mark under NFD but still fold to ASCII.
var foldReplacer = strings.NewReplacer(
	"đ", "d",
	"ð", "d",
	"ł", "l",
	"ø", "o",
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
)

// Normalize trims, lowercases and strips diacritics so that "Café " and
// "cafe" compare equal. It is applied to header names, stored categories and
// query categories alike.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return foldReplacer.Replace(out)
}
