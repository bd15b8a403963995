// Package textnorm holds the small string normalisations shared by the
// catalogue, summary and translation code. Lengths are counted in runes.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var turkishToASCII = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"Ç", "C", "Ğ", "G", "İ", "I", "Ö", "O", "Ş", "S", "Ü", "U",
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Transliterate replaces Turkish letters with their ASCII counterparts.
func Transliterate(s string) string {
	return turkishToASCII.Replace(s)
}

// ProductName transliterates Turkish letters and capitalises each
// whitespace-separated word, lower-casing the rest of it. Runs of whitespace
// collapse to a single space. A blank name is returned unchanged.
//
//	"  çAmaşır   MAKİNESİ " -> "Camasir Makinesi"
func ProductName(name string) string {
	if strings.TrimSpace(name) == "" {
		return name
	}
	words := strings.Fields(Transliterate(name))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// FlattenLines replaces CR and LF characters with spaces.
func FlattenLines(s string) string {
	return lineBreaks.Replace(s)
}

// Truncate returns at most max runes of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// Ellipsize truncates s to max runes and appends "…" when it was cut.
func Ellipsize(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return Truncate(s, max) + "…"
}
