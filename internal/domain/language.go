package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is one of the output languages the summary and translation
// pipelines support.
type Language string

// Supported languages.
const (
	LangEN Language = "en"
	LangTR Language = "tr"
	LangES Language = "es"
)

// DefaultLanguage is used for unsupported or missing language values.
const DefaultLanguage = LangEN

// SupportedLanguages returns every supported language.
func SupportedLanguages() []Language {
	return []Language{LangEN, LangTR, LangES}
}

func (l Language) supported() bool {
	switch l {
	case LangEN, LangTR, LangES:
		return true
	}
	return false
}

// ParseLanguage normalises raw to a supported language: it is trimmed,
// lower-cased and stripped of any region subtag ("tr-TR" -> tr). Other
// BCP 47 forms whose base language is supported ("tur", "es_419") also
// resolve. Anything else yields DefaultLanguage.
func ParseLanguage(raw string) Language {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	if l := Language(s); l.supported() {
		return l
	}
	if s == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return DefaultLanguage
	}
	base, _ := tag.Base()
	if l := Language(base.String()); l.supported() {
		return l
	}
	return DefaultLanguage
}

// LanguageFromAcceptLanguage returns the first supported language from an
// Accept-Language header, honouring q-values. ok is false when none matches.
func LanguageFromAcceptLanguage(header string) (Language, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return "", false
	}
	for _, tag := range tags {
		base, _ := tag.Base()
		if l := Language(base.String()); l.supported() {
			return l, true
		}
	}
	return "", false
}
