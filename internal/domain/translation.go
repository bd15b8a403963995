package domain

// Translation input limits.
const (
	MaxTranslationTexts      = 30
	MaxTranslationTextLength = 2000
	MaxTranslationTotalChars = 10000
)

// TranslationResult is the response of a batch translation. Translations has
// the same length and order as the normalised input.
type TranslationResult struct {
	Lang         Language   `json:"lang"`
	Source       Provenance `json:"source"`
	Translations []string   `json:"translations"`
}
