// Package translate implements batch machine translation with a per-text
// cache and fallback to the original texts on any backend failure.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/productreview/internal/cache"
	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/llm"
	"github.com/utafrali/productreview/pkg/logger"
	"github.com/utafrali/productreview/pkg/textnorm"
)

const translateTemperature = 0.1

var resultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "translation_results_total",
		Help: "Batch translation responses by provenance.",
	},
	[]string{"source"},
)

// Translator translates batches of short texts.
type Translator struct {
	gen    llm.Generator
	cache  cache.Store[string]
	logger *slog.Logger
}

// New creates a Translator. A nil gen means no backend is configured and
// every batch is returned untranslated.
func New(gen llm.Generator, store cache.Store[string], logger *slog.Logger) *Translator {
	return &Translator{gen: gen, cache: store, logger: logger}
}

// Translate translates texts into lang. The result has the same length and
// order as the normalised input. Backend failures never surface: the texts
// that could not be translated are returned as given and provenance is LOCAL.
func (t *Translator) Translate(ctx context.Context, texts []*string, rawLang string) domain.TranslationResult {
	lang := domain.ParseLanguage(rawLang)
	res := t.translate(ctx, NormalizeTexts(texts), lang)
	resultsTotal.WithLabelValues(string(res.Source)).Inc()
	return res
}

func (t *Translator) translate(ctx context.Context, texts []string, lang domain.Language) domain.TranslationResult {
	local := domain.TranslationResult{Lang: lang, Source: domain.ProvenanceLocal, Translations: texts}

	if len(texts) == 0 || lang == domain.LangEN || t.gen == nil {
		return local
	}

	log := logger.WithContext(ctx, t.logger)

	out := make([]string, len(texts))
	var (
		missIdx []int
		misses  []string
	)
	for i, s := range texts {
		v, ok, err := t.cache.Get(ctx, cacheKey(lang, s))
		if err != nil {
			log.WarnContext(ctx, "translation cache read failed", slog.String("error", err.Error()))
		}
		if ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		misses = append(misses, s)
	}

	if len(misses) == 0 {
		return domain.TranslationResult{Lang: lang, Source: domain.ProvenanceAI, Translations: out}
	}

	translated, err := t.call(ctx, misses, lang)
	if err == nil && len(translated) != len(misses) {
		err = fmt.Errorf("backend returned %d translations for %d texts", len(translated), len(misses))
	}
	if err != nil {
		log.WarnContext(ctx, "translation call failed, returning originals",
			slog.String("lang", string(lang)),
			slog.Int("misses", len(misses)),
			slog.String("error", err.Error()),
		)
		for k, i := range missIdx {
			out[i] = misses[k]
		}
		return domain.TranslationResult{Lang: lang, Source: domain.ProvenanceLocal, Translations: out}
	}

	for k, i := range missIdx {
		v := textnorm.Truncate(strings.TrimSpace(translated[k]), domain.MaxTranslationTextLength)
		if v == "" {
			v = misses[k]
		}
		out[i] = v
		if err := t.cache.Set(ctx, cacheKey(lang, misses[k]), v); err != nil {
			log.WarnContext(ctx, "translation cache write failed", slog.String("error", err.Error()))
		}
	}

	return domain.TranslationResult{Lang: lang, Source: domain.ProvenanceAI, Translations: out}
}

type translationsPayload struct {
	Translations []json.RawMessage `json:"translations"`
}

func (t *Translator) call(ctx context.Context, texts []string, lang domain.Language) ([]string, error) {
	raw, err := t.gen.Generate(ctx, llm.Request{
		System:      SystemPrompt(lang),
		Prompt:      BuildPrompt(texts, lang),
		Temperature: translateTemperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var payload translationsPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, fmt.Errorf("decode translation response: %w", err)
	}
	if payload.Translations == nil {
		return nil, fmt.Errorf("translation response missing translations")
	}

	out := make([]string, len(payload.Translations))
	for i, item := range payload.Translations {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out[i] = s
		}
	}
	return out, nil
}

// NormalizeTexts applies the batch input limits: nil entries become empty
// strings, each text is trimmed and cut to 2000 characters, and the batch
// ends after the 30th text or after the text that brings the running total
// to 10000 characters.
func NormalizeTexts(texts []*string) []string {
	out := make([]string, 0, min(len(texts), domain.MaxTranslationTexts))
	total := 0
	for _, p := range texts {
		var s string
		if p != nil {
			s = textnorm.Truncate(strings.TrimSpace(*p), domain.MaxTranslationTextLength)
		}
		total += utf8.RuneCountInString(s)
		out = append(out, s)
		if len(out) >= domain.MaxTranslationTexts || total >= domain.MaxTranslationTotalChars {
			break
		}
	}
	return out
}

// SystemPrompt is the system message sent with every translation batch.
func SystemPrompt(lang domain.Language) string {
	return "You translate text for an e-commerce app. Return STRICT JSON ONLY with key: translations (array of strings). " +
		"Preserve brand/model terms. Do not add commentary. No markdown. Output language: " + string(lang) + "."
}

// BuildPrompt renders the user message for a batch. Texts are embedded as a
// JSON array with line breaks flattened.
func BuildPrompt(texts []string, lang domain.Language) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate each item in the following JSON array to language: %s. ", lang)
	sb.WriteString(`Return STRICT JSON ONLY: {"translations": [..]} with same length/order. `)
	sb.WriteString("Preserve product/brand/model terms exactly. Keep punctuation natural.\n\n")
	sb.WriteString("Input texts:\n[")
	for i, s := range texts {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteJSON(textnorm.FlattenLines(s)))
	}
	sb.WriteString("]\n")
	return sb.String()
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func cacheKey(lang domain.Language, text string) string {
	return string(lang) + "|" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}
