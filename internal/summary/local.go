package summary

import (
	"fmt"
	"slices"
	"strings"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/pkg/textnorm"
)

const (
	snippetMaxLength = 90
	itemMaxLength    = 220
)

type takeawayTemplates struct {
	both      string
	positive  string
	negative  string
	noInsight string
	noReviews string
}

var takeaways = map[domain.Language]takeawayTemplates{
	domain.LangEN: {
		both:      "Most users mention %s positively, while %s is a common complaint.",
		positive:  "Most users mention %s positively.",
		negative:  "%s is a common complaint.",
		noInsight: "Reviews mention mixed experiences.",
		noReviews: "No reviews yet.",
	},
	domain.LangTR: {
		both:      "Kullanıcıların çoğu %s konusunu olumlu belirtirken, %s sıkça eleştiriliyor.",
		positive:  "Kullanıcıların çoğu %s konusunu olumlu belirtiyor.",
		negative:  "%s konusu sıkça eleştiriliyor.",
		noInsight: "Yorumlar farklı deneyimler içeriyor.",
		noReviews: "Henüz yorum yok.",
	},
	domain.LangES: {
		both:      "La mayoría destaca %s de forma positiva, mientras que %s es una queja frecuente.",
		positive:  "La mayoría menciona %s de forma positiva.",
		negative:  "%s es una queja frecuente.",
		noInsight: "Las reseñas muestran experiencias variadas.",
		noReviews: "Aún no hay reseñas.",
	},
}

func templatesFor(lang domain.Language) takeawayTemplates {
	if v, ok := takeaways[lang]; ok {
		return v
	}
	return takeaways[domain.LangEN]
}

// NoReviews is the summary for a product without usable reviews.
func NoReviews(lang domain.Language) domain.SummaryContent {
	return domain.SummaryContent{
		Takeaway:  templatesFor(lang).noReviews,
		Pros:      []string{},
		Cons:      []string{},
		TopTopics: []string{},
	}
}

// Local builds a summary from review text alone. It never fails: reviews
// without a comment are skipped and an input with no recognisable topics
// still yields a neutral takeaway.
func Local(category string, reviews []domain.Review, lang domain.Language) domain.SummaryContent {
	lex := lexiconFor(category)
	counts := make(map[Topic]int, len(topicOrder))

	var pros, cons []string
	for _, r := range reviews {
		if r.Comment == "" {
			continue
		}
		text := strings.ToLower(r.Comment)
		snippet := firstSentence(r.Comment)

		if snippet != "" {
			if r.Rating >= 4 && len(pros) < domain.MaxSummaryPros && !slices.Contains(pros, snippet) {
				pros = append(pros, snippet)
			}
			if r.Rating <= 2 && len(cons) < domain.MaxSummaryCons && !slices.Contains(cons, snippet) {
				cons = append(cons, snippet)
			}
		}

		for _, tk := range lex {
			for _, kw := range tk.keywords {
				if strings.Contains(text, kw) {
					counts[tk.topic]++
					break
				}
			}
		}
	}

	ranked := slices.Clone(topicOrder)
	slices.SortStableFunc(ranked, func(a, b Topic) int {
		return counts[b] - counts[a]
	})

	topics := make([]string, 0, domain.MaxSummaryTopics)
	for _, t := range ranked {
		if counts[t] == 0 || len(topics) == domain.MaxSummaryTopics {
			break
		}
		topics = append(topics, t.Label(lang))
	}

	var pos, neg string
	if len(topics) > 0 {
		pos = topics[0]
	}
	if len(topics) > 1 {
		neg = topics[1]
	}

	return domain.SummaryContent{
		Takeaway:  localTakeaway(lang, pos, neg),
		Pros:      ClampList(pros, domain.MaxSummaryPros),
		Cons:      ClampList(cons, domain.MaxSummaryCons),
		TopTopics: ClampList(topics, domain.MaxSummaryTopics),
	}
}

func localTakeaway(lang domain.Language, pos, neg string) string {
	t := templatesFor(lang)
	switch {
	case pos != "" && neg != "":
		return fmt.Sprintf(t.both, pos, neg)
	case pos != "":
		return fmt.Sprintf(t.positive, pos)
	case neg != "":
		return fmt.Sprintf(t.negative, neg)
	default:
		return t.noInsight
	}
}

// firstSentence returns the comment up to its first '.', '!' or '?', with
// line breaks flattened. It returns "" when nothing is left.
func firstSentence(comment string) string {
	t := strings.TrimSpace(textnorm.FlattenLines(comment))
	if i := strings.IndexAny(t, ".!?"); i >= 0 {
		t = t[:i]
	}
	return textnorm.Ellipsize(strings.TrimSpace(t), snippetMaxLength)
}

// ClampList trims every item, drops blanks and duplicates, cuts items to the
// maximum item length and keeps at most max of them.
func ClampList(items []string, max int) []string {
	out := make([]string, 0, min(len(items), max))
	for _, s := range items {
		if len(out) >= max {
			break
		}
		t := clampText(s)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func clampText(s string) string {
	return textnorm.Truncate(strings.TrimSpace(s), itemMaxLength)
}
