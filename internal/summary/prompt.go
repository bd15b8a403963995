package summary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/pkg/textnorm"
)

const (
	promptCommentMaxLength = 500
	summaryTemperature     = 0.2
)

// SystemPrompt is the system message sent with every summary request.
func SystemPrompt(lang domain.Language) string {
	return "Return STRICT JSON ONLY with keys: takeaway (string), pros (array of strings), cons (array of strings), topTopics (array of strings). " +
		"Neutral language only; no marketing; no absolute claims; no emojis; do not mention AI. " +
		"Max 3 pros/cons, max 5 topics. Output language: " + string(lang) + "."
}

// BuildPrompt renders the user message for a summary request: the output
// contract, a category hint, product metadata and every review.
func BuildPrompt(p domain.Product, reviews []domain.Review, lang domain.Language) string {
	var sb strings.Builder

	sb.WriteString("You summarize product reviews in a conservative, e-commerce style. ")
	sb.WriteString("Return STRICT JSON ONLY with keys: takeaway (string), pros (array of strings), cons (array of strings), topTopics (array of strings). ")
	sb.WriteString("Use neutral language (no marketing). Avoid absolute claims. Avoid emojis. ")
	sb.WriteString("Do not mention AI/models. Preserve brand/model terms. ")
	sb.WriteString("Max 3 pros/cons, max 5 topics. No markdown, no code fences, no extra text. ")
	fmt.Fprintf(&sb, "Output language: %s.\n\n", lang)

	sb.WriteString(promptHintFor(p.Category))
	sb.WriteString("\n\n")

	sb.WriteString("Product:\n")
	fmt.Fprintf(&sb, "name: %s\n", p.Name)
	fmt.Fprintf(&sb, "category: %s\n", p.Category)
	fmt.Fprintf(&sb, "price: %s\n", strconv.FormatFloat(p.Price, 'f', -1, 64))
	fmt.Fprintf(&sb, "averageRating: %.1f\n", p.AverageRating)
	fmt.Fprintf(&sb, "reviewCount: %d\n\n", p.ReviewCount)

	sb.WriteString("Latest reviews (rating + comment):\n")
	for _, r := range reviews {
		fmt.Fprintf(&sb, "- rating: %d\n", r.Rating)
		fmt.Fprintf(&sb, "  comment: %s\n", sanitizeComment(r.Comment))
	}

	sb.WriteString("\nGuidelines:\n")
	sb.WriteString("- Write 1 neutral takeaway sentence.\n")
	sb.WriteString("- Extract up to 3 pros and 3 cons as short phrases.\n")
	sb.WriteString("- Extract up to 5 topics relevant to the product category.\n")
	sb.WriteString("- Only include topics actually mentioned in reviews.\n")
	sb.WriteString("- Use conservative, factual language.\n")

	return sb.String()
}

func sanitizeComment(s string) string {
	return textnorm.Truncate(strings.TrimSpace(textnorm.FlattenLines(s)), promptCommentMaxLength)
}
