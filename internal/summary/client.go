package summary

import (
	"context"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/llm"
)

// AIClient asks a text-generation backend for a structured review summary.
type AIClient struct {
	gen llm.Generator
}

// NewAIClient creates an AIClient on top of gen.
func NewAIClient(gen llm.Generator) *AIClient {
	return &AIClient{gen: gen}
}

// Summarize makes exactly one generation call. Any transport, format or
// content problem is returned as an error for the caller to fall back on.
func (c *AIClient) Summarize(ctx context.Context, p domain.Product, reviews []domain.Review, lang domain.Language) (domain.SummaryContent, error) {
	raw, err := c.gen.Generate(ctx, llm.Request{
		System:      SystemPrompt(lang),
		Prompt:      BuildPrompt(p, reviews, lang),
		Temperature: summaryTemperature,
		JSON:        true,
	})
	if err != nil {
		return domain.SummaryContent{}, err
	}
	return ParseResponse(raw)
}
