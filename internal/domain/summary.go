package domain

import "time"

// Provenance tags where a summary or translation came from.
type Provenance string

// Provenance values. The set is closed.
const (
	ProvenanceAI    Provenance = "AI"
	ProvenanceLocal Provenance = "LOCAL"
)

// Valid reports whether p is one of the defined provenance values.
func (p Provenance) Valid() bool {
	return p == ProvenanceAI || p == ProvenanceLocal
}

// Summary size limits.
const (
	MaxSummaryPros   = 3
	MaxSummaryCons   = 3
	MaxSummaryTopics = 5
)

// SummaryContent is the generated part of a review summary.
type SummaryContent struct {
	Takeaway  string   `json:"takeaway"`
	Pros      []string `json:"pros"`
	Cons      []string `json:"cons"`
	TopTopics []string `json:"topTopics"`
}

// SummaryResult is the review summary returned for one product and language.
type SummaryResult struct {
	ProductID       int64      `json:"productId"`
	Lang            Language   `json:"lang"`
	Source          Provenance `json:"source"`
	AverageRating   float64    `json:"averageRating"`
	ReviewCount     int64      `json:"reviewCount"`
	ReviewCountUsed int        `json:"reviewCountUsed"`
	SummaryContent
	GeneratedAt time.Time `json:"generatedAt"`
}
