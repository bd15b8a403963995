package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Review constraints.
const (
	MinRating           = 1
	MaxRating           = 5
	MaxCommentLength    = 2000
	DefaultReviewerName = "Anonymous"
)

// Review sort fields.
const (
	ReviewSortCreatedAt = "created_at"
	ReviewSortRating    = "rating"
)

// Review is a rating and optional comment left on a product. DeviceID is the
// only credential for editing or deleting it.
type Review struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"productId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewerName"`
	DeviceID     string    `json:"deviceId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Usable reports whether the review has a non-blank comment.
func (r Review) Usable() bool {
	return strings.TrimSpace(r.Comment) != ""
}

// OwnedBy reports whether deviceID may modify the review.
func (r Review) OwnedBy(deviceID string) bool {
	return r.DeviceID != "" && r.DeviceID == deviceID
}

// ReviewerNameOrDefault returns name, or DefaultReviewerName when it is blank.
func ReviewerNameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultReviewerName
	}
	return name
}

// UsableReviews returns the reviews with a non-blank comment, preserving order.
func UsableReviews(reviews []Review) []Review {
	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Usable() {
			out = append(out, r)
		}
	}
	return out
}

// RatingAggregate is the pair of derived fields stored on a product.
type RatingAggregate struct {
	ProductID     int64   `json:"productId"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int64   `json:"reviewCount"`
}

// RoundRating rounds an average to one decimal, half away from zero.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// ReviewFingerprint identifies the state of a product's review set. Any
// create, edit or delete changes at least one of its fields.
type ReviewFingerprint struct {
	LatestChange *time.Time
	ReviewCount  int64
}

// String renders the fingerprint for use in cache keys.
func (f ReviewFingerprint) String() string {
	latest := "none"
	if f.LatestChange != nil {
		latest = f.LatestChange.UTC().Format(time.RFC3339Nano)
	}
	return latest + "|" + strconv.FormatInt(f.ReviewCount, 10)
}
