package domain

import (
	"slices"
	"time"
)

// Product sort fields accepted by the catalogue listing.
const (
	ProductSortReviewCount   = "review_count"
	ProductSortAverageRating = "average_rating"
	ProductSortPrice         = "price"
	ProductSortName          = "name"
	ProductSortNewest        = "newest"
)

// Product represents a product in the catalog. AverageRating and ReviewCount
// are derived from the product's reviews and are only written by aggregate
// recalculation.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"`
	ImageURLs     []string  `json:"imageUrls"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int64     `json:"reviewCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProductDetail is a product together with all its reviews, newest first.
type ProductDetail struct {
	Product
	Reviews            []Review           `json:"reviews"`
	RatingDistribution RatingDistribution `json:"ratingDistribution"`
}

// RatingDistribution counts reviews per star, 1 through 5.
type RatingDistribution map[int]int64

// NewRatingDistribution returns a distribution with every star present.
func NewRatingDistribution() RatingDistribution {
	d := make(RatingDistribution, MaxRating)
	for star := MinRating; star <= MaxRating; star++ {
		d[star] = 0
	}
	return d
}

// ProductSortFields returns the sort_by values accepted for products.
func ProductSortFields() []string {
	return []string{
		ProductSortReviewCount,
		ProductSortAverageRating,
		ProductSortPrice,
		ProductSortName,
		ProductSortNewest,
	}
}

// IsValidProductSort reports whether field is an accepted product sort.
func IsValidProductSort(field string) bool {
	return slices.Contains(ProductSortFields(), field)
}
