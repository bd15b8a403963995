// Package seed populates an empty catalogue with demo products and reviews.
// Reviews go through the review service so product aggregates are maintained
// exactly as they are for real traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/internal/service"
)

// ProductCreator is the catalogue behaviour the seeder needs.
type ProductCreator interface {
	CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error)
}

// ReviewCreator submits reviews.
type ReviewCreator interface {
	CreateReview(ctx context.Context, input service.CreateReviewInput) (*domain.Review, error)
}

// Stats reports what a run inserted.
type Stats struct {
	Products int
	Reviews  int
	Skipped  bool
}

// Seeder inserts the demo data set.
type Seeder struct {
	products ProductCreator
	reviews  ReviewCreator
	logger   *slog.Logger
	rng      *rand.Rand
}

// New creates a seeder whose review ratings and comments are drawn from a
// generator seeded with seed, so runs are reproducible.
func New(products ProductCreator, reviews ReviewCreator, logger *slog.Logger, seed uint64) *Seeder {
	return &Seeder{
		products: products,
		reviews:  reviews,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Run inserts every demo product with reviewsPerProduct reviews each. It
// does nothing when the catalogue already has products.
func (s *Seeder) Run(ctx context.Context, reviewsPerProduct int) (Stats, error) {
	_, total, err := s.products.ListProducts(ctx, repository.ProductFilter{Page: 1, PerPage: 1})
	if err != nil {
		return Stats{}, fmt.Errorf("count products: %w", err)
	}
	if total > 0 {
		s.logger.InfoContext(ctx, "catalogue is not empty, skipping seed", slog.Int("products", total))
		return Stats{Skipped: true}, nil
	}

	var stats Stats
	for _, input := range catalogue {
		p, err := s.products.CreateProduct(ctx, input)
		if err != nil {
			return stats, fmt.Errorf("seed product %q: %w", input.Name, err)
		}
		stats.Products++

		for i := 0; i < reviewsPerProduct; i++ {
			if _, err := s.reviews.CreateReview(ctx, s.review(p, i)); err != nil {
				return stats, fmt.Errorf("seed review for product %d: %w", p.ID, err)
			}
			stats.Reviews++
		}

		s.logger.InfoContext(ctx, "seeded product",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int("reviews", reviewsPerProduct),
		)
	}
	return stats, nil
}

// review draws one review. Roughly one in five is rating-only.
func (s *Seeder) review(p *domain.Product, n int) service.CreateReviewInput {
	rating := ratingWeights[s.rng.IntN(len(ratingWeights))]

	var comment string
	if s.rng.IntN(5) != 0 {
		pool := positiveComments
		if rating <= 2 {
			pool = negativeComments
		}
		comment = pool[s.rng.IntN(len(pool))]
	}

	return service.CreateReviewInput{
		ProductID:    p.ID,
		Rating:       rating,
		Comment:      comment,
		ReviewerName: reviewerNames[s.rng.IntN(len(reviewerNames))],
		DeviceID:     fmt.Sprintf("seed-device-%d-%03d", p.ID, n),
	}
}

// ratingWeights skews ratings towards four and five stars.
var ratingWeights = []int{1, 2, 3, 3, 4, 4, 4, 5, 5, 5, 5}

var catalogue = []service.ProductInput{
	{Name: "iPhone 15 Pro", Category: "Electronics", Price: 999.99,
		Description: "Latest iPhone with A17 Pro chip, titanium design, and advanced camera system."},
	{Name: "Samsung Galaxy S24", Category: "Electronics", Price: 899.99,
		Description: "Flagship Android phone with AI features and stunning display."},
	{Name: "MacBook Pro 16\"", Category: "Electronics", Price: 2499.99,
		Description: "Powerful laptop with M3 chip, perfect for professionals."},
	{Name: "Sony WH-1000XM5", Category: "Electronics", Price: 399.99,
		Description: "Noise cancelling headphones with exceptional sound quality."},
	{Name: "Nike Air Max 90", Category: "Clothing", Price: 120.00,
		Description: "Classic sneakers with comfortable cushioning and timeless design."},
	{Name: "Levi's 501 Jeans", Category: "Clothing", Price: 89.99,
		Description: "Original fit jeans, iconic straight leg design."},
	{Name: "The Pragmatic Programmer", Category: "Books", Price: 39.99,
		Description: "Your journey to mastery in software development."},
	{Name: "Clean Code", Category: "Books", Price: 49.99,
		Description: "A handbook of agile software craftsmanship."},
	{Name: "Dyson V15 Detect", Category: "Home & Kitchen", Price: 749.99,
		Description: "Cordless vacuum with laser technology and powerful suction."},
	{Name: "Instant Pot Duo", Category: "Home & Kitchen", Price: 99.99,
		Description: "7-in-1 pressure cooker, slow cooker, rice cooker, and more."},
	{Name: "Yoga Mat Premium", Category: "Sports & Outdoors", Price: 34.99,
		Description: "Non-slip yoga mat with carrying strap, 6mm thickness."},
	{Name: "kablosuz kulaklık", Category: "Electronics", Price: 59.90,
		Description: "Bluetooth 5.3, 30 saat pil ömrü."},
}

var positiveComments = []string{
	"Battery life is amazing, easily lasts two days.",
	"Great quality for the price. Would buy again.",
	"Delivery was fast and the packaging was solid.",
	"Very comfortable, I use it every day.",
	"Performance is stellar, no lag at all.",
	"Build quality feels premium and sturdy.",
	"Easy to use and setup took five minutes.",
	"Kargo çok hızlı geldi, ürün harika.",
}

var negativeComments = []string{
	"Battery drains too fast. Disappointed.",
	"Overpriced for what you get.",
	"Arrived with a broken box and a scratch on the side.",
	"Stopped working after two weeks.",
	"Uncomfortable after an hour of use.",
}

var reviewerNames = []string{
	"Alex Chen", "Sarah Johnson", "Mike Wilson", "Emma Davis", "David Lee",
	"Ayşe Yılmaz", "Carlos Ruiz", "", "Lucía Gómez", "Mehmet Kaya",
}
