package repository

import (
	"context"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/pkg/pagination"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category *string
	// SearchTerms must each match the name or the description.
	SearchTerms []string
	MinRating   *int
	MinPrice    *float64
	MaxPrice    *float64
	Sort        pagination.Sort
	Page        int
	PerPage     int
}

// ReviewFilter defines filter criteria for listing a product's reviews.
type ReviewFilter struct {
	ProductID int64
	MinRating *int
	Sort      pagination.Sort
	Page      int
	PerPage   int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product and fills in its ID and timestamps.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetForUpdate retrieves a product and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies the catalogue fields of a product. Aggregates are untouched.
	Update(ctx context.Context, product *domain.Product) error

	// UpdateAggregates stores a recalculated average and count.
	UpdateAggregates(ctx context.Context, agg domain.RatingAggregate) error

	// Delete removes a product and, by cascade, its reviews.
	Delete(ctx context.Context, id int64) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id int64) error

	// List returns one page of a product's reviews and the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// ListAllByProduct returns every review of a product, newest first.
	ListAllByProduct(ctx context.Context, productID int64) ([]domain.Review, error)

	// ListLatest returns at most limit reviews of a product, newest first.
	ListLatest(ctx context.Context, productID int64, limit int) ([]domain.Review, error)

	// Aggregate computes the rounded average and count from the review rows.
	Aggregate(ctx context.Context, productID int64) (domain.RatingAggregate, error)

	// Fingerprint returns the latest change time and count of a product's reviews.
	Fingerprint(ctx context.Context, productID int64) (domain.ReviewFingerprint, error)

	// RatingDistribution counts a product's reviews per star.
	RatingDistribution(ctx context.Context, productID int64) (domain.RatingDistribution, error)
}

// Repos is the set of repositories bound to one transaction.
type Repos struct {
	Products ProductRepository
	Reviews  ReviewRepository
}

// Transactor runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
