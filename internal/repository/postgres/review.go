package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/pkg/database"
	apperrors "github.com/utafrali/productreview/pkg/errors"
	"github.com/utafrali/productreview/pkg/pagination"
)

const reviewColumns = `id, product_id, rating, comment, reviewer_name, device_id, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
//
// Writes stamp rows with clock_timestamp() rather than NOW() so that a
// mutation waiting on the product lock still gets a time later than every
// committed change. The review fingerprint relies on that ordering.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a review repository on a pool or a transaction.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review and fills in its ID and timestamps.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (product_id, rating, comment, reviewer_name, device_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, clock_timestamp(), clock_timestamp())
		RETURNING id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query,
		review.ProductID,
		review.Rating,
		review.Comment,
		review.ReviewerName,
		review.DeviceID,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (rv *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetReview", query)
	defer func() { end(err) }()

	var review domain.Review
	if err = scanReview(r.db.QueryRow(ctx, query, id), &review); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

// Update rewrites the rating, comment and reviewer name of a review.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) (err error) {
	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, reviewer_name = $3, updated_at = clock_timestamp()
		WHERE id = $4
		RETURNING product_id, device_id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "UpdateReview", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		review.Rating,
		review.Comment,
		review.ReviewerName,
		review.ID,
	).Scan(&review.ProductID, &review.DeviceID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review", review.ID)
		}
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes a review by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteReview", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

// List returns paginated reviews for a product along with the total count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (reviews []domain.Review, total int, err error) {
	args := []any{filter.ProductID}
	where := "WHERE product_id = $1"
	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		where += fmt.Sprintf(" AND rating >= $%d", len(args))
	}

	limit, offset := limitOffset(filter.Page, filter.PerPage)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		reviewColumns, where, reviewOrderBy(filter.Sort), len(args)-1, len(args),
	)

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	reviews, total, err = r.query(ctx, query, true, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

func reviewOrderBy(s pagination.Sort) string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if s.Field == domain.ReviewSortRating {
		return "rating " + dir + ", created_at DESC, id DESC"
	}
	return "created_at " + dir + ", id " + dir
}

// ListAllByProduct returns every review of a product, newest first.
func (r *ReviewRepository) ListAllByProduct(ctx context.Context, productID int64) (reviews []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id DESC`

	ctx, end := database.TraceQuery(ctx, "ListProductReviews", query)
	defer func() { end(err) }()

	reviews, _, err = r.query(ctx, query, false, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	return reviews, nil
}

// ListLatest returns at most limit reviews of a product, newest first.
func (r *ReviewRepository) ListLatest(ctx context.Context, productID int64, limit int) (reviews []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListLatestReviews", query)
	defer func() { end(err) }()

	reviews, _, err = r.query(ctx, query, false, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list latest reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) query(ctx context.Context, query string, counted bool, args ...any) ([]domain.Review, int, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		reviews = []domain.Review{}
		total   int
	)
	for rows.Next() {
		var rv domain.Review
		var extra []any
		if counted {
			extra = append(extra, &total)
		}
		if err := scanReview(rows, &rv, extra...); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, total, nil
}

// Aggregate computes the rounded average rating and count of a product's reviews.
func (r *ReviewRepository) Aggregate(ctx context.Context, productID int64) (agg domain.RatingAggregate, err error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews
		WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "AggregateReviews", query)
	defer func() { end(err) }()

	agg.ProductID = productID
	if err = r.db.QueryRow(ctx, query, productID).Scan(&agg.AverageRating, &agg.ReviewCount); err != nil {
		return agg, fmt.Errorf("aggregate reviews: %w", err)
	}
	agg.AverageRating = domain.RoundRating(agg.AverageRating)
	return agg, nil
}

// Fingerprint returns the latest change time and the count of a product's reviews.
func (r *ReviewRepository) Fingerprint(ctx context.Context, productID int64) (fp domain.ReviewFingerprint, err error) {
	query := `SELECT MAX(updated_at), COUNT(*) FROM reviews WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "ReviewFingerprint", query)
	defer func() { end(err) }()

	var latest *time.Time
	if err = r.db.QueryRow(ctx, query, productID).Scan(&latest, &fp.ReviewCount); err != nil {
		return fp, fmt.Errorf("review fingerprint: %w", err)
	}
	fp.LatestChange = latest
	return fp, nil
}

// RatingDistribution counts a product's reviews per star. Stars without
// reviews are present with a zero count.
func (r *ReviewRepository) RatingDistribution(ctx context.Context, productID int64) (dist domain.RatingDistribution, err error) {
	query := `SELECT rating, COUNT(*) FROM reviews WHERE product_id = $1 GROUP BY rating`

	ctx, end := database.TraceQuery(ctx, "RatingDistribution", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	defer rows.Close()

	dist = domain.NewRatingDistribution()
	for rows.Next() {
		var (
			star  int
			count int64
		)
		if err = rows.Scan(&star, &count); err != nil {
			return nil, fmt.Errorf("scan rating distribution: %w", err)
		}
		dist[star] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating distribution: %w", err)
	}
	return dist, nil
}

func scanReview(row pgx.Row, rv *domain.Review, extra ...any) error {
	dest := append([]any{
		&rv.ID,
		&rv.ProductID,
		&rv.Rating,
		&rv.Comment,
		&rv.ReviewerName,
		&rv.DeviceID,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	}, extra...)
	return row.Scan(dest...)
}
