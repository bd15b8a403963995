package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	apperrors "github.com/utafrali/productreview/pkg/errors"
)

// EventPublisher publishes review domain events. *event.Producer implements it.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewUpdated(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, review *domain.Review) error
	PublishRatingUpdated(ctx context.Context, agg domain.RatingAggregate) error
}

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	ProductID    int64
	Rating       int
	Comment      string
	ReviewerName string
	DeviceID     string
}

// UpdateReviewInput holds the parameters for editing a review. DeviceID must
// match the device that created it.
type UpdateReviewInput struct {
	Rating       int
	Comment      string
	ReviewerName string
	DeviceID     string
}

// ReviewService implements review mutations and keeps product aggregates in
// step with them. Every mutation and its aggregate recalculation share one
// transaction.
type ReviewService struct {
	tx       repository.Transactor
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	events   EventPublisher
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	tx repository.Transactor,
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	events EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		tx:       tx,
		products: products,
		reviews:  reviews,
		events:   events,
		logger:   logger,
	}
}

// CreateReview adds a review to a product and recalculates its aggregates.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if err := validateReviewFields(input.Rating, input.Comment, input.DeviceID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ProductID:    input.ProductID,
		Rating:       input.Rating,
		Comment:      strings.TrimSpace(input.Comment),
		ReviewerName: domain.ReviewerNameOrDefault(strings.TrimSpace(input.ReviewerName)),
		DeviceID:     input.DeviceID,
	}

	var agg domain.RatingAggregate
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		if _, err := repos.Products.GetForUpdate(ctx, review.ProductID); err != nil {
			return err
		}
		if err := repos.Reviews.Create(ctx, review); err != nil {
			return err
		}
		var err error
		agg, err = s.recalculate(ctx, repos, review.ProductID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	s.publish(ctx, review, agg, s.events.PublishReviewCreated)
	return review, nil
}

// UpdateReview edits a review owned by input.DeviceID and recalculates the
// product's aggregates.
func (s *ReviewService) UpdateReview(ctx context.Context, id int64, input UpdateReviewInput) (*domain.Review, error) {
	if err := validateReviewFields(input.Rating, input.Comment, input.DeviceID); err != nil {
		return nil, err
	}

	var (
		review *domain.Review
		agg    domain.RatingAggregate
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		existing, err := ownedReview(ctx, repos, id, input.DeviceID)
		if err != nil {
			return err
		}

		existing.Rating = input.Rating
		existing.Comment = strings.TrimSpace(input.Comment)
		existing.ReviewerName = domain.ReviewerNameOrDefault(strings.TrimSpace(input.ReviewerName))
		if err := repos.Reviews.Update(ctx, existing); err != nil {
			return err
		}

		review = existing
		agg, err = s.recalculate(ctx, repos, existing.ProductID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	s.publish(ctx, review, agg, s.events.PublishReviewUpdated)
	return review, nil
}

// DeleteReview removes a review owned by deviceID and recalculates the
// product's aggregates.
func (s *ReviewService) DeleteReview(ctx context.Context, id int64, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return apperrors.InvalidInput("deviceId is required")
	}

	var (
		review *domain.Review
		agg    domain.RatingAggregate
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		existing, err := ownedReview(ctx, repos, id, deviceID)
		if err != nil {
			return err
		}
		if err := repos.Reviews.Delete(ctx, id); err != nil {
			return err
		}

		review = existing
		agg, err = s.recalculate(ctx, repos, existing.ProductID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
	)

	s.publish(ctx, review, agg, s.events.PublishReviewDeleted)
	return nil
}

// ownedReview loads a review, checks that deviceID owns it and locks its
// product row.
func ownedReview(ctx context.Context, repos repository.Repos, id int64, deviceID string) (*domain.Review, error) {
	review, err := repos.Reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.OwnedBy(deviceID) {
		return nil, apperrors.Forbidden("review belongs to another device")
	}
	if _, err := repos.Products.GetForUpdate(ctx, review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

// RecalculateAggregates recomputes a product's average rating and review
// count from its current reviews in a transaction of its own.
func (s *ReviewService) RecalculateAggregates(ctx context.Context, productID int64) (domain.RatingAggregate, error) {
	var agg domain.RatingAggregate
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		if _, err := repos.Products.GetForUpdate(ctx, productID); err != nil {
			return err
		}
		var err error
		agg, err = s.recalculate(ctx, repos, productID)
		return err
	})
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("recalculate aggregates: %w", err)
	}

	if err := s.events.PublishRatingUpdated(ctx, agg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating updated event",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
	return agg, nil
}

// recalculate is the only writer of a product's aggregates. It must run on
// repositories bound to the transaction of the triggering mutation.
func (s *ReviewService) recalculate(ctx context.Context, repos repository.Repos, productID int64) (domain.RatingAggregate, error) {
	agg, err := repos.Reviews.Aggregate(ctx, productID)
	if err != nil {
		return agg, err
	}
	if err := repos.Products.UpdateAggregates(ctx, agg); err != nil {
		return agg, err
	}
	s.logger.InfoContext(ctx, "product aggregates recalculated",
		slog.Int64("product_id", productID),
		slog.Float64("average_rating", agg.AverageRating),
		slog.Int64("review_count", agg.ReviewCount),
	)
	return agg, nil
}

// publish sends the review event and the rating event after commit. Failures
// are logged and never fail the request.
func (s *ReviewService) publish(
	ctx context.Context,
	review *domain.Review,
	agg domain.RatingAggregate,
	send func(context.Context, *domain.Review) error,
) {
	if err := send(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.events.PublishRatingUpdated(ctx, agg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating updated event",
			slog.Int64("product_id", agg.ProductID),
			slog.String("error", err.Error()),
		)
	}
}

// ListReviews returns one page of a product's reviews. An unknown product is
// NotFound rather than an empty page.
func (s *ReviewService) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	if filter.MinRating != nil && (*filter.MinRating < domain.MinRating || *filter.MinRating > domain.MaxRating) {
		return nil, 0, apperrors.InvalidInput("min_rating must be between 1 and 5")
	}
	if _, err := s.products.GetByID(ctx, filter.ProductID); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

func validateReviewFields(rating int, comment, deviceID string) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if utf8.RuneCountInString(strings.TrimSpace(comment)) > domain.MaxCommentLength {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", domain.MaxCommentLength))
	}
	if strings.TrimSpace(deviceID) == "" {
		return apperrors.InvalidInput("deviceId is required")
	}
	return nil
}
