package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/utafrali/productreview/internal/domain"
	pkgkafka "github.com/utafrali/productreview/pkg/kafka"
	"github.com/utafrali/productreview/pkg/logger"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated        = "productreview.review.created"
	TopicReviewUpdated        = "productreview.review.updated"
	TopicReviewDeleted        = "productreview.review.deleted"
	TopicProductRatingUpdated = "productreview.product.rating_updated"
)

// Aggregate type constants.
const (
	AggregateTypeReview  = "review"
	AggregateTypeProduct = "product"
)

// SourceProductReview identifies events originating from this service.
const SourceProductReview = "productreview"

// ReviewData is the payload for review created and updated events. Device
// IDs and comment text are never published.
type ReviewData struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	Rating       int       `json:"rating"`
	ReviewerName string    `json:"reviewer_name"`
	HasComment   bool      `json:"has_comment"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
}

// RatingUpdatedData is the payload for a product.rating_updated event.
type RatingUpdatedData struct {
	ProductID     int64   `json:"product_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// Producer publishes review domain events to Kafka. A Producer built with a
// nil Kafka producer accepts every event and drops it.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer. kafka may be nil when event
// publishing is disabled.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, reviewData(review))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, review.ID, AggregateTypeReview, reviewData(review))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	data := ReviewDeletedData{ID: review.ID, ProductID: review.ProductID}
	return p.publish(ctx, TopicReviewDeleted, review.ID, AggregateTypeReview, data)
}

// PublishRatingUpdated publishes a product.rating_updated event carrying the
// recalculated aggregates.
func (p *Producer) PublishRatingUpdated(ctx context.Context, agg domain.RatingAggregate) error {
	data := RatingUpdatedData{
		ProductID:     agg.ProductID,
		AverageRating: agg.AverageRating,
		ReviewCount:   agg.ReviewCount,
	}
	return p.publish(ctx, TopicProductRatingUpdated, agg.ProductID, AggregateTypeProduct, data)
}

func (p *Producer) publish(ctx context.Context, topic string, aggregateID int64, aggregateType string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, strconv.FormatInt(aggregateID, 10), aggregateType, SourceProductReview, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ID:           r.ID,
		ProductID:    r.ProductID,
		Rating:       r.Rating,
		ReviewerName: r.ReviewerName,
		HasComment:   r.Usable(),
		UpdatedAt:    r.UpdatedAt,
	}
}
