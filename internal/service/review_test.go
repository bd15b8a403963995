package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	apperrors "github.com/utafrali/productreview/pkg/errors"
)

type reviewFixture struct {
	products *mockProductRepository
	reviews  *mockReviewRepository
	events   *mockPublisher
	tx       *fakeTransactor
	svc      *ReviewService
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		products: &mockProductRepository{},
		reviews:  &mockReviewRepository{},
		events:   &mockPublisher{},
	}
	f.tx = &fakeTransactor{repos: repository.Repos{Products: f.products, Reviews: f.reviews}}
	f.svc = NewReviewService(f.tx, f.products, f.reviews, f.events, newTestLogger())
	return f
}

func (f *reviewFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.products.AssertExpectations(t)
	f.reviews.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

var product7 = &domain.Product{ID: 7, Name: "Headphones", Category: "Electronics"}

func TestCreateReview_Success(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	agg := domain.RatingAggregate{ProductID: 7, AverageRating: 4.5, ReviewCount: 2}

	f.products.On("GetForUpdate", ctx, int64(7)).Return(product7, nil)
	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Review).ID = 31 }).
		Return(nil)
	f.reviews.On("Aggregate", ctx, int64(7)).Return(agg, nil)
	f.products.On("UpdateAggregates", ctx, agg).Return(nil)
	f.events.On("PublishReviewCreated", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)
	f.events.On("PublishRatingUpdated", ctx, agg).Return(nil)

	review, err := f.svc.CreateReview(ctx, CreateReviewInput{
		ProductID: 7,
		Rating:    5,
		Comment:   "  Great battery  ",
		DeviceID:  "device-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(31), review.ID)
	assert.Equal(t, domain.DefaultReviewerName, review.ReviewerName)
	assert.Equal(t, "Great battery", review.Comment)
	assert.Equal(t, 1, f.tx.commits)
	f.assertExpectations(t)
}

func TestCreateReview_ProductNotFound(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	f.products.On("GetForUpdate", ctx, int64(99)).Return(nil, apperrors.NotFound("product", 99))

	_, err := f.svc.CreateReview(ctx, CreateReviewInput{ProductID: 99, Rating: 3, DeviceID: "d"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 1, f.tx.rollbacks)
	f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.products.AssertNotCalled(t, "UpdateAggregates", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishRatingUpdated", mock.Anything, mock.Anything)
}

func TestCreateReview_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input CreateReviewInput
	}{
		{"rating too low", CreateReviewInput{ProductID: 7, Rating: 0, DeviceID: "d"}},
		{"rating too high", CreateReviewInput{ProductID: 7, Rating: 6, DeviceID: "d"}},
		{"comment too long", CreateReviewInput{ProductID: 7, Rating: 3, DeviceID: "d", Comment: strings.Repeat("ş", domain.MaxCommentLength+1)}},
		{"missing device", CreateReviewInput{ProductID: 7, Rating: 3, DeviceID: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture()
			_, err := f.svc.CreateReview(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			assert.Zero(t, f.tx.commits+f.tx.rollbacks)
		})
	}
}

func TestCreateReview_CommentAtLimitIsAccepted(t *testing.T) {
	err := validateReviewFields(4, strings.Repeat("ü", domain.MaxCommentLength), "d")
	assert.NoError(t, err)
}

func TestCreateReview_PublishFailureDoesNotFail(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	agg := domain.RatingAggregate{ProductID: 7, AverageRating: 3, ReviewCount: 1}

	f.products.On("GetForUpdate", ctx, int64(7)).Return(product7, nil)
	f.reviews.On("Create", ctx, mock.Anything).Return(nil)
	f.reviews.On("Aggregate", ctx, int64(7)).Return(agg, nil)
	f.products.On("UpdateAggregates", ctx, agg).Return(nil)
	f.events.On("PublishReviewCreated", ctx, mock.Anything).Return(errors.New("broker down"))
	f.events.On("PublishRatingUpdated", ctx, agg).Return(errors.New("broker down"))

	_, err := f.svc.CreateReview(ctx, CreateReviewInput{ProductID: 7, Rating: 3, DeviceID: "d"})
	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestUpdateReview_Success(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	existing := &domain.Review{ID: 31, ProductID: 7, Rating: 5, Comment: "Great", ReviewerName: "Ali", DeviceID: "owner"}
	agg := domain.RatingAggregate{ProductID: 7, AverageRating: 2, ReviewCount: 1}

	f.reviews.On("GetByID", ctx, int64(31)).Return(existing, nil)
	f.products.On("GetForUpdate", ctx, int64(7)).Return(product7, nil)
	f.reviews.On("Update", ctx, existing).Return(nil)
	f.reviews.On("Aggregate", ctx, int64(7)).Return(agg, nil)
	f.products.On("UpdateAggregates", ctx, agg).Return(nil)
	f.events.On("PublishReviewUpdated", ctx, existing).Return(nil)
	f.events.On("PublishRatingUpdated", ctx, agg).Return(nil)

	review, err := f.svc.UpdateReview(ctx, 31, UpdateReviewInput{Rating: 2, Comment: "Broke", ReviewerName: " ", DeviceID: "owner"})
	require.NoError(t, err)
	assert.Equal(t, 2, review.Rating)
	assert.Equal(t, "Broke", review.Comment)
	assert.Equal(t, domain.DefaultReviewerName, review.ReviewerName)
	f.assertExpectations(t)
}

func TestUpdateReview_Forbidden(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	existing := &domain.Review{ID: 31, ProductID: 7, Rating: 5, DeviceID: "owner"}

	f.reviews.On("GetByID", ctx, int64(31)).Return(existing, nil)

	_, err := f.svc.UpdateReview(ctx, 31, UpdateReviewInput{Rating: 1, DeviceID: "intruder"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(err))
	f.reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.products.AssertNotCalled(t, "UpdateAggregates", mock.Anything, mock.Anything)
}

func TestUpdateReview_NotFound(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, int64(40)).Return(nil, apperrors.NotFound("review", 40))

	_, err := f.svc.UpdateReview(ctx, 40, UpdateReviewInput{Rating: 1, DeviceID: "d"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteReview_Success(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	existing := &domain.Review{ID: 31, ProductID: 7, Rating: 4, DeviceID: "owner"}
	empty := domain.RatingAggregate{ProductID: 7}

	f.reviews.On("GetByID", ctx, int64(31)).Return(existing, nil)
	f.products.On("GetForUpdate", ctx, int64(7)).Return(product7, nil)
	f.reviews.On("Delete", ctx, int64(31)).Return(nil)
	f.reviews.On("Aggregate", ctx, int64(7)).Return(empty, nil)
	f.products.On("UpdateAggregates", ctx, empty).Return(nil)
	f.events.On("PublishReviewDeleted", ctx, existing).Return(nil)
	f.events.On("PublishRatingUpdated", ctx, empty).Return(nil)

	require.NoError(t, f.svc.DeleteReview(ctx, 31, "owner"))
	assert.Equal(t, 1, f.tx.commits)
	f.assertExpectations(t)
}

func TestDeleteReview_Forbidden(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, int64(31)).Return(&domain.Review{ID: 31, ProductID: 7, DeviceID: "owner"}, nil)

	err := f.svc.DeleteReview(ctx, 31, "intruder")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	f.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteReview_RequiresDevice(t *testing.T) {
	f := newReviewFixture()
	err := f.svc.DeleteReview(context.Background(), 31, "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestDeleteReview_AggregateFailureRollsBack(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, int64(31)).Return(&domain.Review{ID: 31, ProductID: 7, DeviceID: "owner"}, nil)
	f.products.On("GetForUpdate", ctx, int64(7)).Return(product7, nil)
	f.reviews.On("Delete", ctx, int64(31)).Return(nil)
	f.reviews.On("Aggregate", ctx, int64(7)).Return(domain.RatingAggregate{}, errors.New("connection reset"))

	err := f.svc.DeleteReview(ctx, 31, "owner")
	require.Error(t, err)
	assert.Equal(t, 1, f.tx.rollbacks)
	assert.Zero(t, f.tx.commits)
	f.events.AssertNotCalled(t, "PublishReviewDeleted", mock.Anything, mock.Anything)
}

func TestRecalculateAggregates(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	agg := domain.RatingAggregate{ProductID: 7, AverageRating: 4.3, ReviewCount: 3}

	f.products.On("GetForUpdate", ctx, int64(7)).Return(product7, nil)
	f.reviews.On("Aggregate", ctx, int64(7)).Return(agg, nil)
	f.products.On("UpdateAggregates", ctx, agg).Return(nil)
	f.events.On("PublishRatingUpdated", ctx, agg).Return(nil)

	got, err := f.svc.RecalculateAggregates(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, agg, got)
	f.assertExpectations(t)
}

func TestListReviews(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	filter := repository.ReviewFilter{ProductID: 7, Page: 1, PerPage: 10}
	reviews := []domain.Review{{ID: 1, ProductID: 7, Rating: 5}}

	f.products.On("GetByID", ctx, int64(7)).Return(product7, nil)
	f.reviews.On("List", ctx, filter).Return(reviews, 1, nil)

	got, total, err := f.svc.ListReviews(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, reviews, got)
	assert.Equal(t, 1, total)
}

func TestListReviews_UnknownProduct(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	f.products.On("GetByID", ctx, int64(99)).Return(nil, apperrors.NotFound("product", 99))

	_, _, err := f.svc.ListReviews(ctx, repository.ReviewFilter{ProductID: 99})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.reviews.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListReviews_InvalidMinRating(t *testing.T) {
	f := newReviewFixture()
	_, _, err := f.svc.ListReviews(context.Background(), repository.ReviewFilter{ProductID: 7, MinRating: intPtr(9)})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
