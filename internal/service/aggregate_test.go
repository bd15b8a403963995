package service

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	apperrors "github.com/utafrali/productreview/pkg/errors"
)

// memStore is an in-memory product and review store. Only the methods the
// review service calls do real work.
type memStore struct {
	products map[int64]*domain.Product
	reviews  map[int64]*domain.Review
	nextID   int64
}

func newMemStore(productIDs ...int64) *memStore {
	s := &memStore{products: map[int64]*domain.Product{}, reviews: map[int64]*domain.Review{}}
	for _, id := range productIDs {
		s.products[id] = &domain.Product{ID: id}
	}
	return s
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return fn(ctx, repository.Repos{Products: memProducts{s}, Reviews: memReviews{s}})
}

type memProducts struct{ s *memStore }

func (m memProducts) Create(context.Context, *domain.Product) error { return nil }
func (m memProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	cp := *p
	return &cp, nil
}
func (m memProducts) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return m.GetByID(ctx, id)
}
func (m memProducts) List(context.Context, repository.ProductFilter) ([]domain.Product, int, error) {
	return nil, 0, nil
}
func (m memProducts) Update(context.Context, *domain.Product) error { return nil }
func (m memProducts) UpdateAggregates(_ context.Context, agg domain.RatingAggregate) error {
	p, ok := m.s.products[agg.ProductID]
	if !ok {
		return apperrors.NotFound("product", agg.ProductID)
	}
	p.AverageRating, p.ReviewCount = agg.AverageRating, agg.ReviewCount
	return nil
}
func (m memProducts) Delete(context.Context, int64) error { return nil }

type memReviews struct{ s *memStore }

func (m memReviews) Create(_ context.Context, r *domain.Review) error {
	m.s.nextID++
	r.ID = m.s.nextID
	r.CreatedAt, r.UpdatedAt = time.Now(), time.Now()
	cp := *r
	m.s.reviews[r.ID] = &cp
	return nil
}
func (m memReviews) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	r, ok := m.s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	cp := *r
	return &cp, nil
}
func (m memReviews) Update(_ context.Context, r *domain.Review) error {
	cp := *r
	m.s.reviews[r.ID] = &cp
	return nil
}
func (m memReviews) Delete(_ context.Context, id int64) error {
	delete(m.s.reviews, id)
	return nil
}
func (m memReviews) List(context.Context, repository.ReviewFilter) ([]domain.Review, int, error) {
	return nil, 0, nil
}
func (m memReviews) ListAllByProduct(context.Context, int64) ([]domain.Review, error) {
	return nil, nil
}
func (m memReviews) ListLatest(context.Context, int64, int) ([]domain.Review, error) {
	return nil, nil
}
func (m memReviews) Aggregate(_ context.Context, productID int64) (domain.RatingAggregate, error) {
	agg := domain.RatingAggregate{ProductID: productID}
	sum := 0
	for _, r := range m.s.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			agg.ReviewCount++
		}
	}
	if agg.ReviewCount > 0 {
		agg.AverageRating = domain.RoundRating(float64(sum) / float64(agg.ReviewCount))
	}
	return agg, nil
}
func (m memReviews) Fingerprint(context.Context, int64) (domain.ReviewFingerprint, error) {
	return domain.ReviewFingerprint{}, nil
}
func (m memReviews) RatingDistribution(context.Context, int64) (domain.RatingDistribution, error) {
	return nil, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishReviewCreated(context.Context, *domain.Review) error         { return nil }
func (noopPublisher) PublishReviewUpdated(context.Context, *domain.Review) error         { return nil }
func (noopPublisher) PublishReviewDeleted(context.Context, *domain.Review) error         { return nil }
func (noopPublisher) PublishRatingUpdated(context.Context, domain.RatingAggregate) error { return nil }

// expectedAggregate recomputes the aggregate from the stored reviews.
func expectedAggregate(s *memStore, productID int64) (float64, int64) {
	var sum, n int64
	for _, r := range s.reviews {
		if r.ProductID == productID {
			sum += int64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10, n
}

func TestAggregatesTrackEveryMutation(t *testing.T) {
	store := newMemStore(1, 2)
	svc := NewReviewService(store, memProducts{store}, memReviews{store}, noopPublisher{}, newTestLogger())
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(42, 7))

	check := func(step int) {
		for _, pid := range []int64{1, 2} {
			avg, n := expectedAggregate(store, pid)
			p := store.products[pid]
			require.Equalf(t, n, p.ReviewCount, "step %d product %d count", step, pid)
			require.Equalf(t, avg, p.AverageRating, "step %d product %d average", step, pid)
		}
	}

	var owned []int64
	for step := 0; step < 200; step++ {
		switch op := rng.IntN(3); {
		case op == 0 || len(owned) == 0:
			r, err := svc.CreateReview(ctx, CreateReviewInput{
				ProductID: int64(1 + rng.IntN(2)),
				Rating:    1 + rng.IntN(5),
				Comment:   "ok",
				DeviceID:  "device",
			})
			require.NoError(t, err)
			owned = append(owned, r.ID)
		case op == 1:
			id := owned[rng.IntN(len(owned))]
			_, err := svc.UpdateReview(ctx, id, UpdateReviewInput{Rating: 1 + rng.IntN(5), DeviceID: "device"})
			require.NoError(t, err)
		default:
			i := rng.IntN(len(owned))
			require.NoError(t, svc.DeleteReview(ctx, owned[i], "device"))
			owned = append(owned[:i], owned[i+1:]...)
		}
		check(step)
	}

	for _, id := range owned {
		require.NoError(t, svc.DeleteReview(ctx, id, "device"))
	}
	check(-1)
	assert.Equal(t, int64(0), store.products[1].ReviewCount)
	assert.Equal(t, 0.0, store.products[1].AverageRating)
}

func TestCreateReview_UnknownProductWritesNothing(t *testing.T) {
	store := newMemStore(1)
	svc := NewReviewService(store, memProducts{store}, memReviews{store}, noopPublisher{}, newTestLogger())

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{ProductID: 5, Rating: 4, DeviceID: "d"})
	require.Error(t, err)
	assert.Empty(t, store.reviews)
}
