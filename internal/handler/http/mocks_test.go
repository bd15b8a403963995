package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/internal/service"
	"github.com/utafrali/productreview/pkg/health"
	"github.com/utafrali/productreview/pkg/middleware"
)

type mockProductService struct{ mock.Mock }

func (m *mockProductService) CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductService) GetProductDetail(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductDetail), args.Error(1)
}

func (m *mockProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductService) UpdateProduct(ctx context.Context, id int64, input service.ProductInput) (*domain.Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductService) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockReviewService struct{ mock.Mock }

func (m *mockReviewService) CreateReview(ctx context.Context, input service.CreateReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewService) UpdateReview(ctx context.Context, id int64, input service.UpdateReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewService) DeleteReview(ctx context.Context, id int64, deviceID string) error {
	return m.Called(ctx, id, deviceID).Error(0)
}

func (m *mockReviewService) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

type mockSummaryService struct{ mock.Mock }

func (m *mockSummaryService) GetReviewSummary(ctx context.Context, productID int64, limit int, rawLang string) (domain.SummaryResult, error) {
	args := m.Called(ctx, productID, limit, rawLang)
	return args.Get(0).(domain.SummaryResult), args.Error(1)
}

type mockTranslator struct{ mock.Mock }

func (m *mockTranslator) Translate(ctx context.Context, texts []*string, rawLang string) domain.TranslationResult {
	return m.Called(ctx, texts, rawLang).Get(0).(domain.TranslationResult)
}

// --- Test Helpers ---

type testAPI struct {
	products   *mockProductService
	reviews    *mockReviewService
	summaries  *mockSummaryService
	translator *mockTranslator
	handler    http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		products:   &mockProductService{},
		reviews:    &mockReviewService{},
		summaries:  &mockSummaryService{},
		translator: &mockTranslator{},
	}
	h := NewRouter(Services{
		Products:   api.products,
		Reviews:    api.reviews,
		Summaries:  api.summaries,
		Translator: api.translator,
	}, health.NewHandler(), middleware.DefaultCORSConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	api.handler = h
	return api
}

func (api *testAPI) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors httputil.Response with a raw data payload.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}
