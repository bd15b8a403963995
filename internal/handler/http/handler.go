// Package http exposes the product review API over HTTP.
package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/internal/service"
	"github.com/utafrali/productreview/pkg/httputil"
)

// ProductService is the catalogue behaviour the product handler needs.
type ProductService interface {
	CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error)
	GetProductDetail(ctx context.Context, id int64) (*domain.ProductDetail, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error)
	UpdateProduct(ctx context.Context, id int64, input service.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ReviewService is the review behaviour the review handler needs.
type ReviewService interface {
	CreateReview(ctx context.Context, input service.CreateReviewInput) (*domain.Review, error)
	UpdateReview(ctx context.Context, id int64, input service.UpdateReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, id int64, deviceID string) error
	ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error)
}

// SummaryService produces review summaries.
type SummaryService interface {
	GetReviewSummary(ctx context.Context, productID int64, limit int, rawLang string) (domain.SummaryResult, error)
}

// Translator translates text batches. It never fails.
type Translator interface {
	Translate(ctx context.Context, texts []*string, rawLang string) domain.TranslationResult
}

func writeInvalidParameter(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}

// queryInt parses an optional integer query parameter. ok is false when a
// 400 has already been written.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (v *int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeInvalidParameter(w, name+" must be a valid integer")
		return nil, false
	}
	return &n, true
}

// queryFloat parses an optional decimal query parameter.
func queryFloat(w http.ResponseWriter, r *http.Request, name string) (v *float64, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeInvalidParameter(w, name+" must be a valid number")
		return nil, false
	}
	return &f, true
}
