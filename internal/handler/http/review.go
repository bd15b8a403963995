package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/internal/service"
	"github.com/utafrali/productreview/pkg/httputil"
	"github.com/utafrali/productreview/pkg/pagination"
	"github.com/utafrali/productreview/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review.
// Comment length is checked after trimming by the service.
type CreateReviewRequest struct {
	ProductID    int64  `json:"productId" validate:"required,gt=0"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewerName" validate:"max=100"`
	DeviceID     string `json:"deviceId" validate:"notblank,max=255"`
}

// UpdateReviewRequest is the JSON request body for editing a review.
type UpdateReviewRequest struct {
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewerName" validate:"max=100"`
	DeviceID     string `json:"deviceId" validate:"notblank,max=255"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/products/{id}/reviews
// @Summary List product reviews
// @Tags reviews
// @Produce json
// @Param id path int true "Product ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(10)
// @Param min_rating query int false "Minimum star rating"
// @Param sort_by query string false "Sort field" Enums(created_at,rating)
// @Param sort_dir query string false "Sort direction" Enums(asc,desc)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id}/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	sort, err := pagination.SortFromRequest(r, domain.ReviewSortCreatedAt, domain.ReviewSortCreatedAt, domain.ReviewSortRating)
	if err != nil {
		writeInvalidParameter(w, err.Error())
		return
	}

	filter := repository.ReviewFilter{
		ProductID: productID,
		Sort:      sort,
		Page:      params.Page,
		PerPage:   params.PerPage,
	}
	if filter.MinRating, ok = queryInt(w, r, "min_rating"); !ok {
		return
	}

	reviews, total, err := h.service.ListReviews(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pagination.NewResult(reviews, total, params)})
}

// CreateReview handles POST /api/v1/reviews
// @Summary Submit a review
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body CreateReviewRequest true "Review to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.CreateReview(r.Context(), service.CreateReviewInput{
		ProductID:    req.ProductID,
		Rating:       req.Rating,
		Comment:      req.Comment,
		ReviewerName: req.ReviewerName,
		DeviceID:     req.DeviceID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// UpdateReview handles PUT /api/v1/reviews/{id}
// @Summary Edit a review
// @Description Only the device that created the review may edit it
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param request body UpdateReviewRequest true "New review fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), id, service.UpdateReviewInput{
		Rating:       req.Rating,
		Comment:      req.Comment,
		ReviewerName: req.ReviewerName,
		DeviceID:     req.DeviceID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}?deviceId=
// @Summary Delete a review
// @Tags reviews
// @Param id path int true "Review ID"
// @Param deviceId query string true "Device that created the review"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), id, r.URL.Query().Get("deviceId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
