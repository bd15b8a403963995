package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/internal/service"
	"github.com/utafrali/productreview/pkg/httputil"
	"github.com/utafrali/productreview/pkg/pagination"
	"github.com/utafrali/productreview/pkg/validator"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ProductRequest is the JSON request body for creating or replacing a product.
type ProductRequest struct {
	Name        string   `json:"name" validate:"notblank,max=255"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"max=100"`
	Price       float64  `json:"price" validate:"gte=0"`
	ImageURLs   []string `json:"imageUrls" validate:"omitempty,dive,url"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURLs:   req.ImageURLs,
	}
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products
// @Summary List products
// @Description Returns a page of products with optional filters and sorting
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(10)
// @Param category query string false "Exact category"
// @Param search query string false "Whitespace separated terms matched against name or description"
// @Param min_rating query int false "Minimum average rating"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param sort_by query string false "Sort field" Enums(review_count,average_rating,price,name,newest)
// @Param sort_dir query string false "Sort direction" Enums(asc,desc)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	sort, err := pagination.SortFromRequest(r, domain.ProductSortReviewCount, domain.ProductSortFields()...)
	if err != nil {
		writeInvalidParameter(w, err.Error())
		return
	}

	filter := repository.ProductFilter{
		SearchTerms: service.SearchTerms(r.URL.Query().Get("search")),
		Sort:        sort,
		Page:        params.Page,
		PerPage:     params.PerPage,
	}
	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		filter.Category = &v
	}

	var ok bool
	if filter.MinRating, ok = queryInt(w, r, "min_rating"); !ok {
		return
	}
	if filter.MinPrice, ok = queryFloat(w, r, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = queryFloat(w, r, "max_price"); !ok {
		return
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pagination.NewResult(products, total, params)})
}

// GetProduct handles GET /api/v1/products/{id}
// Returns the product with all of its reviews and the rating distribution.
// @Summary Get product detail
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	detail, err := h.service.GetProductDetail(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// CreateProduct handles POST /api/v1/products
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body ProductRequest true "Product to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id}
// @Summary Replace a product's catalogue fields
// @Description Rating aggregates are never changed by this endpoint
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "New catalogue fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [put]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}
// @Summary Delete a product and its reviews
// @Tags products
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
