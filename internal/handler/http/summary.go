package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/service"
	"github.com/utafrali/productreview/pkg/httputil"
)

// SummaryHandler serves AI review summaries.
type SummaryHandler struct {
	service SummaryService
	logger  *slog.Logger
}

// NewSummaryHandler creates a new summary HTTP handler.
func NewSummaryHandler(svc SummaryService, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		service: svc,
		logger:  logger,
	}
}

// GetReviewSummary handles GET /api/v1/products/{id}/review-summary
// @Summary Summarise a product's latest reviews
// @Description Falls back to a local keyword summary when the AI backend is unavailable
// @Tags reviews
// @Produce json
// @Param id path int true "Product ID"
// @Param limit query int false "Number of latest reviews to read (1-100)" default(30)
// @Param lang query string false "Output language" Enums(en,tr,es)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id}/review-summary [get]
func (h *SummaryHandler) GetReviewSummary(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	limit := service.DefaultSummaryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeInvalidParameter(w, "limit must be a valid integer")
			return
		}
		limit = n
	}

	result, err := h.service.GetReviewSummary(r.Context(), productID, limit, requestLanguage(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// requestLanguage returns the lang query parameter, then the first supported
// Accept-Language entry, then the default language.
func requestLanguage(r *http.Request) string {
	if v := r.URL.Query().Get("lang"); v != "" {
		return v
	}
	if l, ok := domain.LanguageFromAcceptLanguage(r.Header.Get("Accept-Language")); ok {
		return string(l)
	}
	return string(domain.DefaultLanguage)
}
