package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/productreview/pkg/httputil"
	"github.com/utafrali/productreview/pkg/validator"
)

// TranslateHandler serves batch translation.
type TranslateHandler struct {
	translator Translator
	logger     *slog.Logger
}

// NewTranslateHandler creates a new translation HTTP handler.
func NewTranslateHandler(t Translator, logger *slog.Logger) *TranslateHandler {
	return &TranslateHandler{
		translator: t,
		logger:     logger,
	}
}

// TranslateRequest is the JSON request body for a batch translation. Null
// entries are allowed and come back as empty strings.
type TranslateRequest struct {
	Lang  string    `json:"lang" validate:"notblank"`
	Texts []*string `json:"texts" validate:"required,min=1"`
}

// Translate handles POST /api/v1/translate
// @Summary Translate a batch of texts
// @Description Texts that cannot be translated are returned unchanged with source LOCAL
// @Tags translation
// @Accept json
// @Produce json
// @Param request body TranslateRequest true "Texts and target language"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/translate [post]
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result := h.translator.Translate(r.Context(), req.Texts, req.Lang)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
