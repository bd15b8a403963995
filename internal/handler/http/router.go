package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/productreview/pkg/health"
	"github.com/utafrali/productreview/pkg/middleware"
)

const serviceName = "productreview"

// Services groups the behaviour the API routes are served by.
type Services struct {
	Products   ProductService
	Reviews    ReviewService
	Summaries  SummaryService
	Translator Translator
}

// NewRouter creates a chi router with all product review routes registered.
func NewRouter(
	svcs Services,
	healthHandler *health.Handler,
	cors middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cors))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(svcs.Products, logger)
	reviewHandler := NewReviewHandler(svcs.Reviews, logger)
	summaryHandler := NewSummaryHandler(svcs.Summaries, logger)
	translateHandler := NewTranslateHandler(svcs.Translator, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Post("/", productHandler.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetProduct)
				r.Put("/", productHandler.UpdateProduct)
				r.Delete("/", productHandler.DeleteProduct)
				r.Get("/reviews", reviewHandler.ListReviews)
				r.Get("/review-summary", summaryHandler.GetReviewSummary)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", reviewHandler.CreateReview)
			r.Put("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
		})

		r.Post("/translate", translateHandler.Translate)
	})

	return r
}
