package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/utafrali/productreview/internal/cache"
	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/internal/summary"
	"github.com/utafrali/productreview/pkg/logger"
)

// Summary review limits.
const (
	DefaultSummaryLimit = 30
	MaxSummaryLimit     = 100
)

var summaryResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "summary_results_total",
		Help: "Generated review summaries by provenance. Cache hits are not counted.",
	},
	[]string{"source"},
)

// Summarizer produces an AI summary of usable reviews. *summary.AIClient
// implements it.
type Summarizer interface {
	Summarize(ctx context.Context, p domain.Product, reviews []domain.Review, lang domain.Language) (domain.SummaryContent, error)
}

// SummaryService builds cached review summaries. The local synthesis backs
// every request; the AI summary replaces it when a backend is configured and
// answers with a usable result.
type SummaryService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	ai       Summarizer
	cache    cache.Store[domain.SummaryResult]
	group    singleflight.Group
	logger   *slog.Logger
	now      func() time.Time
}

// NewSummaryService creates a summary service. A nil ai keeps every summary
// on the local path.
func NewSummaryService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	ai Summarizer,
	store cache.Store[domain.SummaryResult],
	logger *slog.Logger,
) *SummaryService {
	return &SummaryService{
		products: products,
		reviews:  reviews,
		ai:       ai,
		cache:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// ClampSummaryLimit forces limit into 1..MaxSummaryLimit.
func ClampSummaryLimit(limit int) int {
	return max(1, min(limit, MaxSummaryLimit))
}

// GetReviewSummary returns the summary of a product's latest limit reviews in
// lang. Results are cached per product, limit, language and review
// fingerprint, so any review mutation makes the next call regenerate.
func (s *SummaryService) GetReviewSummary(ctx context.Context, productID int64, limit int, rawLang string) (domain.SummaryResult, error) {
	lang := domain.ParseLanguage(rawLang)
	limit = ClampSummaryLimit(limit)
	log := logger.WithContext(ctx, s.logger)

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("get review summary: %w", err)
	}

	fp, err := s.reviews.Fingerprint(ctx, productID)
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("get review fingerprint: %w", err)
	}
	key := summaryKey(productID, limit, lang, fp)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.WarnContext(ctx, "summary cache read failed", slog.String("error", err.Error()))
	} else if ok {
		return cached, nil
	}

	// Concurrent misses for one key share a single generation. It runs
	// detached from the first caller's cancellation so the others still get
	// a result.
	v, err, _ := s.group.Do(key, func() (any, error) {
		genCtx := context.WithoutCancel(ctx)
		res, err := s.generate(genCtx, product, limit, lang)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(genCtx, key, res); err != nil {
			log.WarnContext(ctx, "summary cache write failed", slog.String("error", err.Error()))
		}
		return res, nil
	})
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("generate review summary: %w", err)
	}
	return v.(domain.SummaryResult), nil
}

func (s *SummaryService) generate(ctx context.Context, product *domain.Product, limit int, lang domain.Language) (domain.SummaryResult, error) {
	latest, err := s.reviews.ListLatest(ctx, product.ID, limit)
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("list latest reviews: %w", err)
	}
	usable := domain.UsableReviews(latest)

	res := domain.SummaryResult{
		ProductID:       product.ID,
		Lang:            lang,
		Source:          domain.ProvenanceLocal,
		AverageRating:   product.AverageRating,
		ReviewCount:     product.ReviewCount,
		ReviewCountUsed: len(usable),
		GeneratedAt:     s.now().UTC().Truncate(time.Second),
	}

	switch {
	case len(usable) == 0:
		res.SummaryContent = summary.NoReviews(lang)
	case s.ai == nil:
		res.SummaryContent = summary.Local(product.Category, usable, lang)
	default:
		content, err := s.ai.Summarize(ctx, *product, usable, lang)
		if err != nil {
			logger.WithContext(ctx, s.logger).WarnContext(ctx, "ai summary failed, using local summary",
				slog.Int64("product_id", product.ID),
				slog.String("lang", string(lang)),
				slog.String("error", err.Error()),
			)
			res.SummaryContent = summary.Local(product.Category, usable, lang)
			break
		}
		res.Source = domain.ProvenanceAI
		res.SummaryContent = content
	}

	summaryResultsTotal.WithLabelValues(string(res.Source)).Inc()
	return res, nil
}

func summaryKey(productID int64, limit int, lang domain.Language, fp domain.ReviewFingerprint) string {
	return strconv.FormatInt(productID, 10) + "|" + strconv.Itoa(limit) + "|" + string(lang) + "|" + fp.String()
}
