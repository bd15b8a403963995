package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/productreview/pkg/httpclient"
)

const tracerName = "github.com/utafrali/productreview/internal/llm"

// Call outcomes recorded in llm_requests_total.
const (
	OutcomeSuccess      = "success"
	OutcomeError        = "error"
	OutcomeTimeout      = "timeout"
	OutcomeCircuitOpen  = "circuit_open"
	OutcomeEmptyContent = "empty"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Text-generation calls by purpose, provider and outcome.",
		},
		[]string{"purpose", "provider", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Latency of text-generation calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 6, 8, 10},
		},
		[]string{"purpose", "provider"},
	)
)

// Guarded wraps a Generator with a per-call timeout, a circuit breaker,
// metrics and a tracing span. It never retries.
type Guarded struct {
	next     Generator
	purpose  string
	provider string
	timeout  time.Duration
	breaker  *httpclient.Breaker[string]
}

// GuardConfig configures a Guarded generator.
type GuardConfig struct {
	// Purpose labels metrics and spans, e.g. "summary" or "translation".
	Purpose  string
	Provider string
	// Timeout bounds a whole call. Zero leaves the caller's deadline alone.
	Timeout time.Duration
}

// NewGuarded wraps next.
func NewGuarded(next Generator, cfg GuardConfig, logger *slog.Logger) *Guarded {
	breakerCfg := httpclient.DefaultCircuitBreakerConfig("llm-" + cfg.Purpose)
	return &Guarded{
		next:     next,
		purpose:  cfg.Purpose,
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
		breaker:  httpclient.NewBreaker[string](breakerCfg, logger),
	}
}

// Generate implements Generator.
func (g *Guarded) Generate(ctx context.Context, req Request) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.purpose", g.purpose),
			attribute.String("llm.provider", g.provider),
			attribute.Int("llm.prompt_chars", len(req.Prompt)),
		),
	)
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.breaker.Execute(func() (string, error) {
		return g.next.Generate(ctx, req)
	})
	requestDuration.WithLabelValues(g.purpose, g.provider).Observe(time.Since(start).Seconds())

	outcome := classify(ctx, err)
	requestsTotal.WithLabelValues(g.purpose, g.provider, outcome).Inc()
	span.SetAttributes(attribute.String("llm.outcome", outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return "", err
	}
	return text, nil
}

// Close releases the wrapped generator when it holds resources.
func (g *Guarded) Close() error {
	if c, ok := g.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func classify(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return OutcomeCircuitOpen
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, ErrEmptyResponse):
		return OutcomeEmptyContent
	default:
		return OutcomeError
	}
}
