package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/productreview/internal/cache"
	"github.com/utafrali/productreview/internal/config"
	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/event"
	handler "github.com/utafrali/productreview/internal/handler/http"
	"github.com/utafrali/productreview/internal/llm"
	"github.com/utafrali/productreview/internal/repository/postgres"
	"github.com/utafrali/productreview/internal/service"
	"github.com/utafrali/productreview/internal/summary"
	"github.com/utafrali/productreview/internal/translate"
	"github.com/utafrali/productreview/migrations"
	"github.com/utafrali/productreview/pkg/database"
	"github.com/utafrali/productreview/pkg/health"
	pkgkafka "github.com/utafrali/productreview/pkg/kafka"
	"github.com/utafrali/productreview/pkg/middleware"
	"github.com/utafrali/productreview/pkg/tracing"
)

const serviceName = "productreview"

// App wires together all dependencies and runs the product review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	generators     []*llm.Guarded
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.closeResources()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Kafka is optional. When it is unreachable the service keeps running and
	// publish failures are only logged.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, a.producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	summaryStore, translationStore, err := a.buildCaches(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	summaryGen, err := llm.FromConfig(ctx, cfg.Summary(), "summary", logger)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("init summary backend: %w", err)
	}
	translationGen, err := llm.FromConfig(ctx, cfg.Translation(), "translation", logger)
	if err != nil {
		a.closeResources()
		if summaryGen != nil {
			_ = summaryGen.Close()
		}
		return nil, fmt.Errorf("init translation backend: %w", err)
	}

	// A nil *llm.Guarded must not reach the services as a non-nil interface.
	var summarizer service.Summarizer
	if summaryGen != nil {
		summarizer = summary.NewAIClient(summaryGen)
		a.generators = append(a.generators, summaryGen)
	} else {
		logger.Info("no summary credential configured, using local summaries")
	}
	var translationBackend llm.Generator
	if translationGen != nil {
		translationBackend = translationGen
		a.generators = append(a.generators, translationGen)
	} else {
		logger.Info("no translation credential configured, texts are returned untranslated")
	}

	// Build the dependency graph.
	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	transactor := postgres.NewTransactor(pool)
	eventProducer := event.NewProducer(a.producer, logger)

	services := handler.Services{
		Products:   service.NewProductService(productRepo, reviewRepo, logger),
		Reviews:    service.NewReviewService(transactor, productRepo, reviewRepo, eventProducer, logger),
		Summaries:  service.NewSummaryService(productRepo, reviewRepo, summarizer, summaryStore, logger),
		Translator: translate.New(translationBackend, translationStore, logger),
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(services, healthHandler, cors, logger),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// buildCaches creates the summary and translation stores for the configured
// backend. A Redis backend becomes a critical readiness check.
func (a *App) buildCaches(ctx context.Context, healthHandler *health.Handler) (cache.Store[domain.SummaryResult], cache.Store[string], error) {
	cfg := a.cfg
	if cfg.CacheBackend != config.CacheRedis {
		a.logger.Info("using in-memory caches")
		return cache.WithMetrics[domain.SummaryResult]("summary", cache.NewMemory[domain.SummaryResult](cfg.SummaryCacheTTL, cache.DefaultMaxEntries)),
			cache.WithMetrics[string]("translation", cache.NewMemory[string](cfg.TranslationCacheTTL, cache.DefaultMaxEntries)),
			nil
	}

	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:        cfg.RedisHost,
		Port:        cfg.RedisPort,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	return cache.WithMetrics[domain.SummaryResult]("summary", cache.NewRedis[domain.SummaryResult](client, "productreview:summary:", cfg.SummaryCacheTTL)),
		cache.WithMetrics[string]("translation", cache.NewRedis[string](client, "productreview:translation:", cfg.TranslationCacheTTL)),
		nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans from drained requests)
// 3. Text generation backends, Kafka producer, Redis, PostgreSQL
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeResources())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases every client the app holds. It is safe to call on
// a partially constructed App.
func (a *App) closeResources() error {
	var errs []error

	for _, g := range a.generators {
		if err := g.Close(); err != nil {
			a.logger.Error("text generation backend close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	return errors.Join(errs...)
}

// pingKafkaWithRetry pings the producer up to three times, backing off
// 1s then 2s with ±25% jitter.
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		base := time.Duration(1<<attempt) * time.Second
		wait := base + time.Duration(float64(base)*0.25*(2*rand.Float64()-1)) // #nosec G404 -- retry jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
