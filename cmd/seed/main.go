// Command seed fills an empty database with demo products and reviews.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utafrali/productreview/internal/config"
	"github.com/utafrali/productreview/internal/event"
	"github.com/utafrali/productreview/internal/repository/postgres"
	"github.com/utafrali/productreview/internal/seed"
	"github.com/utafrali/productreview/internal/service"
	"github.com/utafrali/productreview/migrations"
	pkgconfig "github.com/utafrali/productreview/pkg/config"
	"github.com/utafrali/productreview/pkg/database"
	"github.com/utafrali/productreview/pkg/logger"
)

type seedConfig struct {
	ReviewsPerProduct int    `env:"SEED_REVIEWS_PER_PRODUCT" envDefault:"8"`
	RandomSeed        uint64 `env:"SEED_RANDOM_SEED" envDefault:"42"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var sc seedConfig
	if err := pkgconfig.Load(&sc); err != nil {
		return err
	}
	if sc.ReviewsPerProduct < 0 {
		return fmt.Errorf("SEED_REVIEWS_PER_PRODUCT must not be negative, got %d", sc.ReviewsPerProduct)
	}

	log := logger.New("productreview-seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 5 * time.Minute,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	products := service.NewProductService(productRepo, reviewRepo, log)
	reviews := service.NewReviewService(postgres.NewTransactor(pool), productRepo, reviewRepo, event.NewProducer(nil, log), log)

	start := time.Now()
	stats, err := seed.New(products, reviews, log, sc.RandomSeed).Run(ctx, sc.ReviewsPerProduct)
	if err != nil {
		return err
	}
	log.Info("seed finished",
		slog.Int("products", stats.Products),
		slog.Int("reviews", stats.Reviews),
		slog.Bool("skipped", stats.Skipped),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}
