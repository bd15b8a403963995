package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/productreview/internal/config"
	"github.com/utafrali/productreview/pkg/httpclient"
)

// FromConfig builds the guarded generator described by cfg. It returns nil
// when cfg has no credential, which callers treat as local-only mode.
func FromConfig(ctx context.Context, cfg config.AIConfig, purpose string, logger *slog.Logger) (*Guarded, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	httpClient := httpclient.New(httpclient.Config{ConnectTimeout: cfg.ConnectTimeout})

	var (
		next Generator
		err  error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		next = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, httpClient)
	case config.ProviderAnthropic:
		next = NewAnthropic(cfg.APIKey, cfg.Model, cfg.BaseURL, httpClient)
	case config.ProviderGemini:
		next, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown %s provider %q", purpose, cfg.Provider)
	}

	logger.Info("text generation backend configured",
		slog.String("purpose", purpose),
		slog.String("provider", cfg.Provider),
		slog.String("model", cfg.Model),
	)

	return NewGuarded(next, GuardConfig{
		Purpose:  purpose,
		Provider: cfg.Provider,
		Timeout:  cfg.RequestTimeout,
	}, logger), nil
}
