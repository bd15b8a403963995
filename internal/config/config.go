package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/productreview/pkg/config"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// DefaultAIBaseURL is the OpenAI-compatible endpoint used when none is set.
const DefaultAIBaseURL = "https://api.groq.com/openai/v1"

// AIConfig configures one text-generation backend. An empty APIKey disables
// the backend and every request takes the local path.
type AIConfig struct {
	Provider       string
	APIKey         string
	Model          string
	BaseURL        string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// Enabled reports whether a credential is configured.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// Config holds all configuration for the product review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"productreview"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"productreview"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"productreview"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Caches
	CacheBackend        string        `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisHost           string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort           int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`
	SummaryCacheTTL     time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"10m"`
	TranslationCacheTTL time.Duration `env:"TRANSLATION_CACHE_TTL" envDefault:"30m"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Review summaries
	AIProvider       string        `env:"AI_PROVIDER" envDefault:"openai"`
	AIAPIKey         string        `env:"AI_API_KEY"`
	AIModel          string        `env:"AI_MODEL" envDefault:"llama-3.3-70b-versatile"`
	AIBaseURL        string        `env:"AI_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	AIConnectTimeout time.Duration `env:"AI_CONNECT_TIMEOUT" envDefault:"5s"`
	AIRequestTimeout time.Duration `env:"AI_REQUEST_TIMEOUT" envDefault:"6s"`

	// Translation
	TranslationProvider       string        `env:"TRANSLATION_PROVIDER" envDefault:"openai"`
	TranslationAPIKey         string        `env:"TRANSLATION_API_KEY"`
	TranslationModel          string        `env:"TRANSLATION_MODEL" envDefault:"llama-3.3-70b-versatile"`
	TranslationBaseURL        string        `env:"TRANSLATION_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	TranslationRequestTimeout time.Duration `env:"TRANSLATION_REQUEST_TIMEOUT" envDefault:"8s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load productreview config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env parsing alone cannot.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheMemory, CacheRedis, c.CacheBackend)
	}
	if c.SummaryCacheTTL <= 0 || c.TranslationCacheTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	for name, p := range map[string]string{"AI_PROVIDER": c.AIProvider, "TRANSLATION_PROVIDER": c.TranslationProvider} {
		switch p {
		case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		default:
			return fmt.Errorf("%s must be one of openai, gemini, anthropic, got %q", name, p)
		}
	}
	if c.AIRequestTimeout <= 0 || c.TranslationRequestTimeout <= 0 || c.AIConnectTimeout <= 0 {
		return fmt.Errorf("AI timeouts must be positive")
	}
	return nil
}

// Summary returns the backend configuration for review summaries.
func (c *Config) Summary() AIConfig {
	return AIConfig{
		Provider:       c.AIProvider,
		APIKey:         c.AIAPIKey,
		Model:          c.AIModel,
		BaseURL:        baseURLFor(c.AIProvider, c.AIBaseURL),
		ConnectTimeout: c.AIConnectTimeout,
		RequestTimeout: c.AIRequestTimeout,
	}
}

// Translation returns the backend configuration for batch translation. It
// shares the connect timeout with summaries but never their credential.
func (c *Config) Translation() AIConfig {
	return AIConfig{
		Provider:       c.TranslationProvider,
		APIKey:         c.TranslationAPIKey,
		Model:          c.TranslationModel,
		BaseURL:        baseURLFor(c.TranslationProvider, c.TranslationBaseURL),
		ConnectTimeout: c.AIConnectTimeout,
		RequestTimeout: c.TranslationRequestTimeout,
	}
}

// baseURLFor drops the OpenAI-compatible default for providers that have
// their own endpoint, so only an explicit override reaches them.
func baseURLFor(provider, baseURL string) string {
	if provider != ProviderOpenAI && baseURL == DefaultAIBaseURL {
		return ""
	}
	return baseURL
}
