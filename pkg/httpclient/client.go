package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config holds HTTP client configuration for outbound API calls.
type Config struct {
	// ConnectTimeout bounds the TCP dial and TLS handshake.
	ConnectTimeout time.Duration
	// Timeout bounds the whole exchange. Zero leaves it to the request context.
	Timeout         time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns defaults suited to LLM provider calls.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  5 * time.Second,
		MaxConnsPerHost: 32,
	}
}

// New returns an *http.Client with a pooled transport and the configured
// connect timeout. Requests are never retried.
func New(cfg Config) *http.Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = DefaultConfig().MaxConnsPerHost
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{Transport: transport, Timeout: cfg.Timeout}
}
