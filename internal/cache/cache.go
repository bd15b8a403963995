// Package cache provides the TTL key-value stores behind the summary and
// translation caches. Writes are last-writer-wins upserts.
package cache

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store is a TTL cache. Get reports false for missing or expired keys.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V) error
}

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit, miss, error).",
		},
		[]string{"cache", "result"},
	)

	writeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_write_errors_total",
			Help: "Failed cache writes by cache name.",
		},
		[]string{"cache"},
	)
)

// Instrumented records hit, miss and error counts for a Store.
type Instrumented[V any] struct {
	name  string
	inner Store[V]
}

// WithMetrics wraps s so that its lookups are counted under name.
func WithMetrics[V any](name string, s Store[V]) *Instrumented[V] {
	return &Instrumented[V]{name: name, inner: s}
}

// Get implements Store.
func (c *Instrumented[V]) Get(ctx context.Context, key string) (V, bool, error) {
	v, ok, err := c.inner.Get(ctx, key)
	switch {
	case err != nil:
		lookupsTotal.WithLabelValues(c.name, "error").Inc()
	case ok:
		lookupsTotal.WithLabelValues(c.name, "hit").Inc()
	default:
		lookupsTotal.WithLabelValues(c.name, "miss").Inc()
	}
	return v, ok, err
}

// Set implements Store.
func (c *Instrumented[V]) Set(ctx context.Context, key string, value V) error {
	err := c.inner.Set(ctx, key, value)
	if err != nil {
		writeErrorsTotal.WithLabelValues(c.name).Inc()
	}
	return err
}
