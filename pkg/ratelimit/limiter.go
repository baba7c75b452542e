// Package ratelimit enforces a minimum spacing between outbound requests
// to a single upstream API.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Prometheus metrics for rate limiting.
var (
	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikidash_rate_limit_wait_seconds",
		Help:    "Time spent waiting for the request rate limiter",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	rateLimitAcquiresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikidash_rate_limit_acquires_total",
		Help: "Total number of rate limiter acquisitions",
	})
)

// Limiter gates outbound requests so that no two start closer together
// than the configured minimum interval. It gates every attempt, retries
// included. Separate Limiter instances are fully independent.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter with the given minimum interval between requests.
// A non-positive interval disables gating entirely.
func New(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		return &Limiter{}
	}
	// Burst 1: the first acquire passes immediately, every later one is
	// spaced at least minInterval from the previous.
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Acquire blocks until at least the minimum interval has elapsed since the
// previous request issued through this limiter, then returns. It returns
// early with the context error if ctx is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	rateLimitAcquiresTotal.Inc()

	if l.limiter == nil {
		return nil
	}

	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	rateLimitWaitSeconds.Observe(time.Since(start).Seconds())

	return nil
}
