package client

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikidash_retries_total",
		Help: "Total number of retry attempts by error code",
	}, []string{"error_code"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wikidash_retry_backoff_seconds",
		Help:    "Backoff duration before retries by error code",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_code"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikidash_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error code",
	}, []string{"error_code"})
)

// maxJitter is the upper bound of the random addition to each computed
// backoff, used to avoid synchronized retry storms.
const maxJitter = 1 * time.Second

// Executor retries an operation with exponential backoff until it succeeds,
// fails fatally, or exhausts the attempt budget.
type Executor struct {
	// MaxAttempts is the total attempt budget including the first try.
	// Must be >= 1; 1 means "try once, no retries".
	MaxAttempts int

	// InitialBackoff is the delay before the first retry; each further
	// retry doubles it.
	InitialBackoff time.Duration

	logger zerolog.Logger
}

// NewExecutor creates a retry executor. Non-positive arguments fall back
// to 3 attempts and a 500ms initial backoff.
func NewExecutor(maxAttempts int, initialBackoff time.Duration, logger zerolog.Logger) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if initialBackoff <= 0 {
		initialBackoff = 500 * time.Millisecond
	}
	return &Executor{
		MaxAttempts:    maxAttempts,
		InitialBackoff: initialBackoff,
		logger:         logger,
	}
}

// Do invokes op until it succeeds or the attempt budget runs out.
// A non-retryable error aborts immediately with no delay. When every
// attempt fails, the error returned is the one from the last attempt.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < e.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 0 {
				e.logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}

		if attempt == e.MaxAttempts-1 {
			break
		}

		code := errorCode(err)
		delay := e.backoff(attempt, err)

		retriesTotal.WithLabelValues(code).Inc()
		retryBackoffSeconds.WithLabelValues(code).Observe(delay.Seconds())

		e.logger.Debug().
			Str("error_code", code).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	code := errorCode(lastErr)
	retryExhaustedTotal.WithLabelValues(code).Inc()
	e.logger.Warn().
		Str("error_code", code).
		Int("max_attempts", e.MaxAttempts).
		Err(lastErr).
		Msg("Retry attempts exhausted")

	return lastErr
}

// backoff computes the wait before retrying the given 0-indexed attempt.
// A Retry-After carried by the error overrides the exponential schedule
// exactly, with no jitter.
func (e *Executor) backoff(attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	base := e.InitialBackoff * (1 << attempt)
	return base + time.Duration(rand.Int63n(int64(maxJitter)))
}

// IsRetryable reports whether an error is worth another attempt.
// Anything that is not a classified retryable APIError is treated as
// fatal; domain-level absence markers in particular are never retried.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

func errorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Code)
	}
	return "unknown"
}
