// Package metrics provides the central Prometheus registry reference for
// the dashboard core. All metrics are defined in their respective
// packages (client, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the dashboard core.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - wikidash_rate_limit_wait_seconds (Histogram): Time spent waiting for the limiter
//   - wikidash_rate_limit_acquires_total (Counter): Limiter acquisitions
//
// Cache Metrics (pkg/cache):
//   - wikidash_cache_hits_total{cache} (Counter): Fresh cache hits
//   - wikidash_cache_misses_total{cache} (Counter): Absent or expired reads
//   - wikidash_cache_evictions_total{cache} (Counter): Lazy evictions on read
//   - wikidash_cache_entries{cache} (Gauge): Current entries per cache
//
// Request Metrics (pkg/client):
//   - wikidash_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and status
//   - wikidash_request_duration_seconds{endpoint} (Histogram): Upstream request duration
//   - wikidash_errors_total{code} (Counter): Errors by code (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - wikidash_retries_total{error_code} (Counter): Retry attempts by error code
//   - wikidash_retry_backoff_seconds{error_code} (Histogram): Backoff duration before retries
//   - wikidash_retry_exhausted_total{error_code} (Counter): Requests that exhausted max attempts
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(wikidash_cache_hits_total[5m])) /
//   (sum(rate(wikidash_cache_hits_total[5m])) + sum(rate(wikidash_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(wikidash_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(wikidash_request_duration_seconds_bucket[5m]))
