// Package metrics provides the centralized Prometheus metrics registry for
// the client. All metrics are defined in their respective packages (client,
// keypool) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - yt_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - yt_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - yt_errors_total{class} (Counter): Errors by class (quota, client, server, network, parse)
//   - yt_attempts_exhausted_total (Counter): Calls that burned through every key in the pool
//
// Key Pool Metrics (pkg/keypool):
//   - yt_key_rotations_total{reason} (Counter): Cursor rotations by reason
//   - yt_keys_remaining (Gauge): Non-exhausted keys left in the pool
//   - yt_cursor_persist_errors_total (Counter): Failed best-effort cursor writes
//
// Example Prometheus Queries:
//
//   # Quota exhaustion rate
//   rate(yt_key_rotations_total{reason="quota_exceeded"}[1h])
//
//   # Keys still usable
//   yt_keys_remaining
//
//   # Request error rate
//   rate(yt_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(yt_request_duration_seconds_bucket[5m]))
