// Package metrics provides the centralized Prometheus registry reference for
// the external-API client. Metrics are defined in pkg/client next to the
// code that records them; this package documents what is exposed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in pkg/client.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - extapi_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - extapi_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - extapi_errors_total{class} (Counter): Errors by class (timeout, network, rate_limit, server, auth, validation)
//   - extapi_pages_fetched_total (Counter): Listing pages fetched
//
// Retry Metrics (pkg/client):
//   - extapi_retries_total{error_class} (Counter): Retry attempts by error class
//   - extapi_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - extapi_retry_exhausted_total{error_class} (Counter): Operations that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(extapi_errors_total[5m])
//
//   # Retry Exhaustion Rate by Class
//   rate(extapi_retry_exhausted_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(extapi_request_duration_seconds_bucket[5m]))
