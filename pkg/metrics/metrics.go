// Package metrics holds the Prometheus registry shared by the fetcher packages.
// Metrics themselves are defined in the packages that own them (client,
// pagination, snapshot) to avoid circular dependencies.
//
// Fetchers are short-lived batch processes, so instead of a scrape endpoint
// the collected metrics can be dumped to a node_exporter textfile at exit.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registerer all promauto metrics land in.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer WriteTextfile reads from.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes the current metric values to path in the Prometheus
// text format. The write is atomic (temp file + rename). An empty path is a
// no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - dropstab_requests_total{endpoint, status} (Counter)
//   - dropstab_request_duration_seconds{endpoint} (Histogram)
//   - dropstab_rate_limited_total{endpoint} (Counter): 429 responses that triggered the retry
//   - dropstab_retry_after_seconds (Histogram): Retry-After waits
//   - dropstab_cache_hits_total / dropstab_cache_misses_total (Counter)
//   - dropstab_cache_errors_total{operation} (Counter)
//
// Pagination Metrics (pkg/pagination):
//   - dropstab_pages_fetched_total{endpoint} (Counter)
//   - dropstab_items_fetched_total{endpoint} (Counter)
//
// Snapshot Metrics (pkg/snapshot):
//   - dropstab_snapshots_written_total{sink} (Counter)
//   - dropstab_snapshot_errors_total{sink} (Counter)
//   - dropstab_snapshot_bytes (Histogram)
//
// Orchestrator Metrics (internal/orchestrator):
//   - dropstab_orchestrator_steps_total{step, result} (Counter)
//   - dropstab_orchestrator_step_duration_seconds{step} (Histogram)
