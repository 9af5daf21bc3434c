package snapshot

import (
	"context"
	"fmt"

	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	snapshotsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropstab_snapshots_written_total",
		Help: "Snapshots persisted by sink",
	}, []string{"sink"})

	snapshotErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropstab_snapshot_errors_total",
		Help: "Failed snapshot writes by sink",
	}, []string{"sink"})

	snapshotBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dropstab_snapshot_bytes",
		Help:    "Encoded snapshot size in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})
)

// Sink persists an encoded snapshot under a filename.
type Sink interface {
	Name() string
	// Put stores data and returns where it was written.
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Writer encodes envelopes and writes them to every configured sink in order.
type Writer struct {
	sinks  []Sink
	logger zerolog.Logger
}

// NewWriter returns a writer for the given sinks. The first sink is the
// primary output; the rest are mirrors.
func NewWriter(sinks ...Sink) *Writer {
	return &Writer{
		sinks:  sinks,
		logger: logging.NewLogger("snapshot"),
	}
}

// Write encodes env and stores it as name in every sink. It stops at the
// first failing sink. The returned locations are in sink order.
func (w *Writer) Write(ctx context.Context, name string, env Envelope) ([]string, error) {
	if len(w.sinks) == 0 {
		return nil, fmt.Errorf("no snapshot sinks configured")
	}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}
	snapshotBytes.Observe(float64(len(data)))

	locations := make([]string, 0, len(w.sinks))
	for _, sink := range w.sinks {
		loc, err := sink.Put(ctx, name, data)
		if err != nil {
			snapshotErrors.WithLabelValues(sink.Name()).Inc()
			return locations, fmt.Errorf("%s sink: %w", sink.Name(), err)
		}
		snapshotsWritten.WithLabelValues(sink.Name()).Inc()
		w.logger.Debug().
			Str("sink", sink.Name()).
			Str("location", loc).
			Int("bytes", len(data)).
			Msg("Snapshot stored")
		locations = append(locations, loc)
	}
	return locations, nil
}
