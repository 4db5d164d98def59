package ingestion_engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// documentsTotal counts documents by outcome.
	// Labels: outcome (processed, illegible, code_not_found), strategy (contextual, fallback, fuzzy, none)
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackname",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Documents processed, by outcome and matching strategy",
		},
		[]string{"outcome", "strategy"},
	)

	// batchesTotal counts finished batches.
	// Labels: outcome (success, no_match, error)
	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackname",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Finished batches by outcome",
		},
		[]string{"outcome"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trackname",
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one batch from first document to packaged output",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	queuedBatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trackname",
			Subsystem: "ingest",
			Name:      "queued_batches",
			Help:      "Batches accepted but not yet picked up by a worker",
		},
	)
)
