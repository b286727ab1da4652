package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// indexMetrics mirrors the shape of dreamsxin-wal's walMetrics: counters
// for the events that matter operationally (ingestion, rollover, queries,
// label mutation) plus a gauge for the current segment count. A nil
// Registerer at construction time yields a metrics struct that still
// works (promauto just never publishes), so embedding the library never
// forces Prometheus on a caller that doesn't want it.
type indexMetrics struct {
	entriesAdded    prometheus.Counter
	rollovers       prometheus.Counter
	queriesRun      prometheus.Counter
	labelsAdded     prometheus.Counter
	labelsRemoved   prometheus.Counter
	segmentsCurrent prometheus.Gauge
}

func newIndexMetrics(reg prometheus.Registerer) *indexMetrics {
	return &indexMetrics{
		entriesAdded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "segdex_entries_added_total",
			Help: "Number of entries successfully ingested via AddEntry.",
		}),
		rollovers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "segdex_segment_rollovers_total",
			Help: "Number of times AddEntry created a new tail segment.",
		}),
		queriesRun: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "segdex_queries_run_total",
			Help: "Number of RunQuery calls, including resumed batches of the same query.",
		}),
		labelsAdded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "segdex_labels_added_total",
			Help: "Number of successful AddLabel calls.",
		}),
		labelsRemoved: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "segdex_labels_removed_total",
			Help: "Number of successful RemoveLabel calls.",
		}),
		segmentsCurrent: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "segdex_segments",
			Help: "Current number of segments owned by the index.",
		}),
	}
}
