package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Searches answered, by the stage that produced the results",
		},
		[]string{"stage"}, // "name" / "semantic" / "unavailable"
	)

	QuotaRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Searches rejected because the client exhausted its quota",
		},
	)
)

var searchOnce sync.Once

// RegisterSearchMetrics registers the search metrics on the default registry.
// Safe to call more than once.
func RegisterSearchMetrics() {
	searchOnce.Do(func() {
		prometheus.MustRegister(SearchTotal, QuotaRejectionsTotal)
	})
}

// StageRecorder counts search outcomes per stage.
type StageRecorder struct{}

// RecordStage increments the counter for stage.
func (StageRecorder) RecordStage(stage string) {
	SearchTotal.WithLabelValues(stage).Inc()
}

// RecordQuotaRejection counts one rejected search.
func RecordQuotaRejection() {
	QuotaRejectionsTotal.Inc()
}
