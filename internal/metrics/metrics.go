package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AssignmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_index_assignments_total",
		Help: "Total point records processed, by assignment outcome",
	}, []string{"outcome"})
	BatchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "region_index_batch_duration_ms",
		Help:    "Batch assignment duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	})
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_index_lookups_total",
		Help: "Total single point lookups served over HTTP, by number of matches",
	}, []string{"matches"})
)

func init() {
	prometheus.MustRegister(AssignmentsTotal)
	prometheus.MustRegister(BatchDurationMs)
	prometheus.MustRegister(LookupsTotal)
}

func ObserveBatch(missing, unmatched, matched, multi int, elapsed time.Duration) {
	AssignmentsTotal.WithLabelValues("missing").Add(float64(missing))
	AssignmentsTotal.WithLabelValues("unmatched").Add(float64(unmatched))
	AssignmentsTotal.WithLabelValues("matched").Add(float64(matched))
	AssignmentsTotal.WithLabelValues("multi").Add(float64(multi))
	BatchDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveLookup(matches int) {
	label := "none"
	switch {
	case matches == 1:
		label = "one"
	case matches > 1:
		label = "many"
	}
	LookupsTotal.WithLabelValues(label).Inc()
}
