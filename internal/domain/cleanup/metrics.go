package cleanup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropapp_cleanup_runs_total",
		Help: "Cleanup runs by outcome.",
	}, []string{"outcome"})

	recordsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dropapp_cleanup_records_processed_total",
		Help: "Expired generation records selected for cleanup.",
	})

	recordsCleanedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dropapp_cleanup_records_cleaned_total",
		Help: "Generation records whose asset URL was cleared.",
	})

	objectsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dropapp_cleanup_objects_removed_total",
		Help: "Storage objects confirmed removed by the backend.",
	})

	storageFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dropapp_cleanup_storage_failures_total",
		Help: "Bulk storage deletes that failed and were skipped.",
	})

	runDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dropapp_cleanup_duration_seconds",
		Help:    "Duration of a cleanup run in seconds.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)
