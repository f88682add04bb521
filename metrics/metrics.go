// Package metrics exposes Prometheus collectors for the mapper and
// recorder pipeline, registered against a caller-supplied registry so a
// host application controls where /metrics is served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EventsInsertedTotal counts events successfully persisted, labeled by
	// topic.
	EventsInsertedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventry_events_inserted_total",
			Help: "Total number of events persisted by a recorder",
		},
		[]string{"topic"},
	)

	// IntegrityViolationsTotal counts rejected inserts caused by a
	// uniqueness conflict, labeled by kind: "aggregate" for InsertEvents
	// calls, "tracking" for InsertEventsWithTracking calls (whichever
	// uniqueness rule the rejected call broke).
	IntegrityViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventry_integrity_violations_total",
			Help: "Total number of InsertEvents calls rejected for a uniqueness conflict",
		},
		[]string{"kind"},
	)

	// PipelineErrorsTotal counts mapper-stage failures, labeled by stage
	// (transcode, compress, encrypt) and direction (encode or decode).
	PipelineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventry_pipeline_errors_total",
			Help: "Total number of pipeline stage failures",
		},
		[]string{"stage", "direction"},
	)

	// InsertDuration observes how long InsertEvents takes, labeled by
	// backend (memory or postgres).
	InsertDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventry_insert_duration_seconds",
			Help:    "Time spent in a recorder's InsertEvents call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// NotificationLagSeconds is the age of the most recently assigned
	// notification ID relative to MaxNotificationID, sampled by pollers.
	NotificationLagSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventry_notification_lag_seconds",
			Help: "Age in seconds of the most recently observed notification",
		},
		[]string{"application_name"},
	)
)

// Collectors returns every collector this package defines, for
// registration against a prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		EventsInsertedTotal,
		IntegrityViolationsTotal,
		PipelineErrorsTotal,
		InsertDuration,
		NotificationLagSeconds,
	}
}

// Register adds every collector in this package to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveInsert records InsertDuration for backend, measured from start.
func ObserveInsert(backend string, start time.Time) {
	InsertDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
