package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/zoobzio/eventry"
)

// InstrumentedRecorder wraps an eventry.ProcessRecorder, recording
// EventsInsertedTotal, IntegrityViolationsTotal, and InsertDuration around
// every insert.
type InstrumentedRecorder struct {
	eventry.ProcessRecorder
	backend string
}

// Instrument wraps rec, labeling its InsertDuration observations with
// backend (e.g. "memory" or "postgres").
func Instrument(rec eventry.ProcessRecorder, backend string) *InstrumentedRecorder {
	return &InstrumentedRecorder{ProcessRecorder: rec, backend: backend}
}

func (r *InstrumentedRecorder) InsertEvents(ctx context.Context, events []eventry.StoredEvent) ([]uint64, error) {
	start := time.Now()
	ids, err := r.ProcessRecorder.InsertEvents(ctx, events)
	r.observe(events, "aggregate", start, err)
	return ids, err
}

func (r *InstrumentedRecorder) InsertEventsWithTracking(ctx context.Context, events []eventry.StoredEvent, tracking *eventry.Tracking) ([]uint64, error) {
	start := time.Now()
	ids, err := r.ProcessRecorder.InsertEventsWithTracking(ctx, events, tracking)
	r.observe(events, "tracking", start, err)
	return ids, err
}

func (r *InstrumentedRecorder) observe(events []eventry.StoredEvent, kind string, start time.Time, err error) {
	ObserveInsert(r.backend, start)

	var integrityErr *eventry.IntegrityError
	if errors.As(err, &integrityErr) {
		IntegrityViolationsTotal.WithLabelValues(kind).Inc()
		return
	}
	if err != nil {
		return
	}
	for _, e := range events {
		EventsInsertedTotal.WithLabelValues(e.Topic).Inc()
	}
}

var _ eventry.ProcessRecorder = (*InstrumentedRecorder)(nil)
