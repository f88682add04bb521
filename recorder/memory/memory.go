// Package memory provides an in-process Recorder backed by plain Go maps
// and slices, useful for tests and single-process deployments that do not
// need durability across restarts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/zoobzio/eventry"
)

// Recorder implements eventry.AggregateRecorder, eventry.ApplicationRecorder,
// and eventry.ProcessRecorder over in-memory state. A single mutex guards
// all state: every InsertEvents call, regardless of aggregate, is
// serialized, which is what makes the assigned notification ID ranges for
// two concurrent batches contiguous and non-interleaving.
type Recorder struct {
	mu sync.Mutex

	byAggregate map[uuid.UUID][]eventry.StoredEvent
	versions    map[uuid.UUID]map[uint64]struct{}

	notifications []eventry.Notification
	nextID        uint64

	tracked map[string]map[uint64]struct{}
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{
		byAggregate: make(map[uuid.UUID][]eventry.StoredEvent),
		versions:    make(map[uuid.UUID]map[uint64]struct{}),
		tracked:     make(map[string]map[uint64]struct{}),
	}
}

// InsertEvents implements eventry.ApplicationRecorder.
func (r *Recorder) InsertEvents(_ context.Context, events []eventry.StoredEvent) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(events, nil)
}

// InsertEventsWithTracking implements eventry.ProcessRecorder.
func (r *Recorder) InsertEventsWithTracking(_ context.Context, events []eventry.StoredEvent, tracking *eventry.Tracking) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(events, tracking)
}

func (r *Recorder) insertLocked(events []eventry.StoredEvent, tracking *eventry.Tracking) ([]uint64, error) {
	if tracking != nil {
		seen := r.tracked[tracking.ApplicationName]
		if seen != nil {
			if _, dup := seen[tracking.NotificationID]; dup {
				return nil, eventry.NewIntegrityError(
					fmt.Sprintf("application=%s notification_id=%d", tracking.ApplicationName, tracking.NotificationID), nil)
			}
		}
	}

	type slot struct {
		id      uuid.UUID
		version uint64
	}
	inBatch := make(map[slot]struct{}, len(events))
	for _, e := range events {
		versions := r.versions[e.OriginatorID]
		_, dupInBatch := inBatch[slot{e.OriginatorID, e.OriginatorVersion}]
		_, dupStored := versions[e.OriginatorVersion]
		if dupInBatch || dupStored {
			return nil, eventry.NewIntegrityError(
				fmt.Sprintf("originator_id=%s originator_version=%d", e.OriginatorID, e.OriginatorVersion), nil)
		}
		inBatch[slot{e.OriginatorID, e.OriginatorVersion}] = struct{}{}
	}

	ids := make([]uint64, len(events))
	for i, e := range events {
		r.nextID++
		id := r.nextID

		if r.versions[e.OriginatorID] == nil {
			r.versions[e.OriginatorID] = make(map[uint64]struct{})
		}
		r.versions[e.OriginatorID][e.OriginatorVersion] = struct{}{}
		r.byAggregate[e.OriginatorID] = append(r.byAggregate[e.OriginatorID], e)

		r.notifications = append(r.notifications, eventry.Notification{StoredEvent: e, ID: id})
		ids[i] = id
	}

	if tracking != nil {
		if r.tracked[tracking.ApplicationName] == nil {
			r.tracked[tracking.ApplicationName] = make(map[uint64]struct{})
		}
		r.tracked[tracking.ApplicationName][tracking.NotificationID] = struct{}{}
	}

	return ids, nil
}

// SelectEvents implements eventry.AggregateRecorder.
func (r *Recorder) SelectEvents(_ context.Context, originatorID uuid.UUID, opts eventry.SelectEventsOptions) ([]eventry.StoredEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.byAggregate[originatorID]
	out := make([]eventry.StoredEvent, 0, len(all))
	for _, e := range all {
		if opts.GT != nil && e.OriginatorVersion <= *opts.GT {
			continue
		}
		if opts.LTE != nil && e.OriginatorVersion > *opts.LTE {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if opts.Desc {
			return out[i].OriginatorVersion > out[j].OriginatorVersion
		}
		return out[i].OriginatorVersion < out[j].OriginatorVersion
	})
	if opts.Limit != nil && len(out) > *opts.Limit {
		out = out[:*opts.Limit]
	}
	return out, nil
}

// MaxNotificationID implements eventry.ApplicationRecorder.
func (r *Recorder) MaxNotificationID(_ context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID, nil
}

// SelectNotifications implements eventry.ApplicationRecorder.
func (r *Recorder) SelectNotifications(_ context.Context, opts eventry.SelectNotificationsOptions) ([]eventry.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	topics := make(map[string]struct{}, len(opts.Topics))
	for _, t := range opts.Topics {
		topics[t] = struct{}{}
	}

	out := make([]eventry.Notification, 0)
	for _, n := range r.notifications {
		if n.ID < opts.Start {
			continue
		}
		if opts.Stop != nil && n.ID > *opts.Stop {
			break
		}
		if len(topics) > 0 {
			if _, ok := topics[n.Topic]; !ok {
				continue
			}
		}
		out = append(out, n)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// MaxTrackingID implements eventry.ProcessRecorder.
func (r *Recorder) MaxTrackingID(_ context.Context, applicationName string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var max uint64
	for id := range r.tracked[applicationName] {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// HasTrackingID implements eventry.ProcessRecorder.
func (r *Recorder) HasTrackingID(_ context.Context, applicationName string, notificationID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := r.tracked[applicationName]
	if seen == nil {
		return false, nil
	}
	_, ok := seen[notificationID]
	return ok, nil
}

var (
	_ eventry.ApplicationRecorder = (*Recorder)(nil)
	_ eventry.ProcessRecorder     = (*Recorder)(nil)
)
