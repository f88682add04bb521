package eventry

import (
	"context"

	"github.com/google/uuid"
)

// SelectEventsOptions bounds a SelectEvents query.
type SelectEventsOptions struct {
	// GT is an exclusive lower bound on OriginatorVersion. Nil means
	// unbounded.
	GT *uint64

	// LTE is an inclusive upper bound on OriginatorVersion. Nil means
	// unbounded.
	LTE *uint64

	// Desc orders results by descending OriginatorVersion when true
	// (ascending is the default).
	Desc bool

	// Limit truncates the result. Nil means unbounded.
	Limit *int
}

// SelectNotificationsOptions bounds a SelectNotifications query.
type SelectNotificationsOptions struct {
	// Start is the inclusive lower bound on Notification.ID.
	Start uint64

	// Stop is the inclusive upper bound on Notification.ID. Nil means
	// unbounded.
	Stop *uint64

	// Limit truncates the result, ordered ascending by ID.
	Limit int

	// Topics, if non-empty, restricts results to these topics.
	Topics []string
}

// AggregateRecorder is a per-aggregate append-only log with optimistic
// concurrency. Implementations must be safe for concurrent use from any
// number of goroutines.
//
// AggregateRecorder is the narrowest of the three recorder contracts. Go's
// single-signature-per-method-name rule means a Go interface cannot express
// "ApplicationRecorder is an AggregateRecorder whose InsertEvents also
// returns notification IDs" via embedding, the way the underlying model
// extends it conceptually: the richer tiers below intentionally use
// InsertEvents with a different return shape and are NOT declared to embed
// AggregateRecorder. Use AsAggregateRecorder to view an ApplicationRecorder
// through this narrower contract.
type AggregateRecorder interface {
	// InsertEvents persists events atomically: either all are persisted or
	// none are. An empty slice is a no-op that succeeds. Inserting an event
	// whose (OriginatorID, OriginatorVersion) already exists, or a batch
	// that would violate that uniqueness, fails the whole call with an
	// *IntegrityError and leaves the store unchanged.
	InsertEvents(ctx context.Context, events []StoredEvent) error

	// SelectEvents returns events for one aggregate ordered by
	// OriginatorVersion (ascending unless opts.Desc), bounded by opts.GT
	// (exclusive) and opts.LTE (inclusive), truncated to opts.Limit.
	SelectEvents(ctx context.Context, originatorID uuid.UUID, opts SelectEventsOptions) ([]StoredEvent, error)
}

// ApplicationRecorder is an AggregateRecorder plus a global notification
// log whose IDs are strictly increasing and gap-free as observed by any
// reader: two concurrent InsertEvents batches are assigned two contiguous,
// non-interleaving ID ranges.
type ApplicationRecorder interface {
	// InsertEvents persists events exactly as AggregateRecorder.InsertEvents
	// does, additionally returning the notification ID assigned to each
	// event, in input order.
	InsertEvents(ctx context.Context, events []StoredEvent) ([]uint64, error)

	// SelectEvents is identical to AggregateRecorder.SelectEvents.
	SelectEvents(ctx context.Context, originatorID uuid.UUID, opts SelectEventsOptions) ([]StoredEvent, error)

	// MaxNotificationID returns the largest assigned notification ID, or 0
	// if none have been assigned.
	MaxNotificationID(ctx context.Context) (uint64, error)

	// SelectNotifications returns notifications bounded by opts, ordered
	// ascending by ID.
	SelectNotifications(ctx context.Context, opts SelectNotificationsOptions) ([]Notification, error)
}

// ProcessRecorder is an ApplicationRecorder plus durable tracking of
// consumed upstream positions, enabling idempotent cross-application event
// processing.
type ProcessRecorder interface {
	ApplicationRecorder

	// InsertEventsWithTracking persists events exactly as
	// ApplicationRecorder.InsertEvents does; when tracking is non-nil, its
	// (ApplicationName, NotificationID) pair is persisted atomically with
	// the events. A duplicate tracking pair fails the whole call with an
	// *IntegrityError, and the events are not persisted. An empty events
	// slice with a non-nil tracking token is legal: it records consumption
	// of an upstream event that produced no downstream effect.
	InsertEventsWithTracking(ctx context.Context, events []StoredEvent, tracking *Tracking) ([]uint64, error)

	// MaxTrackingID returns the largest NotificationID tracked for
	// applicationName, or 0 if none.
	MaxTrackingID(ctx context.Context, applicationName string) (uint64, error)

	// HasTrackingID reports whether (applicationName, notificationID) has
	// already been tracked.
	HasTrackingID(ctx context.Context, applicationName string, notificationID uint64) (bool, error)
}

// aggregateView adapts an ApplicationRecorder to the narrower
// AggregateRecorder contract, discarding assigned notification IDs.
type aggregateView struct {
	ar ApplicationRecorder
}

// AsAggregateRecorder views ar through the narrower AggregateRecorder
// contract.
func AsAggregateRecorder(ar ApplicationRecorder) AggregateRecorder {
	return aggregateView{ar: ar}
}

func (a aggregateView) InsertEvents(ctx context.Context, events []StoredEvent) error {
	_, err := a.ar.InsertEvents(ctx, events)
	return err
}

func (a aggregateView) SelectEvents(ctx context.Context, originatorID uuid.UUID, opts SelectEventsOptions) ([]StoredEvent, error) {
	return a.ar.SelectEvents(ctx, originatorID, opts)
}
