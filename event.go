package eventry

import (
	"time"

	"github.com/google/uuid"
)

// StoredEvent is the persisted form of a domain event after the Mapper
// pipeline has transcoded, optionally compressed, and optionally encrypted
// its fields. Once inserted by a Recorder, a StoredEvent is immutable.
type StoredEvent struct {
	// OriginatorID identifies the aggregate this event belongs to.
	OriginatorID uuid.UUID

	// OriginatorVersion is this event's position in the aggregate's
	// history. For a given OriginatorID, versions are dense, strictly
	// increasing, and gap-free under any interleaving of writers.
	OriginatorVersion uint64

	// Topic is a stable, fully-qualified label identifying the concrete
	// domain event type, used by the Mapper to reconstruct it on read.
	Topic string

	// State is the opaque payload produced by the transcoding pipeline.
	State []byte
}

// Notification is a StoredEvent annotated with a global, monotonically
// assigned ID. Only an ApplicationRecorder assigns these.
type Notification struct {
	StoredEvent

	// ID is strictly increasing across the entire ApplicationRecorder and
	// gap-free as observed by any reader: once a reader sees ID = N+1,
	// ID = N is already visible.
	ID uint64
}

// Tracking records that ApplicationName has consumed NotificationID from an
// upstream ApplicationRecorder. A ProcessRecorder rejects a second Tracking
// insert for the same (ApplicationName, NotificationID) pair.
type Tracking struct {
	ApplicationName string
	NotificationID  uint64
}

// DomainEvent is the minimal shape the Mapper requires of an external
// domain event. Event subtypes carry arbitrary transcoded fields beyond
// this header; the Mapper serializes header and fields together as one
// record: a plain mapping of the header values plus a "fields" mapping.
type DomainEvent interface {
	// EventOriginatorID is the aggregate this event applies to.
	EventOriginatorID() uuid.UUID

	// EventOriginatorVersion is this event's position in the aggregate's
	// history.
	EventOriginatorVersion() uint64

	// EventTimestamp is when the event occurred.
	EventTimestamp() time.Time
}

// Topical is implemented by domain event types that want to pin their own
// wire topic instead of letting the Mapper derive one by reflection.
type Topical interface {
	// Topic returns a stable, fully-qualified label for this event type.
	Topic() string
}
