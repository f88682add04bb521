// Package cargotest is an internal, deliberately small cargo-shipping
// aggregate used to exercise the mapper and recorder packages end to end.
// It has no purpose outside this module's own tests.
package cargotest

import (
	"time"

	"github.com/google/uuid"
)

// HandlingActivity is a step in a cargo's itinerary.
type HandlingActivity struct {
	Type     string // LOAD, UNLOAD, RECEIVE, CLAIM
	Location string
	Voyage   string
}

// Cargo is the aggregate reconstructed by folding its event history.
type Cargo struct {
	ID                     uuid.UUID
	Origin                 string
	Destination            string
	TransportStatus        string
	LastKnownLocation      string
	Misdirected            bool
	NextExpected           *HandlingActivity
	EstimatedTimeOfArrival time.Time
	Version                uint64
}

// Apply folds event onto the aggregate in place, advancing Version.
func (c *Cargo) Apply(event any) {
	switch e := event.(type) {
	case *CargoBooked:
		c.ID = e.originatorID
		c.Origin = e.Origin
		c.Destination = e.Destination
		c.TransportStatus = "NOT_RECEIVED"
	case *CargoRouted:
		c.NextExpected = &HandlingActivity{Type: "RECEIVE", Location: c.Origin}
		c.Misdirected = false
		c.EstimatedTimeOfArrival = time.Now().Add(7 * 24 * time.Hour)
	case *CargoHandled:
		c.LastKnownLocation = e.Location
		c.TransportStatus = handlingStatus(e.Activity)
		c.Misdirected = e.Misdirected
		c.NextExpected = e.NextExpected
	}
	c.Version = eventVersion(event)
}

func handlingStatus(activity string) string {
	switch activity {
	case "RECEIVE":
		return "IN_PORT"
	case "LOAD":
		return "ONBOARD_CARRIER"
	case "UNLOAD":
		return "IN_PORT"
	case "CLAIM":
		return "CLAIMED"
	default:
		return "UNKNOWN"
	}
}

func eventVersion(event any) uint64 {
	switch e := event.(type) {
	case *CargoBooked:
		return e.originatorVersion
	case *CargoRouted:
		return e.originatorVersion
	case *CargoHandled:
		return e.originatorVersion
	default:
		return 0
	}
}

// Replay reconstructs a Cargo by applying events in order. events must
// already be sorted by OriginatorVersion ascending.
func Replay(events []any) *Cargo {
	c := &Cargo{}
	for _, e := range events {
		c.Apply(e)
	}
	return c
}

// eventHeader is embedded by every concrete event type to satisfy
// eventry.DomainEvent without repeating the same three methods on each.
type eventHeader struct {
	originatorID      uuid.UUID
	originatorVersion uint64
	timestamp         time.Time
}

func (h eventHeader) EventOriginatorID() uuid.UUID   { return h.originatorID }
func (h eventHeader) EventOriginatorVersion() uint64 { return h.originatorVersion }
func (h eventHeader) EventTimestamp() time.Time      { return h.timestamp }

// CargoBooked is raised when a new cargo is booked for shipment.
type CargoBooked struct {
	eventHeader
	Origin      string
	Destination string
}

func (CargoBooked) Topic() string { return "cargotest.cargo_booked" }

func (e *CargoBooked) EventFields() map[string]any {
	return map[string]any{"origin": e.Origin, "destination": e.Destination}
}

// CargoRouted is raised when an itinerary is assigned or reassigned.
type CargoRouted struct {
	eventHeader
	Legs []string
}

func (CargoRouted) Topic() string { return "cargotest.cargo_routed" }

func (e *CargoRouted) EventFields() map[string]any {
	legs := make([]any, len(e.Legs))
	for i, l := range e.Legs {
		legs[i] = l
	}
	return map[string]any{"legs": legs}
}

// CargoHandled is raised whenever a physical handling event occurs:
// receive, load, unload, or claim.
type CargoHandled struct {
	eventHeader
	Activity     string
	Location     string
	Voyage       string
	Misdirected  bool
	NextExpected *HandlingActivity
}

func (CargoHandled) Topic() string { return "cargotest.cargo_handled" }

func (e *CargoHandled) EventFields() map[string]any {
	fields := map[string]any{
		"activity":    e.Activity,
		"location":    e.Location,
		"voyage":      e.Voyage,
		"misdirected": e.Misdirected,
	}
	if e.NextExpected != nil {
		fields["next_type"] = e.NextExpected.Type
		fields["next_location"] = e.NextExpected.Location
		fields["next_voyage"] = e.NextExpected.Voyage
	}
	return fields
}
