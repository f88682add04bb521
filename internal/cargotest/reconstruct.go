package cargotest

import (
	"fmt"

	"github.com/zoobzio/eventry"
)

// Register wires every cargotest event topic into m.
func Register(m *eventry.Mapper) {
	m.Register((CargoBooked{}).Topic(), reconstructBooked)
	m.Register((CargoRouted{}).Topic(), reconstructRouted)
	m.Register((CargoHandled{}).Topic(), reconstructHandled)
}

func header(h eventry.EventHeader) eventHeader {
	return eventHeader{originatorID: h.OriginatorID, originatorVersion: h.OriginatorVersion, timestamp: h.Timestamp}
}

func reconstructBooked(h eventry.EventHeader, fields map[string]any) (eventry.DomainEvent, error) {
	origin, _ := fields["origin"].(string)
	destination, _ := fields["destination"].(string)
	return &CargoBooked{eventHeader: header(h), Origin: origin, Destination: destination}, nil
}

func reconstructRouted(h eventry.EventHeader, fields map[string]any) (eventry.DomainEvent, error) {
	rawLegs, _ := fields["legs"].([]any)
	legs := make([]string, len(rawLegs))
	for i, l := range rawLegs {
		s, ok := l.(string)
		if !ok {
			return nil, fmt.Errorf("cargo_routed: leg %d is %T, want string", i, l)
		}
		legs[i] = s
	}
	return &CargoRouted{eventHeader: header(h), Legs: legs}, nil
}

func reconstructHandled(h eventry.EventHeader, fields map[string]any) (eventry.DomainEvent, error) {
	activity, _ := fields["activity"].(string)
	location, _ := fields["location"].(string)
	voyage, _ := fields["voyage"].(string)
	misdirected, _ := fields["misdirected"].(bool)

	event := &CargoHandled{
		eventHeader: header(h),
		Activity:    activity,
		Location:    location,
		Voyage:      voyage,
		Misdirected: misdirected,
	}

	nextType, hasNext := fields["next_type"].(string)
	if hasNext {
		nextLocation, _ := fields["next_location"].(string)
		nextVoyage, _ := fields["next_voyage"].(string)
		event.NextExpected = &HandlingActivity{Type: nextType, Location: nextLocation, Voyage: nextVoyage}
	}

	return event, nil
}
