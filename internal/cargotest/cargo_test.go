package cargotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zoobzio/eventry"
	"github.com/zoobzio/eventry/recorder/memory"
	"github.com/zoobzio/eventry/transcoder"
)

// TestShippingScenario books, routes, and handles a cargo through a
// misdirection and re-route, persists every event through the full
// Mapper -> memory.Recorder pipeline, then replays the stored events and
// confirms the reconstructed aggregate matches the expected final state
// exactly.
func TestShippingScenario(t *testing.T) {
	mapper := eventry.NewMapper(transcoder.New(), nil, nil)
	Register(mapper)

	rec := memory.New()
	ctx := context.Background()
	cargoID := uuid.New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	raw := []eventry.FieldedEvent{
		&CargoBooked{
			eventHeader: eventHeader{originatorID: cargoID, originatorVersion: 0, timestamp: now},
			Origin:      "HONGKONG", Destination: "STOCKHOLM",
		},
		&CargoRouted{
			eventHeader: eventHeader{originatorID: cargoID, originatorVersion: 1, timestamp: now},
			Legs:        []string{"HONGKONG-NEWYORK", "NEWYORK-STOCKHOLM"},
		},
		&CargoHandled{ // receive at HONGKONG -> next = LOAD/HONGKONG/V1
			eventHeader:  eventHeader{originatorID: cargoID, originatorVersion: 2, timestamp: now},
			Activity:     "RECEIVE",
			Location:     "HONGKONG",
			NextExpected: &HandlingActivity{Type: "LOAD", Location: "HONGKONG", Voyage: "V1"},
		},
		&CargoHandled{ // load V1 at HONGKONG -> next = UNLOAD/NEWYORK/V1
			eventHeader:  eventHeader{originatorID: cargoID, originatorVersion: 3, timestamp: now},
			Activity:     "LOAD",
			Location:     "HONGKONG",
			Voyage:       "V1",
			NextExpected: &HandlingActivity{Type: "UNLOAD", Location: "NEWYORK", Voyage: "V1"},
		},
		&CargoHandled{ // unload in TOKYO: misdirected, next = None
			eventHeader: eventHeader{originatorID: cargoID, originatorVersion: 4, timestamp: now},
			Activity:    "UNLOAD",
			Location:    "TOKYO",
			Voyage:      "V1",
			Misdirected: true,
		},
		&CargoRouted{ // re-route
			eventHeader: eventHeader{originatorID: cargoID, originatorVersion: 5, timestamp: now},
			Legs:        []string{"TOKYO-HAMBURG", "HAMBURG-STOCKHOLM"},
		},
		&CargoHandled{ // load V3 in TOKYO: no longer misdirected, next = UNLOAD/HAMBURG/V3
			eventHeader:  eventHeader{originatorID: cargoID, originatorVersion: 6, timestamp: now},
			Activity:     "LOAD",
			Location:     "TOKYO",
			Voyage:       "V3",
			NextExpected: &HandlingActivity{Type: "UNLOAD", Location: "HAMBURG", Voyage: "V3"},
		},
		&CargoHandled{ // unload in HAMBURG
			eventHeader:  eventHeader{originatorID: cargoID, originatorVersion: 7, timestamp: now},
			Activity:     "UNLOAD",
			Location:     "HAMBURG",
			Voyage:       "V3",
			NextExpected: &HandlingActivity{Type: "CLAIM", Location: "STOCKHOLM"},
		},
		&CargoHandled{ // claim in STOCKHOLM
			eventHeader: eventHeader{originatorID: cargoID, originatorVersion: 8, timestamp: now},
			Activity:    "CLAIM",
			Location:    "STOCKHOLM",
		},
	}

	stored := make([]eventry.StoredEvent, len(raw))
	for i, e := range raw {
		s, err := mapper.ToStoredEvent(e)
		if err != nil {
			t.Fatalf("ToStoredEvent(%d): %v", i, err)
		}
		stored[i] = s
	}

	if _, err := rec.InsertEvents(ctx, stored); err != nil {
		t.Fatalf("InsertEvents: %v", err)
	}

	selected, err := rec.SelectEvents(ctx, cargoID, eventry.SelectEventsOptions{})
	if err != nil {
		t.Fatalf("SelectEvents: %v", err)
	}
	if len(selected) != len(raw) {
		t.Fatalf("expected %d events, got %d", len(raw), len(selected))
	}

	replayed := make([]any, len(selected))
	for i, s := range selected {
		domainEvent, err := mapper.ToDomainEvent(s)
		if err != nil {
			t.Fatalf("ToDomainEvent(%d): %v", i, err)
		}
		replayed[i] = domainEvent
	}

	cargo := Replay(replayed)

	if cargo.TransportStatus != "CLAIMED" {
		t.Errorf("TransportStatus = %q, want CLAIMED", cargo.TransportStatus)
	}
	if cargo.LastKnownLocation != "STOCKHOLM" {
		t.Errorf("LastKnownLocation = %q, want STOCKHOLM", cargo.LastKnownLocation)
	}
	if cargo.NextExpected != nil {
		t.Errorf("NextExpected = %+v, want nil", cargo.NextExpected)
	}
	if cargo.Misdirected {
		t.Error("Misdirected = true, want false")
	}
	if cargo.Version != 8 {
		t.Errorf("Version = %d, want 8", cargo.Version)
	}
	if cargo.EstimatedTimeOfArrival.IsZero() {
		t.Error("EstimatedTimeOfArrival was never set")
	}
	if until := time.Until(cargo.EstimatedTimeOfArrival); until < 6*24*time.Hour || until > 7*24*time.Hour {
		t.Errorf("EstimatedTimeOfArrival = %v, want roughly now+1week", cargo.EstimatedTimeOfArrival)
	}
}

// TestMisdirectedIntermediateState confirms the aggregate reports
// misdirected=true and no expected next activity immediately after an
// unexpected unload, before the re-route is applied.
func TestMisdirectedIntermediateState(t *testing.T) {
	cargoID := uuid.New()
	now := time.Now().UTC()

	events := []any{
		&CargoBooked{eventHeader: eventHeader{originatorID: cargoID, originatorVersion: 0, timestamp: now}, Origin: "HONGKONG", Destination: "STOCKHOLM"},
		&CargoHandled{
			eventHeader: eventHeader{originatorID: cargoID, originatorVersion: 1, timestamp: now},
			Activity:    "UNLOAD",
			Location:    "TOKYO",
			Misdirected: true,
		},
	}

	cargo := Replay(events)
	if !cargo.Misdirected {
		t.Error("expected Misdirected = true")
	}
	if cargo.NextExpected != nil {
		t.Errorf("expected NextExpected = nil, got %+v", cargo.NextExpected)
	}
}
