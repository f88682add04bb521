package transcoder

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestRoundTripPrimitives(t *testing.T) {
	tc := New()

	cases := []any{
		"hello",
		int64(42),
		3.14,
		true,
		nil,
	}
	for _, c := range cases {
		encoded, err := tc.Encode(c)
		if err != nil {
			t.Fatalf("Encode(%v): %v", c, err)
		}
		decoded, err := tc.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(%v): %v", c, err)
		}
		if decoded != c {
			t.Fatalf("round trip mismatch: got %#v (%T), want %#v (%T)", decoded, decoded, c, c)
		}
	}
}

func TestRoundTripUUID(t *testing.T) {
	tc := New()
	id := uuid.New()

	encoded, err := tc.Encode(id)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := tc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got, ok := decoded.(uuid.UUID)
	if !ok {
		t.Fatalf("decoded value is %T, want uuid.UUID", decoded)
	}
	if got != id {
		t.Fatalf("round trip mismatch: got %s, want %s", got, id)
	}
}

func TestRoundTripDecimal(t *testing.T) {
	tc := New()
	d := decimal.RequireFromString("19.99")

	encoded, err := tc.Encode(d)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := tc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(decimal.Decimal)
	if !ok {
		t.Fatalf("decoded value is %T, want decimal.Decimal", decoded)
	}
	if !got.Equal(d) {
		t.Fatalf("round trip mismatch: got %s, want %s", got, d)
	}
}

func TestRoundTripTimestamp(t *testing.T) {
	tc := New()
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	encoded, err := tc.Encode(ts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := tc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(time.Time)
	if !ok {
		t.Fatalf("decoded value is %T, want time.Time", decoded)
	}
	if !got.Equal(ts) {
		t.Fatalf("round trip mismatch: got %s, want %s", got, ts)
	}
}

// TestTagDisambiguation confirms a plain map that happens to carry the
// reserved tag keys alongside other keys is left untouched, while a map
// whose keys are exactly {_type_, _data_} is reconstructed via the
// registry.
func TestTagDisambiguation(t *testing.T) {
	tc := New()

	plain := map[string]any{
		"_type_": "not-a-real-tag",
		"_data_": "value",
		"extra":  "present",
	}
	encoded, err := tc.Encode(plain)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := tc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded value is %T, want map[string]any", decoded)
	}
	if m["extra"] != "present" {
		t.Fatalf("plain map with extra key was mistaken for a tagged value: %v", m)
	}
}

// TestNestedCustomType confirms a custom type nested inside a plain map
// and inside a Tuple round-trips correctly.
func TestNestedCustomType(t *testing.T) {
	tc := New()
	id := uuid.New()

	nested := map[string]any{
		"originator_id": id,
		"items":         Tuple{"a", int64(1), id},
	}

	encoded, err := tc.Encode(nested)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := tc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded value is %T, want map[string]any", decoded)
	}
	got, ok := m["originator_id"].(uuid.UUID)
	if !ok || got != id {
		t.Fatalf("nested uuid round trip mismatch: %v", m["originator_id"])
	}
	tup, ok := m["items"].(Tuple)
	if !ok || len(tup) != 3 {
		t.Fatalf("nested tuple round trip mismatch: %v", m["items"])
	}
	if got, ok := tup[2].(uuid.UUID); !ok || got != id {
		t.Fatalf("tuple element uuid round trip mismatch: %v", tup[2])
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	tc := New()
	_, err := tc.Decode([]byte(`{"_type_":"no-such-thing","_data_":"x"}`))
	if err == nil {
		t.Fatal("expected an error for an unknown _type_ tag")
	}
	if !errors.Is(err, ErrUnknownTag) {
		t.Errorf("expected errors.Is(err, ErrUnknownTag), got %v", err)
	}
	if errors.Is(err, ErrUnregisteredType) {
		t.Errorf("unknown tag should not also be ErrUnregisteredType: %v", err)
	}
}

func TestEncodeUnregisteredType(t *testing.T) {
	tc := New()
	type unregistered struct{ X int }
	_, err := tc.Encode(unregistered{X: 1})
	if err == nil {
		t.Fatal("expected an error for an unregistered struct type")
	}
	if !errors.Is(err, ErrUnregisteredType) {
		t.Errorf("expected errors.Is(err, ErrUnregisteredType), got %v", err)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	tc := New()
	if err := tc.Register(uuidTranscoding{}); err == nil {
		t.Fatal("expected an error re-registering a built-in transcoding name")
	}
}
