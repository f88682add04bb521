package eventry

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zoobzio/eventry/cipher"
	"github.com/zoobzio/eventry/compressor"
	"github.com/zoobzio/eventry/transcoder"
)

// FieldedEvent is implemented by domain event types that carry additional
// serializable attributes beyond the DomainEvent header. EventFields
// returns those attributes keyed by wire name; values must be encodable by
// the Mapper's Transcoder (primitives, slices, maps, or registered
// Transcoding types).
type FieldedEvent interface {
	DomainEvent

	// EventFields returns this event's attributes, excluding the header
	// fields already covered by DomainEvent.
	EventFields() map[string]any
}

// Reconstructor rebuilds a domain event from its decoded header and
// fields. Registered per topic via Mapper.Register.
type Reconstructor func(header EventHeader, fields map[string]any) (DomainEvent, error)

// EventHeader is the fixed portion of every stored event, decoded ahead of
// the caller-supplied Reconstructor so reconstruction never needs its own
// UUID or timestamp parsing.
type EventHeader struct {
	OriginatorID      uuid.UUID
	OriginatorVersion uint64
	Timestamp         time.Time
}

// Mapper is the pipeline that converts between domain events and
// StoredEvents: transcode, then optionally compress, then optionally
// encrypt; and the reverse on the way back.
//
// A Mapper is safe for concurrent use once constructed. Register may run
// concurrently with ToDomainEvent: the Reconstructor map is guarded by a
// read-write mutex.
type Mapper struct {
	tc         transcoder.Transcoder
	compressor compressor.Compressor
	cipher     cipher.Cipher

	mu    sync.RWMutex
	recon map[string]Reconstructor

	deprecatedOnce sync.Map // uintptr (caller PC) -> struct{}
}

// NewMapper constructs a Mapper. tc must not be nil; comp and enc may be
// nil to skip those pipeline stages.
func NewMapper(tc transcoder.Transcoder, comp compressor.Compressor, enc cipher.Cipher) *Mapper {
	m := &Mapper{
		tc:         tc,
		compressor: comp,
		cipher:     enc,
		recon:      make(map[string]Reconstructor),
	}
	emitMapperCreated(comp != nil, enc != nil)
	return m
}

// Register associates topic with a Reconstructor, enabling ToDomainEvent
// to rebuild events of that type. Registering the same topic twice
// replaces the previous Reconstructor.
func (m *Mapper) Register(topic string, fn Reconstructor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recon[topic] = fn
}

// ToStoredEvent runs a domain event through transcode -> compress ->
// encrypt, producing its persisted form.
func (m *Mapper) ToStoredEvent(event FieldedEvent) (StoredEvent, error) {
	start := time.Now()
	topic := topicOf(event)

	envelope := map[string]any{
		"originator_id":      event.EventOriginatorID(),
		"originator_version": event.EventOriginatorVersion(),
		"timestamp":          event.EventTimestamp(),
		"fields":             event.EventFields(),
	}

	payload, err := m.tc.Encode(envelope)
	if err != nil {
		wrapped := NewSerializationError(topic, err)
		emitToStoredComplete(topic, time.Since(start), wrapped)
		return StoredEvent{}, wrapped
	}

	if m.compressor != nil {
		payload, err = m.compressor.Compress(payload)
		if err != nil {
			wrapped := NewCipherDataError(ErrCorruptPayload, "compress", err)
			emitToStoredComplete(topic, time.Since(start), wrapped)
			return StoredEvent{}, wrapped
		}
	}

	if m.cipher != nil {
		payload, err = m.cipher.Encrypt(payload)
		if err != nil {
			wrapped := NewCipherDataError(ErrCipherData, "encrypt", err)
			emitToStoredComplete(topic, time.Since(start), wrapped)
			return StoredEvent{}, wrapped
		}
	}

	stored := StoredEvent{
		OriginatorID:      event.EventOriginatorID(),
		OriginatorVersion: event.EventOriginatorVersion(),
		Topic:             topic,
		State:             payload,
	}
	emitToStoredComplete(topic, time.Since(start), nil)
	return stored, nil
}

// ToDomainEvent runs a StoredEvent through decrypt -> decompress ->
// transcode-decode, then rebuilds the domain event via the Reconstructor
// registered for stored.Topic.
func (m *Mapper) ToDomainEvent(stored StoredEvent) (DomainEvent, error) {
	start := time.Now()
	payload := stored.State

	if m.cipher != nil {
		decrypted, err := m.cipher.Decrypt(payload)
		if err != nil {
			wrapped := NewCipherDataError(ErrCipherData, "decrypt", err)
			emitToDomainComplete(stored.Topic, time.Since(start), wrapped)
			return nil, wrapped
		}
		payload = decrypted
	}

	if m.compressor != nil {
		decompressed, err := m.compressor.Decompress(payload)
		if err != nil {
			wrapped := NewCipherDataError(ErrCorruptPayload, "decompress", err)
			emitToDomainComplete(stored.Topic, time.Since(start), wrapped)
			return nil, wrapped
		}
		payload = decompressed
	}

	decoded, err := m.tc.Decode(payload)
	if err != nil {
		wrapped := NewSerializationError(stored.Topic, err)
		emitToDomainComplete(stored.Topic, time.Since(start), wrapped)
		return nil, wrapped
	}

	envelope, ok := decoded.(map[string]any)
	if !ok {
		wrapped := NewSerializationError(stored.Topic, fmt.Errorf("decoded envelope is %T, want map[string]any", decoded))
		emitToDomainComplete(stored.Topic, time.Since(start), wrapped)
		return nil, wrapped
	}

	header, fields, err := splitEnvelope(envelope)
	if err != nil {
		wrapped := NewSerializationError(stored.Topic, err)
		emitToDomainComplete(stored.Topic, time.Since(start), wrapped)
		return nil, wrapped
	}

	m.mu.RLock()
	fn, found := m.recon[stored.Topic]
	m.mu.RUnlock()
	if !found {
		wrapped := NewSerializationError(stored.Topic, fmt.Errorf("no reconstructor registered for topic %q", stored.Topic))
		emitToDomainComplete(stored.Topic, time.Since(start), wrapped)
		return nil, wrapped
	}

	event, err := fn(header, fields)
	if err != nil {
		wrapped := NewSerializationError(stored.Topic, err)
		emitToDomainComplete(stored.Topic, time.Since(start), wrapped)
		return nil, wrapped
	}

	emitToDomainComplete(stored.Topic, time.Since(start), nil)
	return event, nil
}

// FromDomainEvent is a deprecated alias for ToStoredEvent, kept for
// callers migrating off an older name. It emits a warning signal once per
// call site.
//
// Deprecated: use ToStoredEvent.
func (m *Mapper) FromDomainEvent(event FieldedEvent) (StoredEvent, error) {
	pc, _, _, ok := runtime.Caller(1)
	if ok {
		if _, seen := m.deprecatedOnce.LoadOrStore(pc, struct{}{}); !seen {
			fn := runtime.FuncForPC(pc)
			site := "unknown"
			if fn != nil {
				site = fn.Name()
			}
			emitDeprecatedCallSite(site)
		}
	}
	return m.ToStoredEvent(event)
}

func splitEnvelope(envelope map[string]any) (EventHeader, map[string]any, error) {
	originatorID, ok := envelope["originator_id"].(uuid.UUID)
	if !ok {
		return EventHeader{}, nil, fmt.Errorf("envelope originator_id is %T, want uuid.UUID", envelope["originator_id"])
	}

	version, err := asUint64(envelope["originator_version"])
	if err != nil {
		return EventHeader{}, nil, fmt.Errorf("envelope originator_version: %w", err)
	}

	ts, ok := envelope["timestamp"].(time.Time)
	if !ok {
		return EventHeader{}, nil, fmt.Errorf("envelope timestamp is %T, want time.Time", envelope["timestamp"])
	}

	fields, _ := envelope["fields"].(map[string]any)
	if fields == nil {
		fields = map[string]any{}
	}

	return EventHeader{OriginatorID: originatorID, OriginatorVersion: version, Timestamp: ts}, fields, nil
}

// asUint64 accepts the numeric representations the transcoder produces
// (int64, uint64, or float64) as well as any fmt.Stringer holding an
// integer, such as json.Number, and normalizes them to uint64.
func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case float64:
		return uint64(n), nil
	case fmt.Stringer:
		var u uint64
		if _, err := fmt.Sscanf(n.String(), "%d", &u); err != nil {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return u, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

// topicOf derives the wire topic for event: the Topical override if
// implemented, else the event's package-qualified type name. Most callers
// should implement Topical directly rather than rely on the reflective
// fallback, since a renamed Go type silently changes the wire topic.
func topicOf(event DomainEvent) string {
	if t, ok := event.(Topical); ok {
		return t.Topic()
	}

	typ := reflect.TypeOf(event)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.PkgPath() == "" {
		return typ.Name()
	}
	return typ.PkgPath() + "." + typ.Name()
}
