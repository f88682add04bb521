// Package transcoder provides extensible conversion between Go values and
// self-describing byte payloads.
//
// The wire format is a textual tree, JSON-compatible: primitive values
// (string, integer, real, boolean, null), ordered sequences, and mappings
// from string keys to values. Objects of registered custom types are
// encoded as a two-key mapping {"_type_": name, "_data_": encoded inner
// value}, where name identifies a registered Transcoding and the inner
// value is itself recursively encoded. A mapping whose only keys are
// exactly "_type_" and "_data_" is treated as a tagged value; a mapping
// that contains those names alongside other keys is left alone as a plain
// mapping, preserved as-is on round-trip.
package transcoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

// Reserved tag keys. A mapping whose only keys are exactly these two is a
// tagged custom-type value; any other mapping, including one that merely
// contains these names alongside other keys, is a plain mapping.
const (
	TypeKey = "_type_"
	DataKey = "_data_"
)

// Sentinel errors. Wrap these into eventry.SerializationError at the
// Mapper boundary; this package has no dependency on the root module.
var (
	// ErrUnregisteredType is returned by Encode when a non-primitive,
	// non-registered Go value cannot be serialized.
	ErrUnregisteredType = errors.New("not serializable; register a transcoding")

	// ErrUnknownTag is returned by Decode when a "_type_" name has no
	// registered Transcoding.
	ErrUnknownTag = errors.New("unknown transcoding tag")
)

// Transcoding is a polymorphic codec for a single non-primitive Go type,
// identified by a unique Name used as the "_type_" tag on the wire.
type Transcoding interface {
	// Type is the concrete Go type this Transcoding handles, used to
	// dispatch Encode by reflect.TypeOf(value).
	Type() reflect.Type

	// Name uniquely identifies this Transcoding on the wire.
	Name() string

	// Encode converts obj (guaranteed to be of Type()) into an
	// intermediate value composable from the wire grammar (primitives,
	// []any, map[string]any, or another registered type).
	Encode(obj any) (any, error)

	// Decode converts a previously-encoded intermediate value back into an
	// obj of Type().
	Decode(data any) (any, error)
}

// Transcoder provides Encode(value) -> bytes and Decode(bytes) -> value
// over the wire grammar described in the package doc.
type Transcoder interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)

	// Register adds a Transcoding, making its type encodable and its name
	// decodable. Safe for concurrent use.
	Register(t Transcoding) error
}

// registry holds the type->codec and name->codec lookups, guarded by one
// RWMutex, mirroring the cache-map discipline the pipeline's ambient stack
// uses elsewhere for registries built once and read often.
type registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]Transcoding
	byName  map[string]Transcoding
}

func newRegistry() *registry {
	return &registry{
		byType: make(map[reflect.Type]Transcoding),
		byName: make(map[string]Transcoding),
	}
}

func (r *registry) register(t Transcoding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[t.Name()]; exists {
		return fmt.Errorf("transcoding %q already registered", t.Name())
	}
	r.byType[t.Type()] = t
	r.byName[t.Name()] = t
	return nil
}

func (r *registry) byGoType(typ reflect.Type) (Transcoding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byType[typ]
	return t, ok
}

func (r *registry) byTagName(name string) (Transcoding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// JSONTranscoder is the default Transcoder: a JSON-backed textual tree with
// the {_type_, _data_} tagging scheme layered on top.
type JSONTranscoder struct {
	reg *registry
}

// New returns a JSONTranscoder with the built-in UUID, decimal, timestamp,
// and tuple_as_list Transcodings already registered.
func New() *JSONTranscoder {
	t := &JSONTranscoder{reg: newRegistry()}
	for _, b := range builtins() {
		_ = t.reg.register(b)
	}
	return t
}

// Register adds a custom Transcoding.
func (t *JSONTranscoder) Register(tc Transcoding) error {
	return t.reg.register(tc)
}

// Encode converts value into compact, UTF-8 JSON bytes.
func (t *JSONTranscoder) Encode(value any) ([]byte, error) {
	tree, err := t.toTree(reflect.ValueOf(value))
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// Decode parses data and reconstructs any registered custom types tagged
// on the wire.
func (t *JSONTranscoder) Decode(data []byte) (any, error) {
	var tree any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnregisteredType, err)
	}
	return t.fromTree(tree)
}

// toTree converts an arbitrary Go value into the wire grammar
// (string/bool/float64/int.../nil, []any, map[string]any), tagging
// registered custom types as {_type_, _data_}.
func (t *JSONTranscoder) toTree(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	// Dereference pointers and interfaces.
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	// A registered custom type always wins over structural encoding, so a
	// registered struct type (e.g. UUID) is tagged rather than walked
	// field-by-field.
	if tc, ok := t.reg.byGoType(v.Type()); ok {
		inner, err := tc.Encode(v.Interface())
		if err != nil {
			return nil, newSerializationError(v.Type().String(), err)
		}
		innerTree, err := t.toTree(reflect.ValueOf(inner))
		if err != nil {
			return nil, err
		}
		return map[string]any{TypeKey: tc.Name(), DataKey: innerTree}, nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := t.toTree(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, newSerializationError(v.Type().String(), ErrUnregisteredType)
		}
		if v.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			elem, err := t.toTree(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = elem
		}
		return out, nil
	default:
		return nil, newSerializationError(v.Type().String(), ErrUnregisteredType)
	}
}

// fromTree walks a decoded JSON tree, reconstructing any {_type_, _data_}
// tagged values via the registry, and leaving plain mappings (including
// ones that happen to contain "_type_"/"_data_" alongside other keys)
// untouched. Numbers come back as int64 when integral, uint64 when too
// large for int64, and float64 otherwise.
func (t *JSONTranscoder) fromTree(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if name, data, ok := asTagged(val); ok {
			tc, found := t.reg.byTagName(name)
			if !found {
				return nil, newSerializationError(name, ErrUnknownTag)
			}
			innerDecoded, err := t.fromTree(data)
			if err != nil {
				return nil, err
			}
			obj, err := tc.Decode(innerDecoded)
			if err != nil {
				return nil, newSerializationError(name, err)
			}
			return obj, nil
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			decoded, err := t.fromTree(elem)
			if err != nil {
				return nil, err
			}
			out[k] = decoded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			decoded, err := t.fromTree(elem)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(val.String(), 10, 64); err == nil {
			return u, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", val, err)
		}
		return f, nil
	default:
		return val, nil
	}
}

// asTagged reports whether m's key set is exactly {_type_, _data_}.
func asTagged(m map[string]any) (name string, data any, ok bool) {
	if len(m) != 2 {
		return "", nil, false
	}
	rawName, hasType := m[TypeKey]
	rawData, hasData := m[DataKey]
	if !hasType || !hasData {
		return "", nil, false
	}
	name, isString := rawName.(string)
	if !isString {
		return "", nil, false
	}
	return name, rawData, true
}

// newSerializationError wraps cause itself (ErrUnregisteredType,
// ErrUnknownTag, or whatever the underlying Transcoding returned) so
// errors.Is against either sentinel still works after this function runs.
func newSerializationError(typ string, cause error) error {
	return fmt.Errorf("%s: %w", typ, cause)
}
