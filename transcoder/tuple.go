package transcoder

import (
	"fmt"
	"reflect"
)

// Tuple is a fixed-arity, heterogeneous sequence. It is distinct from a
// plain []any: where a []any is encoded as a bare JSON array, a Tuple is
// tagged "tuple_as_list" so a decoder can tell the two apart on round
// trip even though both ride the wire as a JSON array underneath.
type Tuple []any

// tupleTranscoding encodes a Tuple as its elements, recursively encoded as
// a plain list by the owning Transcoder's tree walk (so a Tuple may itself
// contain registered custom types).
type tupleTranscoding struct{}

func (tupleTranscoding) Type() reflect.Type { return reflect.TypeOf(Tuple{}) }
func (tupleTranscoding) Name() string       { return "tuple_as_list" }

func (t tupleTranscoding) Encode(obj any) (any, error) {
	tup, ok := obj.(Tuple)
	if !ok {
		return nil, fmt.Errorf("tuple transcoding: unexpected type %T", obj)
	}
	return []any(tup), nil
}

func (t tupleTranscoding) Decode(data any) (any, error) {
	list, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("tuple transcoding: expected list, got %T", data)
	}
	return Tuple(list), nil
}
