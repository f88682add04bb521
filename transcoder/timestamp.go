package transcoder

import (
	"fmt"
	"reflect"
	"time"
)

// timestampTranscoding encodes time.Time as RFC 3339 with nanosecond
// precision, UTC-normalized so two encodings of the same instant always
// produce the same string regardless of the originating location.
type timestampTranscoding struct{}

func (timestampTranscoding) Type() reflect.Type { return reflect.TypeOf(time.Time{}) }
func (timestampTranscoding) Name() string       { return "timestamp" }

func (timestampTranscoding) Encode(obj any) (any, error) {
	t, ok := obj.(time.Time)
	if !ok {
		return nil, fmt.Errorf("timestamp transcoding: unexpected type %T", obj)
	}
	return t.UTC().Format(time.RFC3339Nano), nil
}

func (timestampTranscoding) Decode(data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return nil, fmt.Errorf("timestamp transcoding: expected string, got %T", data)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("timestamp transcoding: %w", err)
	}
	return t.UTC(), nil
}
