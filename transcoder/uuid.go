package transcoder

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// uuidTranscoding encodes uuid.UUID as its canonical hyphenated hex string.
type uuidTranscoding struct{}

func (uuidTranscoding) Type() reflect.Type { return reflect.TypeOf(uuid.UUID{}) }
func (uuidTranscoding) Name() string       { return "uuid" }

func (uuidTranscoding) Encode(obj any) (any, error) {
	u, ok := obj.(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("uuid transcoding: unexpected type %T", obj)
	}
	return u.String(), nil
}

func (uuidTranscoding) Decode(data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return nil, fmt.Errorf("uuid transcoding: expected string, got %T", data)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("uuid transcoding: %w", err)
	}
	return u, nil
}
