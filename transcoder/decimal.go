package transcoder

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
)

// decimalTranscoding encodes decimal.Decimal as its exact base-10 string
// form, avoiding the precision loss a float64 wire value would introduce.
type decimalTranscoding struct{}

func (decimalTranscoding) Type() reflect.Type { return reflect.TypeOf(decimal.Decimal{}) }
func (decimalTranscoding) Name() string       { return "decimal" }

func (decimalTranscoding) Encode(obj any) (any, error) {
	d, ok := obj.(decimal.Decimal)
	if !ok {
		return nil, fmt.Errorf("decimal transcoding: unexpected type %T", obj)
	}
	return d.String(), nil
}

func (decimalTranscoding) Decode(data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return nil, fmt.Errorf("decimal transcoding: expected string, got %T", data)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("decimal transcoding: %w", err)
	}
	return d, nil
}
