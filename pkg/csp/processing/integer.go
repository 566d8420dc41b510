package processing

import (
	"reflect"

	"github.com/andreygs/gocsp/pkg/csp"
)

// Integer is any integer type a body can carry.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// WriteInteger writes v with the width prefix required by the context
// flags. It is meant for Marshaler implementations.
func WriteInteger[T Integer](ctx *SerializationContext, v T) error {
	if err := ctx.encodePrimitive(reflect.ValueOf(v)); err != nil {
		return err
	}
	return ctx.Buffer.Err()
}

// ReadInteger reads a value written by WriteInteger, converting from the
// prefixed width if needed.
func ReadInteger[T Integer](ctx *DeserializationContext) (T, error) {
	var out T
	err := ctx.decodePrimitive(reflect.ValueOf(&out).Elem())
	return out, err
}

// WriteString writes s as a counted string encoded in cs. Pass ctx.Charset
// for the context default.
func WriteString(ctx *SerializationContext, s string, cs csp.Charset) error {
	if err := ctx.encodeString(reflect.ValueOf(s), cs); err != nil {
		return err
	}
	return ctx.Buffer.Err()
}

// ReadString reads a string written by WriteString.
func ReadString(ctx *DeserializationContext, cs csp.Charset) (string, error) {
	var s string
	err := ctx.decodeString(reflect.ValueOf(&s).Elem(), cs)
	return s, err
}
