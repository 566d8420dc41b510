package processing

import (
	"reflect"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/typetraits"
)

// SerializationProcessor writes v into the context buffer.
type SerializationProcessor interface {
	Serialize(ctx *SerializationContext, v reflect.Value, tr *typetraits.Traits) error
}

// DeserializationProcessor reads into v, which is always settable.
type DeserializationProcessor interface {
	Deserialize(ctx *DeserializationContext, v reflect.Value, tr *typetraits.Traits) error
}

// SerializeFunc adapts a function to SerializationProcessor.
type SerializeFunc func(ctx *SerializationContext, v reflect.Value, tr *typetraits.Traits) error

func (f SerializeFunc) Serialize(ctx *SerializationContext, v reflect.Value, tr *typetraits.Traits) error {
	return f(ctx, v, tr)
}

// DeserializeFunc adapts a function to DeserializationProcessor.
type DeserializeFunc func(ctx *DeserializationContext, v reflect.Value, tr *typetraits.Traits) error

func (f DeserializeFunc) Deserialize(ctx *DeserializationContext, v reflect.Value, tr *typetraits.Traits) error {
	return f(ctx, v, tr)
}

// Marshaler is implemented by types that write their own body.
type Marshaler interface {
	MarshalCSP(ctx *SerializationContext) error
}

// Unmarshaler is implemented by types that read their own body.
type Unmarshaler interface {
	UnmarshalCSP(ctx *DeserializationContext) error
}

// VersionConverter is implemented by top-level structs that can be carried
// in older interface versions.
type VersionConverter interface {
	// LayoutForVersion returns a pointer to an empty value of the layout
	// used by version, or nil when version is unknown.
	LayoutForVersion(version csp.InterfaceVersion) any
	// FromOlderVersion fills the receiver from a decoded older layout.
	FromOlderVersion(old any) error
	// ToOlderVersion returns the value to serialize for an older version.
	ToOlderVersion(version csp.InterfaceVersion) (any, error)
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
)

// isSelfProcessing reports whether t handles its own encoding in both
// directions.
func isSelfProcessing(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	pt := reflect.PointerTo(t)
	return (t.Implements(marshalerType) || pt.Implements(marshalerType)) && pt.Implements(unmarshalerType)
}
