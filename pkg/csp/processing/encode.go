package processing

import (
	"cmp"
	"reflect"
	"slices"
	"unsafe"

	"github.com/andreygs/gocsp/internal/charset"
	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
	"github.com/andreygs/gocsp/pkg/csp/typetraits"
)

// Serialize writes v as a body using traits derived from its type. A
// non-nil pointer is serialized as its pointee.
func Serialize(ctx *SerializationContext, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return csp.NewError(csp.InvalidArgument, "cannot serialize nil")
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return csp.Errorf(csp.InvalidArgument, "cannot serialize nil %v", rv.Type())
		}
		rv = rv.Elem()
	}
	tr, err := ctx.Registry.TraitsOf(rv.Type())
	if err != nil {
		return err
	}
	return SerializeValue(ctx, rv, tr)
}

// SerializeValue writes v according to tr. Specialized processors call it
// for nested values.
func SerializeValue(ctx *SerializationContext, v reflect.Value, tr *typetraits.Traits) error {
	if err := ctx.encode(v, tr); err != nil {
		return err
	}
	return ctx.Buffer.Err()
}

func (c *SerializationContext) encode(v reflect.Value, tr *typetraits.Traits) error {
	if c.depth >= c.MaxDepth {
		return csp.Errorf(csp.Overflow, "values nested deeper than %d", c.MaxDepth)
	}
	c.depth++
	defer func() { c.depth-- }()

	if tr.Processor != "" {
		p, err := c.Registry.SerializerProvider().Get(NameKey(tr.Processor))
		if err != nil {
			return err
		}
		return p.Serialize(c, v, tr)
	}
	if tr.Reference {
		return c.encodeReference(v, tr)
	}
	return c.encodeBody(v, tr)
}

func (c *SerializationContext) encodeBody(v reflect.Value, tr *typetraits.Traits) error {
	switch tr.Kind {
	case typetraits.KindPrimitive:
		return c.encodePrimitive(v)
	case typetraits.KindString:
		return c.encodeString(v, c.charsetFor(tr))
	case typetraits.KindArray:
		return c.encodeArray(v, tr)
	case typetraits.KindCollection:
		return c.encodeCollection(v, tr)
	case typetraits.KindMap:
		return c.encodeMap(v, tr)
	case typetraits.KindStruct:
		for _, f := range tr.Fields {
			if err := c.encode(v.Field(f.Index), f.Traits); err != nil {
				return err
			}
		}
		return nil
	case typetraits.KindReference:
		return c.encodeReference(v, tr)
	case typetraits.KindCustom:
		return c.encodeCustom(v, tr)
	}
	return csp.Errorf(csp.InvalidType, "unsupported traits kind %s", tr.Kind)
}

func (c *SerializationContext) encodeReference(v reflect.Value, tr *typetraits.Traits) error {
	if !c.AllowUnmanagedPointers() {
		return csp.Errorf(csp.PointerWhenNoAllowUnmanagedPointersSet, "reference to %v", tr.Type)
	}
	if isNilReference(v) {
		c.Buffer.WriteUint8(markNull)
		return nil
	}

	if c.trackPointers() {
		if key, ok := identityOf(v); ok {
			if off, seen := c.pointers[key]; seen {
				c.Buffer.WriteUint8(markBackRef)
				c.Buffer.WriteUint64(uint64(off))
				return nil
			}
			if c.pointers == nil {
				c.pointers = make(map[pointerKey]int)
			}
			c.pointers[key] = c.Buffer.Position() - c.bodyStart
		}
	}
	c.Buffer.WriteUint8(markNew)

	if tr.Kind == typetraits.KindReference {
		return c.encode(v.Elem(), tr.Elem)
	}
	return c.encodeBody(v, tr)
}

func isNilReference(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// identityOf returns the address identity of a reference value. Empty
// slices and strings have none.
func identityOf(v reflect.Value) (pointerKey, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		return pointerKey{typ: v.Type(), addr: v.Pointer()}, true
	case reflect.Slice:
		if v.Len() == 0 {
			return pointerKey{}, false
		}
		return pointerKey{typ: v.Type(), addr: v.Pointer(), len: v.Len()}, true
	case reflect.String:
		s := v.String()
		if s == "" {
			return pointerKey{}, false
		}
		return pointerKey{typ: v.Type(), addr: uintptr(unsafe.Pointer(unsafe.StringData(s))), len: len(s)}, true
	}
	return pointerKey{}, false
}

// integerWidth returns the encoded width of an integer kind, 0 for other kinds.
func integerWidth(k reflect.Kind) int {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32:
		return 4
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return 8
	}
	return 0
}

func (c *SerializationContext) encodePrimitive(v reflect.Value) error {
	k := v.Kind()
	if w := integerWidth(k); w > 0 && c.SizeOfIntegersMayBeNotEqual() {
		c.Buffer.WriteUint8(uint8(w))
	}

	switch k {
	case reflect.Bool:
		c.Buffer.WriteBool(v.Bool())
	case reflect.Int8:
		c.Buffer.WriteInt8(int8(v.Int()))
	case reflect.Int16:
		c.Buffer.WriteInt16(int16(v.Int()))
	case reflect.Int32:
		c.Buffer.WriteInt32(int32(v.Int()))
	case reflect.Int, reflect.Int64:
		c.Buffer.WriteInt64(v.Int())
	case reflect.Uint8:
		c.Buffer.WriteUint8(uint8(v.Uint()))
	case reflect.Uint16:
		c.Buffer.WriteUint16(uint16(v.Uint()))
	case reflect.Uint32:
		c.Buffer.WriteUint32(uint32(v.Uint()))
	case reflect.Uint, reflect.Uint64:
		c.Buffer.WriteUint64(v.Uint())
	case reflect.Float32:
		c.Buffer.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		c.Buffer.WriteFloat64(v.Float())
	default:
		return csp.Errorf(csp.InvalidType, "%v is not a primitive", v.Type())
	}
	return nil
}

func (c *SerializationContext) encodeString(v reflect.Value, cs csp.Charset) error {
	data, err := charset.Encode(cs, v.String())
	if err != nil {
		return err
	}
	c.Buffer.WriteUint64(uint64(len(data)))
	c.Buffer.WriteBytes(data)
	return nil
}

// encodeLength writes the element count, or checks it against a fixed size.
func (c *SerializationContext) encodeLength(v reflect.Value, tr *typetraits.Traits) error {
	if tr.FixedSize > 0 {
		if v.Len() != tr.FixedSize {
			return csp.Errorf(csp.InvalidArgument, "%v has %d elements, fixed size is %d", tr.Type, v.Len(), tr.FixedSize)
		}
		return nil
	}
	c.Buffer.WriteUint64(uint64(v.Len()))
	return nil
}

func (c *SerializationContext) encodeArray(v reflect.Value, tr *typetraits.Traits) error {
	if err := c.encodeLength(v, tr); err != nil {
		return err
	}
	ek := tr.Elem.Type.Kind()
	w := integerWidth(ek)
	if w > 0 && c.SizeOfIntegersMayBeNotEqual() {
		c.Buffer.WriteUint8(uint8(w))
	}
	if v.Kind() == reflect.Slice && v.CanInterface() && writeNumbers(c.Buffer, v.Interface()) {
		return nil
	}

	n := v.Len()
	for i := range n {
		e := v.Index(i)
		switch ek {
		case reflect.Bool:
			c.Buffer.WriteBool(e.Bool())
		case reflect.Int8:
			c.Buffer.WriteInt8(int8(e.Int()))
		case reflect.Int16:
			c.Buffer.WriteInt16(int16(e.Int()))
		case reflect.Int32:
			c.Buffer.WriteInt32(int32(e.Int()))
		case reflect.Int, reflect.Int64:
			c.Buffer.WriteInt64(e.Int())
		case reflect.Uint8:
			c.Buffer.WriteUint8(uint8(e.Uint()))
		case reflect.Uint16:
			c.Buffer.WriteUint16(uint16(e.Uint()))
		case reflect.Uint32:
			c.Buffer.WriteUint32(uint32(e.Uint()))
		case reflect.Uint, reflect.Uint64:
			c.Buffer.WriteUint64(e.Uint())
		case reflect.Float32:
			c.Buffer.WriteFloat32(float32(e.Float()))
		case reflect.Float64:
			c.Buffer.WriteFloat64(e.Float())
		default:
			return csp.Errorf(csp.InvalidType, "%v is not a primitive", e.Type())
		}
		if c.Buffer.Err() != nil {
			return c.Buffer.Err()
		}
	}
	return nil
}

// writeNumbers bulk-writes unnamed numeric slices. It reports false for
// any other type.
func writeNumbers(b *buffer.SerializationBuffer, s any) bool {
	switch s := s.(type) {
	case []byte:
		b.WriteBytes(s)
	case []int8:
		buffer.WriteNumbers(b, s)
	case []int16:
		buffer.WriteNumbers(b, s)
	case []uint16:
		buffer.WriteNumbers(b, s)
	case []int32:
		buffer.WriteNumbers(b, s)
	case []uint32:
		buffer.WriteNumbers(b, s)
	case []int64:
		buffer.WriteNumbers(b, s)
	case []uint64:
		buffer.WriteNumbers(b, s)
	case []float32:
		buffer.WriteNumbers(b, s)
	case []float64:
		buffer.WriteNumbers(b, s)
	default:
		return false
	}
	return true
}

func (c *SerializationContext) encodeCollection(v reflect.Value, tr *typetraits.Traits) error {
	if err := c.encodeLength(v, tr); err != nil {
		return err
	}
	for i := range v.Len() {
		if err := c.encode(v.Index(i), tr.Elem); err != nil {
			return err
		}
		if err := c.Buffer.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *SerializationContext) encodeMap(v reflect.Value, tr *typetraits.Traits) error {
	c.Buffer.WriteUint64(uint64(v.Len()))
	for _, e := range sortedEntries(v) {
		if err := c.encode(e.key, tr.Key); err != nil {
			return err
		}
		if err := c.encode(e.value, tr.Elem); err != nil {
			return err
		}
		if err := c.Buffer.Err(); err != nil {
			return err
		}
	}
	return nil
}

type mapEntry struct {
	key, value reflect.Value
}

// sortedEntries collects the entries of map v, ordered by key when the key
// kind is ordered. Entries are read with MapRange so keys that never
// compare equal to themselves, such as NaN, keep their values.
func sortedEntries(v reflect.Value) []mapEntry {
	entries := make([]mapEntry, 0, v.Len())
	for it := v.MapRange(); it.Next(); {
		entries = append(entries, mapEntry{key: it.Key(), value: it.Value()})
	}
	if compare := keyCompare(v.Type().Key().Kind()); compare != nil && len(entries) > 1 {
		slices.SortStableFunc(entries, func(a, b mapEntry) int { return compare(a.key, b.key) })
	}
	return entries
}

// keyCompare orders map keys of ordered kinds. Other key kinds return nil
// and keep iteration order.
func keyCompare(k reflect.Kind) func(a, b reflect.Value) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) }
	case reflect.Float32, reflect.Float64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) }
	case reflect.String:
		return func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) }
	case reflect.Bool:
		return func(a, b reflect.Value) int {
			switch {
			case a.Bool() == b.Bool():
				return 0
			case !a.Bool():
				return -1
			}
			return 1
		}
	}
	return nil
}

func (c *SerializationContext) encodeCustom(v reflect.Value, tr *typetraits.Traits) error {
	if m, ok := asMarshaler(v); ok {
		return m.MarshalCSP(c)
	}
	p, err := c.Registry.SerializerProvider().Get(TypeKey(tr.Type))
	if err != nil {
		return err
	}
	return p.Serialize(c, v, tr)
}

func asMarshaler(v reflect.Value) (Marshaler, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	if m, ok := v.Interface().(Marshaler); ok {
		return m, true
	}
	if !reflect.PointerTo(v.Type()).Implements(marshalerType) {
		return nil, false
	}
	if v.CanAddr() {
		return v.Addr().Interface().(Marshaler), true
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.Interface().(Marshaler), true
}
