package processing

import (
	"reflect"

	"github.com/andreygs/gocsp/internal/charset"
	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
	"github.com/andreygs/gocsp/pkg/csp/typetraits"
)

// Deserialize reads a body into out, which must be a non-nil pointer.
func Deserialize(ctx *DeserializationContext, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return csp.Errorf(csp.InvalidArgument, "deserialize needs a non-nil pointer, got %T", out)
	}
	rv = rv.Elem()
	tr, err := ctx.Registry.TraitsOf(rv.Type())
	if err != nil {
		return err
	}
	return DeserializeValue(ctx, rv, tr)
}

// DeserializeValue reads into the settable v according to tr.
func DeserializeValue(ctx *DeserializationContext, v reflect.Value, tr *typetraits.Traits) error {
	if !v.CanSet() {
		return csp.Errorf(csp.InvalidArgument, "%v value is not settable", v.Type())
	}
	return ctx.decode(v, tr)
}

func (c *DeserializationContext) decode(v reflect.Value, tr *typetraits.Traits) error {
	if c.depth >= c.MaxDepth {
		return csp.Errorf(csp.Overflow, "values nested deeper than %d", c.MaxDepth)
	}
	c.depth++
	defer func() { c.depth-- }()

	if tr.Processor != "" {
		p, err := c.Registry.DeserializerProvider().Get(NameKey(tr.Processor))
		if err != nil {
			return err
		}
		return p.Deserialize(c, v, tr)
	}
	if tr.Reference {
		return c.decodeReference(v, tr)
	}
	return c.decodeBody(v, tr)
}

func (c *DeserializationContext) decodeBody(v reflect.Value, tr *typetraits.Traits) error {
	switch tr.Kind {
	case typetraits.KindPrimitive:
		return c.decodePrimitive(v)
	case typetraits.KindString:
		return c.decodeString(v, c.charsetFor(tr))
	case typetraits.KindArray:
		return c.decodeArray(v, tr)
	case typetraits.KindCollection:
		return c.decodeCollection(v, tr)
	case typetraits.KindMap:
		return c.decodeMap(v, tr)
	case typetraits.KindStruct:
		for _, f := range tr.Fields {
			if err := c.decode(v.Field(f.Index), f.Traits); err != nil {
				return err
			}
		}
		return nil
	case typetraits.KindReference:
		return c.decodeReference(v, tr)
	case typetraits.KindCustom:
		return c.decodeCustom(v, tr)
	}
	return csp.Errorf(csp.InvalidType, "unsupported traits kind %s", tr.Kind)
}

func (c *DeserializationContext) decodeReference(v reflect.Value, tr *typetraits.Traits) error {
	if !c.AllowUnmanagedPointers() {
		return csp.Errorf(csp.PointerWhenNoAllowUnmanagedPointersSet, "reference to %v", tr.Type)
	}
	off := c.Buffer.Position() - c.bodyStart
	mark, err := c.Buffer.ReadUint8()
	if err != nil {
		return err
	}

	switch mark {
	case markNull:
		v.Set(reflect.Zero(v.Type()))
		return nil

	case markBackRef:
		if !c.trackPointers() {
			return csp.NewError(csp.DataCorrupted, "back-reference without pointer tracking")
		}
		target, err := c.Buffer.ReadUint64()
		if err != nil {
			return err
		}
		if target >= uint64(off) {
			return csp.Errorf(csp.DataCorrupted, "back-reference at %d points forward to %d", off, target)
		}
		obj, ok := c.objects[int(target)]
		if !ok {
			return csp.Errorf(csp.DataCorrupted, "back-reference to unknown offset %d", target)
		}
		if obj.Type() != v.Type() {
			return csp.Errorf(csp.DataCorrupted, "back-reference to %v where %v expected", obj.Type(), v.Type())
		}
		v.Set(obj)
		return nil

	case markNew:
	default:
		return csp.Errorf(csp.DataCorrupted, "invalid pointer mark %d", mark)
	}

	track := c.trackPointers()
	if tr.Kind == typetraits.KindReference {
		p := reflect.New(v.Type().Elem())
		if track {
			c.register(off, p)
		}
		v.Set(p)
		return c.decode(p.Elem(), tr.Elem)
	}

	// Containers register themselves as soon as they exist so that nested
	// back-references to them resolve.
	early := track && isContainerKind(tr.Kind) && (v.Kind() == reflect.Slice || v.Kind() == reflect.Map)
	if early {
		c.pending = off
	}
	if err := c.decodeBody(v, tr); err != nil {
		return err
	}
	if track && !early {
		c.register(off, snapshot(v))
	}
	return nil
}

func isContainerKind(k typetraits.Kind) bool {
	return k == typetraits.KindArray || k == typetraits.KindCollection || k == typetraits.KindMap
}

func (c *DeserializationContext) register(off int, v reflect.Value) {
	if c.objects == nil {
		c.objects = make(map[int]reflect.Value)
	}
	c.objects[off] = v
}

// snapshot copies the current value held at v.
func snapshot(v reflect.Value) reflect.Value {
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}

func (c *DeserializationContext) decodePrimitive(v reflect.Value) error {
	switch k := v.Kind(); k {
	case reflect.Bool:
		b, err := c.Buffer.ReadBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil
	case reflect.Float32:
		f, err := c.Buffer.ReadFloat32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(f))
		return nil
	case reflect.Float64:
		f, err := c.Buffer.ReadFloat64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
		return nil
	}

	width, err := c.readWidth(v.Kind())
	if err != nil {
		return err
	}
	return c.readIntegerInto(v, width)
}

// readWidth returns the width of the next integer of kind k, reading the
// width prefix when the size flag is set.
func (c *DeserializationContext) readWidth(k reflect.Kind) (int, error) {
	w := integerWidth(k)
	if w == 0 {
		return 0, csp.Errorf(csp.InvalidType, "%s is not a primitive", k)
	}
	if !c.SizeOfIntegersMayBeNotEqual() {
		return w, nil
	}
	b, err := c.Buffer.ReadUint8()
	if err != nil {
		return 0, err
	}
	switch b {
	case 1, 2, 4, 8:
		return int(b), nil
	}
	return 0, csp.Errorf(csp.DataCorrupted, "invalid integer size %d", b)
}

func isSignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// readIntegerInto reads an integer of the given width and converts it to
// the kind of v, failing with csp.Overflow when the value does not fit.
func (c *DeserializationContext) readIntegerInto(v reflect.Value, width int) error {
	if isSignedKind(v.Kind()) {
		var x int64
		switch width {
		case 1:
			n, err := c.Buffer.ReadInt8()
			if err != nil {
				return err
			}
			x = int64(n)
		case 2:
			n, err := c.Buffer.ReadInt16()
			if err != nil {
				return err
			}
			x = int64(n)
		case 4:
			n, err := c.Buffer.ReadInt32()
			if err != nil {
				return err
			}
			x = int64(n)
		default:
			n, err := c.Buffer.ReadInt64()
			if err != nil {
				return err
			}
			x = n
		}
		if v.OverflowInt(x) {
			return csp.Errorf(csp.Overflow, "%d does not fit in %v", x, v.Type())
		}
		v.SetInt(x)
		return nil
	}

	var x uint64
	switch width {
	case 1:
		n, err := c.Buffer.ReadUint8()
		if err != nil {
			return err
		}
		x = uint64(n)
	case 2:
		n, err := c.Buffer.ReadUint16()
		if err != nil {
			return err
		}
		x = uint64(n)
	case 4:
		n, err := c.Buffer.ReadUint32()
		if err != nil {
			return err
		}
		x = uint64(n)
	default:
		n, err := c.Buffer.ReadUint64()
		if err != nil {
			return err
		}
		x = n
	}
	if v.OverflowUint(x) {
		return csp.Errorf(csp.Overflow, "%d does not fit in %v", x, v.Type())
	}
	v.SetUint(x)
	return nil
}

func (c *DeserializationContext) decodeString(v reflect.Value, cs csp.Charset) error {
	n, err := c.Buffer.ReadUint64()
	if err != nil {
		return err
	}
	if n > uint64(c.Buffer.Remaining()) {
		return csp.Errorf(csp.DataCorrupted, "string of %d octets with %d remaining", n, c.Buffer.Remaining())
	}
	data, err := c.Buffer.ReadBytes(int(n))
	if err != nil {
		return err
	}
	s, err := charset.Decode(cs, data)
	if err != nil {
		return err
	}
	v.SetString(s)
	return nil
}

// readCount returns the fixed size or reads the element count.
func (c *DeserializationContext) readCount(tr *typetraits.Traits) (int, error) {
	if tr.FixedSize > 0 {
		return tr.FixedSize, nil
	}
	n, err := c.Buffer.ReadUint64()
	if err != nil {
		return 0, err
	}
	if n > buffer.MaxCapacity {
		return 0, csp.Errorf(csp.DataCorrupted, "element count %d is too large", n)
	}
	return int(n), nil
}

// checkCount rejects counts that cannot fit in the remaining octets.
func (c *DeserializationContext) checkCount(n, minSize int) error {
	if minSize > 0 && n > c.Buffer.Remaining()/minSize {
		return csp.Errorf(csp.DataCorrupted, "%d elements of at least %d octets with %d remaining",
			n, minSize, c.Buffer.Remaining())
	}
	return nil
}

// minEncodedSize is a lower bound of the encoded size of one value.
func (c *DeserializationContext) minEncodedSize(tr *typetraits.Traits) int {
	if tr.Processor != "" {
		return 0
	}
	if tr.Reference {
		return 1
	}
	switch tr.Kind {
	case typetraits.KindPrimitive:
		k := tr.Type.Kind()
		if w := integerWidth(k); w > 0 {
			if c.SizeOfIntegersMayBeNotEqual() {
				return 2
			}
			return w
		}
		if k == reflect.Bool {
			return 1
		}
		return int(tr.Type.Size())
	case typetraits.KindString, typetraits.KindMap:
		return 8
	case typetraits.KindArray, typetraits.KindCollection:
		if tr.FixedSize > 0 {
			return tr.FixedSize * c.minEncodedSize(tr.Elem)
		}
		return 8
	case typetraits.KindStruct:
		n := 0
		for _, f := range tr.Fields {
			n += c.minEncodedSize(f.Traits)
		}
		return n
	}
	return 0
}

// sequence prepares v to receive n elements and returns the value whose
// elements are filled. New slices are claimed by a pending reference.
func (c *DeserializationContext) sequence(v reflect.Value, n int) (reflect.Value, error) {
	if v.Kind() == reflect.Array {
		if v.Len() != n {
			return reflect.Value{}, csp.Errorf(csp.DataCorrupted, "%d elements for %v", n, v.Type())
		}
		return v, nil
	}
	if n == 0 {
		v.Set(reflect.Zero(v.Type()))
		c.claim(snapshot(v))
		return v, nil
	}
	s := reflect.MakeSlice(v.Type(), n, n)
	c.claim(s)
	v.Set(s)
	return s, nil
}

func (c *DeserializationContext) decodeArray(v reflect.Value, tr *typetraits.Traits) error {
	n, err := c.readCount(tr)
	if err != nil {
		return err
	}
	ek := tr.Elem.Type.Kind()
	width := int(tr.Elem.Type.Size())
	if w := integerWidth(ek); w > 0 {
		width = w
		if c.SizeOfIntegersMayBeNotEqual() {
			if width, err = c.readWidth(ek); err != nil {
				return err
			}
		}
	}
	if ek == reflect.Bool {
		width = 1
	}
	if err := c.checkCount(n, width); err != nil {
		return err
	}

	target, err := c.sequence(v, n)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if target.Kind() == reflect.Slice && (integerWidth(ek) == 0 || width == integerWidth(ek)) {
		if ok, err := readNumbers(c.Buffer, target.Interface()); ok {
			return err
		}
	}

	for i := range n {
		e := target.Index(i)
		switch ek {
		case reflect.Bool:
			b, err := c.Buffer.ReadBool()
			if err != nil {
				return err
			}
			e.SetBool(b)
		case reflect.Float32:
			f, err := c.Buffer.ReadFloat32()
			if err != nil {
				return err
			}
			e.SetFloat(float64(f))
		case reflect.Float64:
			f, err := c.Buffer.ReadFloat64()
			if err != nil {
				return err
			}
			e.SetFloat(f)
		default:
			if err := c.readIntegerInto(e, width); err != nil {
				return err
			}
		}
	}
	return nil
}

// readNumbers bulk-reads into unnamed numeric slices. It reports false for
// any other type.
func readNumbers(b *buffer.DeserializationBuffer, s any) (bool, error) {
	switch s := s.(type) {
	case []byte:
		return true, fill(b, s)
	case []int8:
		return true, fill(b, s)
	case []int16:
		return true, fill(b, s)
	case []uint16:
		return true, fill(b, s)
	case []int32:
		return true, fill(b, s)
	case []uint32:
		return true, fill(b, s)
	case []int64:
		return true, fill(b, s)
	case []uint64:
		return true, fill(b, s)
	case []float32:
		return true, fill(b, s)
	case []float64:
		return true, fill(b, s)
	}
	return false, nil
}

func fill[T buffer.Number](b *buffer.DeserializationBuffer, dst []T) error {
	values, err := buffer.ReadNumbers[T](b, len(dst))
	if err != nil {
		return err
	}
	copy(dst, values)
	return nil
}

func (c *DeserializationContext) decodeCollection(v reflect.Value, tr *typetraits.Traits) error {
	n, err := c.readCount(tr)
	if err != nil {
		return err
	}
	if err := c.checkCount(n, c.minEncodedSize(tr.Elem)); err != nil {
		return err
	}
	target, err := c.sequence(v, n)
	if err != nil {
		return err
	}
	for i := range n {
		if err := c.decode(target.Index(i), tr.Elem); err != nil {
			return err
		}
	}
	return nil
}

func (c *DeserializationContext) decodeMap(v reflect.Value, tr *typetraits.Traits) error {
	raw, err := c.Buffer.ReadUint64()
	if err != nil {
		return err
	}
	if raw > buffer.MaxCapacity {
		return csp.Errorf(csp.DataCorrupted, "element count %d is too large", raw)
	}
	n := int(raw)
	if err := c.checkCount(n, c.minEncodedSize(tr.Key)+c.minEncodedSize(tr.Elem)); err != nil {
		return err
	}
	if n == 0 {
		v.Set(reflect.Zero(v.Type()))
		c.claim(snapshot(v))
		return nil
	}

	m := reflect.MakeMapWithSize(v.Type(), min(n, c.Buffer.Remaining()))
	c.claim(m)
	v.Set(m)
	kt, et := v.Type().Key(), v.Type().Elem()
	for range n {
		k := reflect.New(kt).Elem()
		if err := c.decode(k, tr.Key); err != nil {
			return err
		}
		e := reflect.New(et).Elem()
		if err := c.decode(e, tr.Elem); err != nil {
			return err
		}
		m.SetMapIndex(k, e)
	}
	return nil
}

func (c *DeserializationContext) decodeCustom(v reflect.Value, tr *typetraits.Traits) error {
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(unmarshalerType) {
		return v.Addr().Interface().(Unmarshaler).UnmarshalCSP(c)
	}
	p, err := c.Registry.DeserializerProvider().Get(TypeKey(tr.Type))
	if err != nil {
		return err
	}
	return p.Deserialize(c, v, tr)
}
