package typetraits

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/andreygs/gocsp/pkg/csp"
)

// TagName is the struct tag key read by FromType.
const TagName = "csp"

// FromType derives traits from a Go type. Struct fields are read in
// declaration order; unexported fields and fields tagged `csp:"-"` are
// skipped. Tag options:
//
//	csp:"name,ref,fixed=4,charset=utf-8,processor=unixtime"
//
// Channels, functions, interfaces, complex numbers and unsafe pointers
// fail with csp.InvalidType unless a custom predicate claims them.
func FromType(t reflect.Type, opts ...Option) (*Traits, error) {
	if t == nil {
		return nil, csp.NewError(csp.InvalidArgument, "nil type")
	}
	d := &deriver{inProgress: map[reflect.Type]*Traits{}}
	for _, opt := range opts {
		opt(d)
	}
	return d.derive(t)
}

// Option adjusts FromType.
type Option func(*deriver)

// WithCustomTypes makes every type for which isCustom returns true a
// KindCustom leaf, encoded by a specialized processor.
func WithCustomTypes(isCustom func(reflect.Type) bool) Option {
	return func(d *deriver) {
		d.isCustom = isCustom
	}
}

type deriver struct {
	inProgress map[reflect.Type]*Traits
	isCustom   func(reflect.Type) bool
}

func (d *deriver) derive(t reflect.Type) (*Traits, error) {
	if tr, ok := d.inProgress[t]; ok {
		return tr, nil
	}
	if d.isCustom != nil && d.isCustom(t) {
		return &Traits{Kind: KindCustom, Type: t}, nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return &Traits{Kind: KindPrimitive, Type: t}, nil

	case reflect.String:
		return &Traits{Kind: KindString, Type: t, Charset: csp.DefaultCharset}, nil

	case reflect.Array, reflect.Slice:
		tr := &Traits{Kind: KindCollection, Type: t}
		if t.Kind() == reflect.Array {
			tr.FixedSize = t.Len()
		}
		d.inProgress[t] = tr
		defer delete(d.inProgress, t)
		elem, err := d.derive(t.Elem())
		if err != nil {
			return nil, err
		}
		tr.Elem = elem
		if elem.Kind == KindPrimitive && elem.Processor == "" {
			tr.Kind = KindArray
		}
		return tr, nil

	case reflect.Map:
		tr := &Traits{Kind: KindMap, Type: t}
		d.inProgress[t] = tr
		defer delete(d.inProgress, t)
		key, err := d.derive(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := d.derive(t.Elem())
		if err != nil {
			return nil, err
		}
		tr.Key, tr.Elem = key, elem
		return tr, nil

	case reflect.Pointer:
		tr := &Traits{Kind: KindReference, Type: t, Reference: true}
		d.inProgress[t] = tr
		defer delete(d.inProgress, t)
		elem, err := d.derive(t.Elem())
		if err != nil {
			return nil, err
		}
		tr.Elem = elem
		return tr, nil

	case reflect.Struct:
		return d.deriveStruct(t)
	}

	return nil, csp.Errorf(csp.InvalidType, "type %v of kind %s cannot be serialized", t, t.Kind())
}

func (d *deriver) deriveStruct(t reflect.Type) (*Traits, error) {
	tr := &Traits{Kind: KindStruct, Type: t}
	d.inProgress[t] = tr
	defer delete(d.inProgress, t)

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, hasTag := sf.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}

		ft, err := d.derive(sf.Type)
		if err != nil {
			return nil, csp.WrapError(csp.InvalidType, err, "field "+t.Name()+"."+sf.Name)
		}

		name := sf.Name
		if hasTag {
			opts, err := parseTag(tag)
			if err != nil {
				return nil, csp.WrapError(csp.InvalidArgument, err, "field "+t.Name()+"."+sf.Name)
			}
			if opts.name != "" {
				name = opts.name
			}
			if ft, err = opts.apply(ft); err != nil {
				return nil, csp.WrapError(csp.InvalidArgument, err, "field "+t.Name()+"."+sf.Name)
			}
		}

		tr.Fields = append(tr.Fields, Field{Name: name, Index: i, Traits: ft})
	}
	return tr, nil
}

type tagOptions struct {
	name      string
	ref       bool
	fixed     int
	charset   *csp.Charset
	processor string
}

func parseTag(tag string) (tagOptions, error) {
	parts := strings.Split(tag, ",")
	opts := tagOptions{name: strings.TrimSpace(parts[0])}

	for _, part := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "":
		case "ref":
			opts.ref = true
		case "fixed":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return opts, csp.Errorf(csp.InvalidArgument, "invalid fixed size %q", value)
			}
			opts.fixed = n
		case "charset":
			cs, err := csp.ParseCharset(value)
			if err != nil {
				return opts, err
			}
			opts.charset = &cs
		case "processor":
			if value == "" {
				return opts, csp.NewError(csp.InvalidArgument, "empty processor name")
			}
			opts.processor = value
		default:
			return opts, csp.Errorf(csp.InvalidArgument, "unknown tag option %q", key)
		}
	}
	return opts, nil
}

// apply returns a copy of tr adjusted by the tag options. tr itself may be
// shared with other fields and is never modified.
func (o tagOptions) apply(tr *Traits) (*Traits, error) {
	if !o.ref && o.fixed == 0 && o.charset == nil && o.processor == "" {
		return tr, nil
	}

	out := tr.clone()
	if o.ref {
		switch out.Kind {
		case KindPrimitive, KindStruct:
			return nil, csp.Errorf(csp.InvalidArgument, "%s %v cannot be a reference", out.Kind, out.Type)
		}
		out.Reference = true
	}
	if o.fixed > 0 {
		if out.Kind != KindArray && out.Kind != KindCollection {
			return nil, csp.Errorf(csp.InvalidArgument, "fixed size applies to arrays and collections, not %s", out.Kind)
		}
		if out.Type.Kind() == reflect.Array && out.Type.Len() != o.fixed {
			return nil, csp.Errorf(csp.InvalidArgument, "fixed=%d contradicts array length %d", o.fixed, out.Type.Len())
		}
		out.FixedSize = o.fixed
	}
	if o.charset != nil {
		switch {
		case out.Kind == KindString:
			out.Charset, out.CharsetSet = *o.charset, true
		case (out.Kind == KindCollection || out.Kind == KindReference) && out.Elem.Kind == KindString:
			elem := out.Elem.clone()
			elem.Charset, elem.CharsetSet = *o.charset, true
			out.Elem = elem
		default:
			return nil, csp.Errorf(csp.InvalidArgument, "charset applies to strings, not %s", out.Kind)
		}
	}
	if o.processor != "" {
		out.Processor = o.processor
	}
	return out, nil
}
