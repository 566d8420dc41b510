package processing

import (
	"reflect"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
	"github.com/andreygs/gocsp/pkg/csp/typetraits"
)

// DefaultMaxDepth bounds how deeply values may nest: struct fields,
// elements, map entries and references each add a level.
const DefaultMaxDepth = 1024

// Pointer marks.
const (
	markNull    uint8 = 0
	markNew     uint8 = 1
	markBackRef uint8 = 2
)

// ContextOption configures serialization and deserialization contexts.
type ContextOption func(*contextOptions)

type contextOptions struct {
	registry *Registry
	version  csp.InterfaceVersion
	maxDepth int
	charset  csp.Charset
}

// WithRegistry selects the processor registry. DefaultRegistry is used otherwise.
func WithRegistry(r *Registry) ContextOption {
	return func(o *contextOptions) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithInterfaceVersion records the interface version of the body.
func WithInterfaceVersion(v csp.InterfaceVersion) ContextOption {
	return func(o *contextOptions) { o.version = v }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithCharset sets the charset of strings whose traits do not choose one.
func WithCharset(cs csp.Charset) ContextOption {
	return func(o *contextOptions) { o.charset = cs }
}

func buildOptions(opts []ContextOption) contextOptions {
	o := contextOptions{
		registry: DefaultRegistry,
		maxDepth: DefaultMaxDepth,
		charset:  csp.DefaultCharset,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type pointerKey struct {
	typ  reflect.Type
	addr uintptr
	len  int
}

// SerializationContext carries the state of one body serialization.
type SerializationContext struct {
	Buffer           *buffer.SerializationBuffer
	Flags            csp.DataFlags
	Registry         *Registry
	InterfaceVersion csp.InterfaceVersion
	Charset          csp.Charset
	MaxDepth         int

	bodyStart int
	pointers  map[pointerKey]int
	depth     int
}

// NewSerializationContext starts a body at the current buffer position.
func NewSerializationContext(buf *buffer.SerializationBuffer, flags csp.DataFlags, opts ...ContextOption) *SerializationContext {
	o := buildOptions(opts)
	return &SerializationContext{
		Buffer:           buf,
		Flags:            flags,
		Registry:         o.registry,
		InterfaceVersion: o.version,
		Charset:          o.charset,
		MaxDepth:         o.maxDepth,
		bodyStart:        buf.Position(),
	}
}

func (c *SerializationContext) SizeOfIntegersMayBeNotEqual() bool {
	return csp.IsSet(c.Flags, csp.SizeOfIntegersMayBeNotEqual)
}

func (c *SerializationContext) AllowUnmanagedPointers() bool {
	return csp.IsSet(c.Flags, csp.AllowUnmanagedPointers)
}

func (c *SerializationContext) CheckRecursivePointers() bool {
	return csp.IsSet(c.Flags, csp.CheckRecursivePointers)
}

func (c *SerializationContext) MaintainLinkStructure() bool {
	return csp.IsSet(c.Flags, csp.CheckOfRecursivePointersWhileMaintainingLinkStructure)
}

// BodyStart is the buffer position where the body begins.
func (c *SerializationContext) BodyStart() int { return c.bodyStart }

func (c *SerializationContext) trackPointers() bool {
	return c.CheckRecursivePointers() || c.MaintainLinkStructure()
}

func (c *SerializationContext) charsetFor(tr *typetraits.Traits) csp.Charset {
	if tr.CharsetSet {
		return tr.Charset
	}
	return c.Charset
}

// DeserializationContext carries the state of one body deserialization.
type DeserializationContext struct {
	Buffer           *buffer.DeserializationBuffer
	Flags            csp.DataFlags
	Registry         *Registry
	InterfaceVersion csp.InterfaceVersion
	Charset          csp.Charset
	MaxDepth         int

	bodyStart int
	objects   map[int]reflect.Value
	// pending is the mark offset of a reference whose value is not yet
	// registered, -1 if none.
	pending int
	depth   int
}

// NewDeserializationContext starts reading a body at the current buffer position.
func NewDeserializationContext(buf *buffer.DeserializationBuffer, flags csp.DataFlags, opts ...ContextOption) *DeserializationContext {
	o := buildOptions(opts)
	return &DeserializationContext{
		Buffer:           buf,
		Flags:            flags,
		Registry:         o.registry,
		InterfaceVersion: o.version,
		Charset:          o.charset,
		MaxDepth:         o.maxDepth,
		bodyStart:        buf.Position(),
		pending:          -1,
	}
}

func (c *DeserializationContext) SizeOfIntegersMayBeNotEqual() bool {
	return csp.IsSet(c.Flags, csp.SizeOfIntegersMayBeNotEqual)
}

func (c *DeserializationContext) AllowUnmanagedPointers() bool {
	return csp.IsSet(c.Flags, csp.AllowUnmanagedPointers)
}

func (c *DeserializationContext) CheckRecursivePointers() bool {
	return csp.IsSet(c.Flags, csp.CheckRecursivePointers)
}

func (c *DeserializationContext) MaintainLinkStructure() bool {
	return csp.IsSet(c.Flags, csp.CheckOfRecursivePointersWhileMaintainingLinkStructure)
}

// BodyStart is the buffer position where the body begins.
func (c *DeserializationContext) BodyStart() int { return c.bodyStart }

func (c *DeserializationContext) trackPointers() bool {
	return c.CheckRecursivePointers() || c.MaintainLinkStructure()
}

func (c *DeserializationContext) charsetFor(tr *typetraits.Traits) csp.Charset {
	if tr.CharsetSet {
		return tr.Charset
	}
	return c.Charset
}

// claim registers v under the pending mark offset, if any.
func (c *DeserializationContext) claim(v reflect.Value) {
	if c.pending < 0 {
		return
	}
	if c.objects == nil {
		c.objects = make(map[int]reflect.Value)
	}
	c.objects[c.pending] = v
	c.pending = -1
}
