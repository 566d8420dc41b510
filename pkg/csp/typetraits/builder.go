package typetraits

import (
	"reflect"

	"github.com/andreygs/gocsp/pkg/csp"
)

// Builder assembles a Traits tree depth first. Container nodes stay open
// until all their children are added; leaves close immediately. The first
// misuse is latched and reported by Build.
//
//	tr, err := typetraits.NewBuilder().
//		Add(typetraits.KindMap, reflect.TypeFor[map[string][]int32]()).
//		Add(typetraits.KindString, reflect.TypeFor[string]()).SetCharset(csp.CharsetUTF8).
//		Add(typetraits.KindArray, reflect.TypeFor[[]int32]()).SetReference().
//		Add(typetraits.KindPrimitive, reflect.TypeFor[int32]()).
//		Build()
type Builder struct {
	root    *Traits
	current *Traits
	open    []*Traits
	done    bool
	err     error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = csp.Errorf(csp.InvalidArgument, format, args...)
	}
	return b
}

// Add appends a node of the given kind as the next child of the innermost
// open container, or as the root.
func (b *Builder) Add(kind Kind, t reflect.Type) *Builder {
	if b.err != nil {
		return b
	}
	if b.done {
		return b.fail("type traits already built to the end")
	}
	if t == nil {
		return b.fail("nil type for %s node", kind)
	}

	node := &Traits{Kind: kind, Type: t, Reference: kind == KindReference}
	if kind == KindStruct {
		st, err := FromType(t)
		if err != nil {
			b.err = err
			return b
		}
		node = st.clone()
	}

	if b.root == nil {
		if kind == KindPrimitive {
			return b.fail("primitive cannot be the root of type traits")
		}
		b.root = node
	} else {
		parent := b.open[len(b.open)-1]
		switch {
		case parent.Kind == KindMap && parent.Key == nil:
			parent.Key = node
		default:
			parent.Elem = node
		}
	}
	b.current = node

	if kind.IsContainer() {
		b.open = append(b.open, node)
	} else {
		b.closeFilled()
	}
	return b
}

// closeFilled pops every container whose children are all present.
func (b *Builder) closeFilled() {
	for len(b.open) > 0 {
		top := b.open[len(b.open)-1]
		if top.Elem == nil {
			return
		}
		b.open = b.open[:len(b.open)-1]
	}
	b.done = true
}

func (b *Builder) requireCurrent(op string) bool {
	if b.err != nil {
		return false
	}
	if b.current == nil {
		b.fail("%s called before any node was added", op)
		return false
	}
	return true
}

// SetReference marks the current node as serialized behind a pointer mark.
func (b *Builder) SetReference() *Builder {
	if !b.requireCurrent("SetReference") {
		return b
	}
	if b.current.Kind == KindPrimitive {
		return b.fail("primitive %v cannot be a reference", b.current.Type)
	}
	b.current.Reference = true
	return b
}

// SetFixedSize fixes the element count of the current array or collection.
func (b *Builder) SetFixedSize(n int) *Builder {
	if !b.requireCurrent("SetFixedSize") {
		return b
	}
	if b.current.Kind != KindArray && b.current.Kind != KindCollection {
		return b.fail("fixed size applies to arrays and collections, not %s", b.current.Kind)
	}
	if n <= 0 {
		return b.fail("fixed size must be positive, got %d", n)
	}
	b.current.FixedSize = n
	return b
}

// SetCharset selects the encoding of the current string node.
func (b *Builder) SetCharset(cs csp.Charset) *Builder {
	if !b.requireCurrent("SetCharset") {
		return b
	}
	if b.current.Kind != KindString {
		return b.fail("charset applies to strings, not %s", b.current.Kind)
	}
	if !cs.IsValid() {
		return b.fail("unknown charset %d", uint8(cs))
	}
	b.current.Charset, b.current.CharsetSet = cs, true
	return b
}

// SetProcessor names the specialized processor of the current node.
func (b *Builder) SetProcessor(name string) *Builder {
	if !b.requireCurrent("SetProcessor") {
		return b
	}
	b.current.Processor = name
	return b
}

// Build returns the root once every container has been completed.
func (b *Builder) Build() (*Traits, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.root == nil {
		return nil, csp.NewError(csp.InvalidArgument, "no root type traits were added")
	}
	if !b.done {
		return nil, csp.NewError(csp.InvalidArgument, "type traits were not built to the end")
	}
	return b.root, nil
}
