// Package typetraits describes how Go types are laid out in a CSP data
// message body.
//
// A Traits tree mirrors a Go type: containers carry their element (and key)
// traits, structs carry their fields. Traits are derived from reflect.Type
// with FromType, honouring `csp` struct tags, or assembled by hand with a
// Builder.
package typetraits

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/andreygs/gocsp/pkg/csp"
)

// Kind is the wire category of a type.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindString
	// KindArray is a sequence of primitives written in bulk.
	KindArray
	// KindCollection is a sequence of non-primitive elements.
	KindCollection
	KindMap
	KindStruct
	// KindReference is a Go pointer.
	KindReference
	// KindCustom is encoded entirely by a specialized processor.
	KindCustom
)

var kindNames = [...]string{
	KindPrimitive:  "Primitive",
	KindString:     "String",
	KindArray:      "Array",
	KindCollection: "Collection",
	KindMap:        "Map",
	KindStruct:     "Struct",
	KindReference:  "Reference",
	KindCustom:     "Custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsContainer reports whether nodes of kind k own child traits.
func (k Kind) IsContainer() bool {
	switch k {
	case KindArray, KindCollection, KindMap, KindReference:
		return true
	}
	return false
}

// Traits is one node of a type description.
type Traits struct {
	Kind Kind
	Type reflect.Type

	// Reference puts the value behind a pointer mark. Always true for KindReference.
	Reference bool
	// FixedSize is the exact element count of an array or collection, 0 if unbounded.
	FixedSize int
	Charset   csp.Charset
	// CharsetSet marks Charset as chosen for this node. Strings without it
	// use the charset of the processing context.
	CharsetSet bool
	// Processor names a registered processor that replaces the general one.
	Processor string

	Elem   *Traits
	Key    *Traits
	Fields []Field
}

// Field is a serialized struct field.
type Field struct {
	Name   string
	Index  int
	Traits *Traits
}

// clone returns a shallow copy so tag options can be applied per field.
func (t *Traits) clone() *Traits {
	c := *t
	return &c
}

// String renders the tree, one node per line.
func (t *Traits) String() string {
	var sb strings.Builder
	t.write(&sb, "", 0, map[*Traits]bool{})
	return strings.TrimSuffix(sb.String(), "\n")
}

func (t *Traits) write(sb *strings.Builder, label string, depth int, seen map[*Traits]bool) {
	sb.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		sb.WriteString(label + ": ")
	}
	fmt.Fprintf(sb, "%s %v", t.Kind, t.Type)
	if t.Reference && t.Kind != KindReference {
		sb.WriteString(" ref")
	}
	if t.FixedSize > 0 {
		fmt.Fprintf(sb, " fixed=%d", t.FixedSize)
	}
	if t.Kind == KindString && t.CharsetSet {
		sb.WriteString(" charset=" + t.Charset.String())
	}
	if t.Processor != "" {
		sb.WriteString(" processor=" + t.Processor)
	}
	if seen[t] {
		sb.WriteString(" (recursive)\n")
		return
	}
	sb.WriteString("\n")

	seen[t] = true
	defer delete(seen, t)
	if t.Key != nil {
		t.Key.write(sb, "key", depth+1, seen)
	}
	if t.Elem != nil {
		t.Elem.write(sb, "elem", depth+1, seen)
	}
	for _, f := range t.Fields {
		f.Traits.write(sb, f.Name, depth+1, seen)
	}
}
