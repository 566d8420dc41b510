package processing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
)

const sized = csp.SizeOfIntegersMayBeNotEqual

func TestIntegerWidening(t *testing.T) {
	t.Parallel()

	type narrow struct {
		S int8
		U uint16
		A []int8
	}
	type wide struct {
		S int64
		U uint32
		A []int64
	}

	data, err := serialize(sized, narrow{S: -5, U: 65535, A: []int8{-1, 2}})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	var out wide
	if err := deserialize(sized, data, &out); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	want := wide{S: -5, U: 65535, A: []int64{-1, 2}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("widened value mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegerNarrowing(t *testing.T) {
	t.Parallel()

	type wide struct{ V int64 }
	type narrow struct{ V int8 }
	type wideU struct{ V uint64 }
	type narrowU struct{ V uint8 }
	type wideArr struct{ V []int32 }
	type narrowArr struct{ V []int16 }

	tests := []struct {
		name string
		in   any
		out  any
		want csp.Status
	}{
		{"signed fits", wide{V: -128}, &narrow{}, csp.NoError},
		{"signed overflow", wide{V: 300}, &narrow{}, csp.Overflow},
		{"unsigned fits", wideU{V: 255}, &narrowU{}, csp.NoError},
		{"unsigned overflow", wideU{V: 256}, &narrowU{}, csp.Overflow},
		{"array fits", wideArr{V: []int32{1, -1}}, &narrowArr{}, csp.NoError},
		{"array overflow", wideArr{V: []int32{1 << 20}}, &narrowArr{}, csp.Overflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := serialize(sized, tt.in)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			err = deserialize(sized, data, tt.out)
			if got := csp.StatusOf(err); got != tt.want {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIntegerInvalidWidth(t *testing.T) {
	t.Parallel()

	var out struct{ V int32 }
	err := deserialize(sized, []byte{3, 0, 0, 0}, &out)
	if csp.StatusOf(err) != csp.DataCorrupted {
		t.Errorf("got %v, want DataCorrupted", err)
	}
}

func TestIntAndUintAreEightOctets(t *testing.T) {
	t.Parallel()

	type native struct {
		I int
		U uint
	}
	data, err := serialize(0, native{I: -1, U: 1})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	want := []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0, 0, 0, 0, 0, 0, 0, 1,
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReadIntegerHelpers(t *testing.T) {
	t.Parallel()

	for _, flags := range []csp.DataFlags{0, sized} {
		buf := buffer.NewSerializationBuffer()
		sctx := NewSerializationContext(buf, flags)
		if err := WriteInteger(sctx, uint16(7)); err != nil {
			t.Fatalf("WriteInteger: %v", err)
		}
		if err := WriteInteger(sctx, -1); err != nil {
			t.Fatalf("WriteInteger: %v", err)
		}
		if err := WriteString(sctx, "ok", sctx.Charset); err != nil {
			t.Fatalf("WriteString: %v", err)
		}
		data, err := buf.Commit()
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}

		dctx := NewDeserializationContext(buffer.NewDeserializationBuffer(data, nil), flags)
		u, err := ReadInteger[uint16](dctx)
		if err != nil || u != 7 {
			t.Errorf("ReadInteger[uint16]: got %d, %v", u, err)
		}
		i, err := ReadInteger[int](dctx)
		if err != nil || i != -1 {
			t.Errorf("ReadInteger[int]: got %d, %v", i, err)
		}
		s, err := ReadString(dctx, dctx.Charset)
		if err != nil || s != "ok" {
			t.Errorf("ReadString: got %q, %v", s, err)
		}
		if dctx.Buffer.Remaining() != 0 {
			t.Errorf("%d octets left over", dctx.Buffer.Remaining())
		}
	}
}

func TestContextFlags(t *testing.T) {
	t.Parallel()

	sctx := NewSerializationContext(buffer.NewSerializationBuffer(), linkFlags|sized)
	if !sctx.SizeOfIntegersMayBeNotEqual() || !sctx.AllowUnmanagedPointers() || !sctx.MaintainLinkStructure() {
		t.Errorf("derived flags not set for %v", sctx.Flags)
	}
	if sctx.CheckRecursivePointers() {
		t.Error("CheckRecursivePointers should be unset")
	}
	if sctx.Registry != DefaultRegistry || sctx.MaxDepth != DefaultMaxDepth || sctx.Charset != csp.DefaultCharset {
		t.Error("context defaults not applied")
	}

	dctx := NewDeserializationContext(buffer.NewDeserializationBuffer(nil, nil), checkFlags,
		WithMaxDepth(3), WithInterfaceVersion(csp.RawInterfaceVersion(2)), WithCharset(csp.CharsetUTF8))
	if !dctx.CheckRecursivePointers() || dctx.SizeOfIntegersMayBeNotEqual() {
		t.Errorf("derived flags wrong for %v", dctx.Flags)
	}
	if dctx.MaxDepth != 3 || dctx.Charset != csp.CharsetUTF8 || dctx.InterfaceVersion.RawVersion() != 2 {
		t.Error("context options not applied")
	}
}

func TestContextCharsetAppliesToUntaggedStrings(t *testing.T) {
	t.Parallel()

	type names struct {
		Plain  string
		Tagged string `csp:",charset=UTF-16BE"`
	}
	in := names{Plain: "ab", Tagged: "ab"}

	buf := buffer.NewSerializationBuffer()
	if err := Serialize(NewSerializationContext(buf, 0, WithCharset(csp.CharsetUTF8)), in); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	data, err := buf.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	want := []byte{
		0, 0, 0, 0, 0, 0, 0, 2, 'a', 'b',
		0, 0, 0, 0, 0, 0, 0, 4, 0, 'a', 0, 'b',
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("wire mismatch (-want +got):\n%s", diff)
	}

	var out names
	dctx := NewDeserializationContext(buffer.NewDeserializationBuffer(data, nil), 0, WithCharset(csp.CharsetUTF8))
	if err := Deserialize(dctx, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}
