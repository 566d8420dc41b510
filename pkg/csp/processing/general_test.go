package processing

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type point struct {
	X, Y int32
}

type sample struct {
	Flag    bool
	I8      int8
	U16     uint16
	I       int
	U       uint64
	F32     float32
	F64     float64
	Name    string
	UTF8    string `csp:"utf8,charset=utf-8"`
	Bytes   []byte
	Ints    []int32
	Fixed   [3]int16
	Matrix  [2][2]uint8
	Points  []point
	Tags    map[string]int32
	Ptr     *point
	Nested  [][]string
	RefInts []int32 `csp:",ref"`
	NilRef  []int32 `csp:",ref"`
}

func newSample() sample {
	return sample{
		Flag:    true,
		I8:      -7,
		U16:     0xBEEF,
		I:       -1 << 40,
		U:       1 << 63,
		F32:     1.5,
		F64:     -2.25,
		Name:    "Grüße 🌍",
		UTF8:    "héllo",
		Bytes:   []byte{0, 1, 2, 255},
		Ints:    []int32{-1, 0, 1 << 30},
		Fixed:   [3]int16{1, -2, 3},
		Matrix:  [2][2]uint8{{1, 2}, {3, 4}},
		Points:  []point{{1, 2}, {-3, 4}},
		Tags:    map[string]int32{"b": 2, "a": 1, "c": 3},
		Ptr:     &point{X: 9, Y: 10},
		Nested:  [][]string{{"x"}, {}, {"y", "z"}},
		RefInts: []int32{5, 6},
	}
}

// roundTrip serializes in and deserializes the result into a fresh T.
func roundTrip[T any](t *testing.T, flags csp.DataFlags, in T, opts ...ContextOption) (T, []byte) {
	t.Helper()

	out, data, err := tryRoundTrip(flags, in, opts...)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	return out, data
}

func tryRoundTrip[T any](flags csp.DataFlags, in T, opts ...ContextOption) (T, []byte, error) {
	var out T
	data, err := serialize(flags, in, opts...)
	if err != nil {
		return out, nil, err
	}
	dctx := NewDeserializationContext(buffer.NewDeserializationBuffer(data, nil), flags, opts...)
	if err := Deserialize(dctx, &out); err != nil {
		return out, data, err
	}
	if r := dctx.Buffer.Remaining(); r != 0 {
		return out, data, csp.Errorf(csp.DataCorrupted, "%d octets left over", r)
	}
	return out, data, nil
}

func serialize(flags csp.DataFlags, v any, opts ...ContextOption) ([]byte, error) {
	buf := buffer.NewSerializationBuffer()
	if err := Serialize(NewSerializationContext(buf, flags, opts...), v); err != nil {
		return nil, err
	}
	return buf.Commit()
}

func deserialize(flags csp.DataFlags, data []byte, out any, opts ...ContextOption) error {
	return Deserialize(NewDeserializationContext(buffer.NewDeserializationBuffer(data, nil), flags, opts...), out)
}

func TestRoundTripAllFlagCombinations(t *testing.T) {
	t.Parallel()

	for mask := csp.DataFlags(0); mask <= csp.ValidDataFlagsMask; mask++ {
		if !csp.IsSet(mask, csp.AllowUnmanagedPointers) {
			continue
		}
		t.Run(mask.Describe(true, false), func(t *testing.T) {
			t.Parallel()

			in := newSample()
			out, _ := roundTrip(t, mask, in)
			if diff := cmp.Diff(in, out, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-in +out):\n%s", diff)
			}
		})
	}
}

type (
	tree   []tree
	forest map[string]forest
	family struct {
		Name string
		Kids []family
	}
	gauges struct {
		Readings map[float64]int32
		Peaks    map[float32]string
	}
)

// lineage returns a family nested n levels deep through Kids.
func lineage(n int) family {
	f := family{Name: "leaf"}
	for range n {
		f = family{Kids: []family{f}}
	}
	return f
}

func checkRoundTrip[T any](t *testing.T, flags csp.DataFlags, in T) {
	t.Helper()

	out, _ := roundTrip(t, flags, in)
	if diff := cmp.Diff(in, out, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-in +out):\n%s", diff)
	}
}

func TestRoundTripRecursiveAndNestedTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  func(t *testing.T, flags csp.DataFlags)
	}{
		{"recursive slice", func(t *testing.T, flags csp.DataFlags) {
			checkRoundTrip(t, flags, tree{{}, {{}, {{}}}})
		}},
		{"recursive map", func(t *testing.T, flags csp.DataFlags) {
			checkRoundTrip(t, flags, forest{"oak": {"acorn": nil}, "elm": {}})
		}},
		{"struct through slice", func(t *testing.T, flags csp.DataFlags) {
			checkRoundTrip(t, flags, lineage(200))
		}},
		{"float keys", func(t *testing.T, flags csp.DataFlags) {
			checkRoundTrip(t, flags, gauges{
				Readings: map[float64]int32{-1.5: 1, 0: 2, math.Inf(1): 3},
				Peaks:    map[float32]string{2.5: "high", -2.5: "low"},
			})
		}},
	}
	for mask := csp.DataFlags(0); mask <= csp.ValidDataFlagsMask; mask++ {
		for _, tt := range tests {
			t.Run(tt.name+"/"+mask.Describe(true, false), func(t *testing.T) {
				t.Parallel()
				tt.run(t, mask)
			})
		}
	}
}

func TestMapWithNaNKey(t *testing.T) {
	t.Parallel()

	in := gauges{Readings: map[float64]int32{math.NaN(): 1, 2: 3}}
	out, data := roundTrip(t, 0, in)
	if len(out.Readings) != 2 || out.Readings[2] != 3 {
		t.Fatalf("got %v", out.Readings)
	}
	for k, v := range out.Readings {
		if k != 2 && (!math.IsNaN(k) || v != 1) {
			t.Errorf("entry %v: %d", k, v)
		}
	}

	// NaN orders first: count, then NaN key and value, then 2 and 3.
	if got := math.Float64frombits(binary.BigEndian.Uint64(data[8:16])); !math.IsNaN(got) {
		t.Errorf("first key: got %v, want NaN", got)
	}
}

func TestSerializePointerArgumentUsesPointee(t *testing.T) {
	t.Parallel()

	p := point{X: 1, Y: 2}
	byValue, err := serialize(0, p)
	if err != nil {
		t.Fatalf("serialize value: %v", err)
	}
	byPointer, err := serialize(0, &p)
	if err != nil {
		t.Fatalf("serialize pointer: %v", err)
	}
	if diff := cmp.Diff(byValue, byPointer); diff != "" {
		t.Errorf("pointer argument changed the body (-value +pointer):\n%s", diff)
	}
}

func TestSerializeRejectsNil(t *testing.T) {
	t.Parallel()

	var p *point
	for _, v := range []any{nil, p} {
		if _, err := serialize(0, v); csp.StatusOf(err) != csp.InvalidArgument {
			t.Errorf("serialize(%#v): got %v, want InvalidArgument", v, err)
		}
	}
}

func TestDeserializeNeedsPointer(t *testing.T) {
	t.Parallel()

	var p point
	if err := deserialize(0, nil, p); csp.StatusOf(err) != csp.InvalidArgument {
		t.Errorf("got %v, want InvalidArgument", err)
	}
}

type wire struct {
	A uint16
	B bool
	S string `csp:",charset=utf-8"`
	L []uint8
	W string
}

func TestWireLayout(t *testing.T) {
	t.Parallel()

	in := wire{A: 0x0102, B: true, S: "hi", L: []uint8{7}, W: "A"}
	tests := []struct {
		name  string
		flags csp.DataFlags
		want  []byte
	}{
		{
			name:  "fixed width integers",
			flags: 0,
			want: []byte{
				0x01, 0x02,
				0x01,
				0, 0, 0, 0, 0, 0, 0, 2, 'h', 'i',
				0, 0, 0, 0, 0, 0, 0, 1, 7,
				0, 0, 0, 0, 0, 0, 0, 2, 0x00, 0x41,
			},
		},
		{
			name:  "size prefixed integers",
			flags: csp.SizeOfIntegersMayBeNotEqual,
			want: []byte{
				2, 0x01, 0x02,
				0x01,
				0, 0, 0, 0, 0, 0, 0, 2, 'h', 'i',
				0, 0, 0, 0, 0, 0, 0, 1, 1, 7,
				0, 0, 0, 0, 0, 0, 0, 2, 0x00, 0x41,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := serialize(tt.flags, in)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("wire mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapOutputIsDeterministic(t *testing.T) {
	t.Parallel()

	type table struct {
		M map[int32]bool
	}
	in := table{M: map[int32]bool{}}
	for i := range int32(64) {
		in.M[i*7%64] = i%2 == 0
	}

	first, err := serialize(0, in)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	for range 10 {
		again, err := serialize(0, in)
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("map output changed between runs:\n%s", diff)
		}
	}
	// count, then the smallest key
	if diff := cmp.Diff([]byte{0, 0, 0, 0}, first[8:12]); diff != "" {
		t.Errorf("first key is not 0:\n%s", diff)
	}
}

func TestFixedSize(t *testing.T) {
	t.Parallel()

	type fixed struct {
		V []int32 `csp:",fixed=2"`
	}

	data, err := serialize(0, fixed{V: []int32{1, 2}})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if diff := cmp.Diff([]byte{0, 0, 0, 1, 0, 0, 0, 2}, data); diff != "" {
		t.Errorf("fixed size array must have no count (-want +got):\n%s", diff)
	}

	if _, err := serialize(0, fixed{V: []int32{1, 2, 3}}); csp.StatusOf(err) != csp.InvalidArgument {
		t.Errorf("length mismatch: got %v, want InvalidArgument", err)
	}
}

func TestSkippedFields(t *testing.T) {
	t.Parallel()

	type partial struct {
		Kept    int8
		Skipped string `csp:"-"`
		hidden  int8
	}
	data, err := serialize(0, partial{Kept: 1, Skipped: "x", hidden: 2})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if diff := cmp.Diff([]byte{1}, data); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestDeserializeRejectsCorruptCounts(t *testing.T) {
	t.Parallel()

	type ints struct{ V []int32 }
	type strs struct{ V []string }
	type dict struct{ M map[string]string }

	huge := []byte{0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	tests := []struct {
		name string
		out  any
		data []byte
	}{
		{"array count beyond input", &ints{}, huge},
		{"collection count beyond input", &strs{}, huge},
		{"map count beyond input", &dict{}, huge},
		{"truncated element", &ints{}, []byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0}},
		{"empty input", &ints{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := deserialize(0, tt.data, tt.out)
			if csp.StatusOf(err) != csp.DataCorrupted {
				t.Errorf("got %v, want DataCorrupted", err)
			}
		})
	}
}

func TestDeserializeInvalidBool(t *testing.T) {
	t.Parallel()

	var out struct{ B bool }
	if err := deserialize(0, []byte{2}, &out); csp.StatusOf(err) != csp.DataCorrupted {
		t.Errorf("got %v, want DataCorrupted", err)
	}
}

func TestUnsupportedType(t *testing.T) {
	t.Parallel()

	type withChan struct{ C chan int }
	_, err := serialize(0, withChan{})
	if csp.StatusOf(err) != csp.InvalidType {
		t.Errorf("got %v, want InvalidType", err)
	}
	var target *csp.Error
	if !errors.As(err, &target) {
		t.Errorf("error %T is not a *csp.Error", err)
	}
}
