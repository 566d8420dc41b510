package buffer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/andreygs/gocsp/pkg/csp"
)

func TestNewSerializationBufferDefaults(t *testing.T) {
	t.Parallel()

	b := NewSerializationBuffer()
	if b.Capacity() != DefaultCapacity {
		t.Errorf("Capacity: got %d, want %d", b.Capacity(), DefaultCapacity)
	}
	if b.ByteOrder() != binary.BigEndian {
		t.Errorf("ByteOrder: got %v, want big endian", b.ByteOrder())
	}
	if b.Bytes() != nil {
		t.Error("Bytes() before Commit should be nil")
	}
}

func TestSerializationBufferByteOrder(t *testing.T) {
	t.Parallel()

	b := NewSerializationBuffer(WithCapacity(4))
	b.WriteUint16(0x0102)
	b.SetByteOrder(binary.LittleEndian)
	b.WriteUint16(0x0102)

	got, err := b.Commit()
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if diff := cmp.Diff([]byte{0x01, 0x02, 0x02, 0x01}, got); diff != "" {
		t.Errorf("bytes mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializationBufferGrows(t *testing.T) {
	t.Parallel()

	b := NewSerializationBuffer(WithCapacity(1))
	for i := range 100 {
		b.WriteUint64(uint64(i))
	}
	if b.Position() != 800 {
		t.Errorf("Position: got %d, want 800", b.Position())
	}
	if b.Capacity() != 1024 {
		t.Errorf("Capacity: got %d, want 1024", b.Capacity())
	}

	data, err := b.Commit()
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	r := NewDeserializationBuffer(data, binary.BigEndian)
	for i := range 100 {
		v, err := r.ReadUint64()
		if err != nil {
			t.Fatalf("ReadUint64() #%d error: %v", i, err)
		}
		if v != uint64(i) {
			t.Fatalf("value #%d: got %d, want %d", i, v, i)
		}
	}
}

func TestCommitFlipsBuffer(t *testing.T) {
	t.Parallel()

	b := NewSerializationBuffer(WithCapacity(64))
	b.WriteInt32(-7)
	data, err := b.Commit()
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("committed length: got %d, want 4", len(data))
	}
	if b.Capacity() != 64 {
		t.Errorf("Capacity after commit: got %d, want 64", b.Capacity())
	}

	_ = b.WriteByte(1)
	if csp.StatusOf(b.Err()) != csp.Internal {
		t.Errorf("write after commit: got %v, want Internal", b.Err())
	}

	b.Reset()
	if b.Position() != 0 || b.Err() != nil {
		t.Errorf("Reset: position %d, err %v", b.Position(), b.Err())
	}
}

type failingStrategy struct{}

func (failingStrategy) CalculateNewSize(current, _ int) (int, error) { return current, nil }

func TestSerializationBufferStickyError(t *testing.T) {
	t.Parallel()

	b := NewSerializationBuffer(WithCapacity(2), WithResizeStrategy(failingStrategy{}))
	b.WriteUint16(1)
	b.WriteUint32(2)
	b.WriteUint8(3)

	if _, err := b.Commit(); csp.StatusOf(err) != csp.NoMemory {
		t.Errorf("Commit(): got %v, want NoMemory", err)
	}
	if b.Position() != 2 {
		t.Errorf("Position: got %d, want 2", b.Position())
	}
}

func TestWriteReadNumbers(t *testing.T) {
	t.Parallel()

	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		b := NewSerializationBuffer(WithByteOrder(order), WithCapacity(8))
		ints := []int32{1, -2, math.MaxInt32, math.MinInt32}
		floats := []float64{0.5, -1e300, math.Inf(1)}
		chars := []uint16{'a', 0x3042}

		WriteNumbers(b, ints)
		WriteNumbers(b, floats)
		WriteNumbers(b, chars)
		WriteNumbers(b, []int8{})

		wantLen := len(ints)*4 + len(floats)*8 + len(chars)*2
		if b.Position() != wantLen {
			t.Errorf("%v: Position: got %d, want %d", order, b.Position(), wantLen)
		}

		data, err := b.Commit()
		if err != nil {
			t.Fatalf("Commit() error: %v", err)
		}
		r := NewDeserializationBuffer(data, order)

		gotInts, err := ReadNumbers[int32](r, len(ints))
		if err != nil {
			t.Fatalf("ReadNumbers[int32] error: %v", err)
		}
		gotFloats, err := ReadNumbers[float64](r, len(floats))
		if err != nil {
			t.Fatalf("ReadNumbers[float64] error: %v", err)
		}
		gotChars, err := ReadNumbers[uint16](r, len(chars))
		if err != nil {
			t.Fatalf("ReadNumbers[uint16] error: %v", err)
		}

		if diff := cmp.Diff(ints, gotInts); diff != "" {
			t.Errorf("%v: int32 mismatch (-want +got):\n%s", order, diff)
		}
		if diff := cmp.Diff(floats, gotFloats); diff != "" {
			t.Errorf("%v: float64 mismatch (-want +got):\n%s", order, diff)
		}
		if diff := cmp.Diff(chars, gotChars); diff != "" {
			t.Errorf("%v: uint16 mismatch (-want +got):\n%s", order, diff)
		}
		if r.Remaining() != 0 {
			t.Errorf("%v: Remaining: got %d, want 0", order, r.Remaining())
		}
	}
}

func TestDeserializationBufferUnderflow(t *testing.T) {
	t.Parallel()

	r := NewDeserializationBuffer([]byte{1, 2, 3}, nil)
	if _, err := r.ReadUint32(); csp.StatusOf(err) != csp.DataCorrupted {
		t.Errorf("ReadUint32 on 3 octets: got %v, want DataCorrupted", err)
	}
	if r.Position() != 0 {
		t.Errorf("Position after failed read: got %d, want 0", r.Position())
	}
	if _, err := ReadNumbers[uint16](r, 2); csp.StatusOf(err) != csp.DataCorrupted {
		t.Errorf("ReadNumbers past end: got %v, want DataCorrupted", err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0x0102 {
		t.Errorf("ReadUint16: got %#x, %v", v, err)
	}
	if err := r.Skip(2); err == nil {
		t.Error("Skip past end should fail")
	}
}

func TestReadBool(t *testing.T) {
	t.Parallel()

	r := NewDeserializationBuffer([]byte{1, 0, 2}, nil)
	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("first bool: got %v, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || v {
		t.Errorf("second bool: got %v, %v", v, err)
	}
	if _, err := r.ReadBool(); csp.StatusOf(err) != csp.DataCorrupted {
		t.Errorf("bool octet 2: got %v, want DataCorrupted", err)
	}
}
