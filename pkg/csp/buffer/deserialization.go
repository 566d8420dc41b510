package buffer

import (
	"encoding/binary"
	"math"

	"github.com/andreygs/gocsp/pkg/csp"
)

// DeserializationBuffer is a read cursor over committed message octets.
// A read that would pass the end fails with csp.DataCorrupted and leaves
// the cursor unchanged.
type DeserializationBuffer struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewDeserializationBuffer wraps data. A nil order means big endian.
func NewDeserializationBuffer(data []byte, order binary.ByteOrder) *DeserializationBuffer {
	if order == nil {
		order = binary.BigEndian
	}
	return &DeserializationBuffer{data: data, order: order}
}

func (b *DeserializationBuffer) ByteOrder() binary.ByteOrder { return b.order }

func (b *DeserializationBuffer) SetByteOrder(o binary.ByteOrder) { b.order = o }

func (b *DeserializationBuffer) Position() int { return b.pos }

func (b *DeserializationBuffer) Remaining() int { return len(b.data) - b.pos }

// Len returns the total number of octets.
func (b *DeserializationBuffer) Len() int { return len(b.data) }

func (b *DeserializationBuffer) next(n int) ([]byte, error) {
	if n < 0 || n > len(b.data)-b.pos {
		return nil, csp.Errorf(csp.DataCorrupted,
			"need %d octets at offset %d, %d remaining", n, b.pos, len(b.data)-b.pos)
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p, nil
}

// Skip advances the cursor by n octets.
func (b *DeserializationBuffer) Skip(n int) error {
	_, err := b.next(n)
	return err
}

// ReadByte implements io.ByteReader.
func (b *DeserializationBuffer) ReadByte() (byte, error) {
	p, err := b.next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadBytes returns a copy of the next n octets.
func (b *DeserializationBuffer) ReadBytes(n int) ([]byte, error) {
	p, err := b.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, p)
	return out, nil
}

// ReadBool accepts only 0 and 1.
func (b *DeserializationBuffer) ReadBool() (bool, error) {
	c, err := b.ReadByte()
	if err != nil {
		return false, err
	}
	switch c {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, csp.Errorf(csp.DataCorrupted, "invalid bool octet %#x at offset %d", c, b.pos-1)
}

func (b *DeserializationBuffer) ReadUint8() (uint8, error) { return b.ReadByte() }

func (b *DeserializationBuffer) ReadInt8() (int8, error) {
	v, err := b.ReadByte()
	return int8(v), err
}

func (b *DeserializationBuffer) ReadUint16() (uint16, error) {
	p, err := b.next(2)
	if err != nil {
		return 0, err
	}
	return b.order.Uint16(p), nil
}

func (b *DeserializationBuffer) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

func (b *DeserializationBuffer) ReadUint32() (uint32, error) {
	p, err := b.next(4)
	if err != nil {
		return 0, err
	}
	return b.order.Uint32(p), nil
}

func (b *DeserializationBuffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

func (b *DeserializationBuffer) ReadUint64() (uint64, error) {
	p, err := b.next(8)
	if err != nil {
		return 0, err
	}
	return b.order.Uint64(p), nil
}

func (b *DeserializationBuffer) ReadInt64() (int64, error) {
	v, err := b.ReadUint64()
	return int64(v), err
}

func (b *DeserializationBuffer) ReadFloat32() (float32, error) {
	v, err := b.ReadUint32()
	return math.Float32frombits(v), err
}

func (b *DeserializationBuffer) ReadFloat64() (float64, error) {
	v, err := b.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadNumbers reads n consecutive values of T.
func ReadNumbers[T Number](b *DeserializationBuffer, n int) ([]T, error) {
	size := SizeOf[T]()
	if n < 0 || n > b.Remaining()/size {
		return nil, csp.Errorf(csp.DataCorrupted,
			"array of %d elements of %d octets exceeds %d remaining", n, size, b.Remaining())
	}
	p, err := b.next(n * size)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		out[i] = getNumber[T](b.order, p[i*size:])
	}
	return out, nil
}
