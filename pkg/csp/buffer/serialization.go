// Package buffer provides the octet buffers used to build and read CSP messages.
package buffer

import (
	"encoding/binary"
	"math"

	"github.com/andreygs/gocsp/pkg/csp"
)

// DefaultCapacity is the initial capacity of a SerializationBuffer.
const DefaultCapacity = 256

// SerializationBuffer is a growable octet buffer with an explicit byte order.
//
// Write failures are sticky: the first error is latched, later writes are
// ignored, and the error is reported by Err and Commit.
type SerializationBuffer struct {
	buf       []byte
	pos       int
	order     binary.ByteOrder
	strategy  ResizeStrategy
	committed bool
	err       error
}

// Option configures a SerializationBuffer.
type Option func(*SerializationBuffer)

// WithCapacity sets the initial capacity. Non-positive values keep the default.
func WithCapacity(n int) Option {
	return func(b *SerializationBuffer) {
		if n > 0 && n <= MaxCapacity {
			b.buf = make([]byte, n)
		}
	}
}

// WithResizeStrategy replaces the growth policy.
func WithResizeStrategy(s ResizeStrategy) Option {
	return func(b *SerializationBuffer) {
		if s != nil {
			b.strategy = s
		}
	}
}

// WithByteOrder sets the initial byte order.
func WithByteOrder(o binary.ByteOrder) Option {
	return func(b *SerializationBuffer) {
		if o != nil {
			b.order = o
		}
	}
}

// NewSerializationBuffer creates a big-endian buffer of DefaultCapacity
// using the doubling strategy, then applies opts.
func NewSerializationBuffer(opts ...Option) *SerializationBuffer {
	b := &SerializationBuffer{
		order:    binary.BigEndian,
		strategy: DefaultResizeStrategy,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.buf == nil {
		b.buf = make([]byte, DefaultCapacity)
	}
	return b
}

// ByteOrder returns the order applied to multi-octet writes.
func (b *SerializationBuffer) ByteOrder() binary.ByteOrder { return b.order }

// SetByteOrder changes the order for subsequent writes.
func (b *SerializationBuffer) SetByteOrder(o binary.ByteOrder) { b.order = o }

// Position is the number of octets written so far.
func (b *SerializationBuffer) Position() int { return b.pos }

func (b *SerializationBuffer) Capacity() int { return len(b.buf) }

// Err returns the first write error, if any.
func (b *SerializationBuffer) Err() error { return b.err }

// Committed reports whether Commit has been called.
func (b *SerializationBuffer) Committed() bool { return b.committed }

// Commit freezes the buffer and returns the written octets.
func (b *SerializationBuffer) Commit() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.committed = true
	return b.buf[:b.pos:b.pos], nil
}

// Bytes returns the committed octets, or nil before Commit.
func (b *SerializationBuffer) Bytes() []byte {
	if !b.committed || b.err != nil {
		return nil
	}
	return b.buf[:b.pos:b.pos]
}

// Reset reopens the buffer for writing, keeping its capacity.
func (b *SerializationBuffer) Reset() {
	b.pos = 0
	b.committed = false
	b.err = nil
}

// fail latches err unless an error is already recorded.
func (b *SerializationBuffer) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// reserve makes room for n more octets and returns the slice to fill, or
// nil when the buffer is in an error state.
func (b *SerializationBuffer) reserve(n int) []byte {
	if b.err != nil {
		return nil
	}
	if b.committed {
		b.fail(csp.NewError(csp.Internal, "write to committed buffer"))
		return nil
	}
	if n < 0 || n > MaxCapacity-b.pos {
		b.fail(csp.Errorf(csp.NoMemory, "cannot grow buffer by %d octets", n))
		return nil
	}

	need := b.pos + n
	if need > len(b.buf) {
		size, err := b.strategy.CalculateNewSize(len(b.buf), need)
		if err != nil {
			b.fail(err)
			return nil
		}
		if size < need {
			b.fail(csp.Errorf(csp.NoMemory, "resize strategy returned %d, need %d", size, need))
			return nil
		}
		grown := make([]byte, size)
		copy(grown, b.buf[:b.pos])
		b.buf = grown
	}

	dst := b.buf[b.pos:need]
	b.pos = need
	return dst
}

// Write implements io.Writer.
func (b *SerializationBuffer) Write(p []byte) (int, error) {
	dst := b.reserve(len(p))
	if dst == nil {
		return 0, b.err
	}
	return copy(dst, p), nil
}

// WriteByte implements io.ByteWriter.
func (b *SerializationBuffer) WriteByte(c byte) error {
	if dst := b.reserve(1); dst != nil {
		dst[0] = c
	}
	return b.err
}

func (b *SerializationBuffer) WriteBytes(p []byte) {
	if dst := b.reserve(len(p)); dst != nil {
		copy(dst, p)
	}
}

func (b *SerializationBuffer) WriteBool(v bool) {
	var c byte
	if v {
		c = 1
	}
	_ = b.WriteByte(c)
}

func (b *SerializationBuffer) WriteUint8(v uint8) { _ = b.WriteByte(v) }

func (b *SerializationBuffer) WriteInt8(v int8) { _ = b.WriteByte(byte(v)) }

func (b *SerializationBuffer) WriteUint16(v uint16) {
	if dst := b.reserve(2); dst != nil {
		b.order.PutUint16(dst, v)
	}
}

func (b *SerializationBuffer) WriteInt16(v int16) { b.WriteUint16(uint16(v)) }

func (b *SerializationBuffer) WriteUint32(v uint32) {
	if dst := b.reserve(4); dst != nil {
		b.order.PutUint32(dst, v)
	}
}

func (b *SerializationBuffer) WriteInt32(v int32) { b.WriteUint32(uint32(v)) }

func (b *SerializationBuffer) WriteUint64(v uint64) {
	if dst := b.reserve(8); dst != nil {
		b.order.PutUint64(dst, v)
	}
}

func (b *SerializationBuffer) WriteInt64(v int64) { b.WriteUint64(uint64(v)) }

func (b *SerializationBuffer) WriteFloat32(v float32) { b.WriteUint32(math.Float32bits(v)) }

func (b *SerializationBuffer) WriteFloat64(v float64) { b.WriteUint64(math.Float64bits(v)) }

// WriteNumbers writes values back to back in the buffer byte order and
// advances the position by len(values)*SizeOf[T]().
func WriteNumbers[T Number](b *SerializationBuffer, values []T) {
	size := SizeOf[T]()
	if len(values) > MaxCapacity/size {
		b.fail(csp.Errorf(csp.NoMemory, "array of %d elements is too large", len(values)))
		return
	}
	dst := b.reserve(len(values) * size)
	if dst == nil {
		return
	}
	for i, v := range values {
		putNumber(b.order, dst[i*size:], v)
	}
}
