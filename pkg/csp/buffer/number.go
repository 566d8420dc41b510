package buffer

import (
	"encoding/binary"
	"unsafe"
)

// Number is any fixed-width numeric type the buffers can encode.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// SizeOf returns the encoded width of T in octets.
func SizeOf[T Number]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// putNumber stores the bit pattern of v. Floats share the layout of the
// same-width unsigned integer, so no per-kind switch is needed.
func putNumber[T Number](order binary.ByteOrder, dst []byte, v T) {
	p := unsafe.Pointer(&v)
	switch unsafe.Sizeof(v) {
	case 1:
		dst[0] = *(*uint8)(p)
	case 2:
		order.PutUint16(dst, *(*uint16)(p))
	case 4:
		order.PutUint32(dst, *(*uint32)(p))
	case 8:
		order.PutUint64(dst, *(*uint64)(p))
	}
}

func getNumber[T Number](order binary.ByteOrder, src []byte) T {
	var v T
	p := unsafe.Pointer(&v)
	switch unsafe.Sizeof(v) {
	case 1:
		*(*uint8)(p) = src[0]
	case 2:
		*(*uint16)(p) = order.Uint16(src)
	case 4:
		*(*uint32)(p) = order.Uint32(src)
	case 8:
		*(*uint64)(p) = order.Uint64(src)
	}
	return v
}
