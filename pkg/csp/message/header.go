package message

import (
	"encoding/binary"
	"math/bits"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
)

// HeaderSize is the encoded size of a message header in octets.
const HeaderSize = 5

// Header is the common prefix of every CSP message.
type Header struct {
	ProtocolVersion csp.ProtocolVersion
	CommonFlags     csp.CommonFlags
	MessageType     csp.MessageType
}

// MessageHeader lets every message type embedding Header satisfy Message.
func (h Header) MessageHeader() Header { return h }

// ByteOrder is the order of everything after the common flags.
func (h Header) ByteOrder() binary.ByteOrder {
	return byteOrder(h.CommonFlags)
}

func byteOrder(f csp.CommonFlags) binary.ByteOrder {
	if csp.IsSet(f, csp.BigEndian) {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

var nativeBigEndian = binary.NativeEndian.Uint16([]byte{0, 1}) == 1

// PlatformFlags replaces the platform bits of f with those of the running
// process: EndiannessDifference when the message order is not native and
// Bitness32 on 32-bit platforms.
func PlatformFlags(f csp.CommonFlags) csp.CommonFlags {
	f &^= csp.Bitness32 | csp.EndiannessDifference
	if csp.IsSet(f, csp.BigEndian) != nativeBigEndian {
		f |= csp.EndiannessDifference
	}
	if bits.UintSize == 32 {
		f |= csp.Bitness32
	}
	return f
}

func (h Header) encode(b *buffer.SerializationBuffer) {
	b.WriteUint8(uint8(h.ProtocolVersion))
	b.SetByteOrder(binary.LittleEndian)
	b.WriteUint16(uint16(h.CommonFlags))
	b.SetByteOrder(h.ByteOrder())
	b.WriteUint16(uint16(h.MessageType))
}

// parseHeader validates the header and switches b to the message order.
func parseHeader(b *buffer.DeserializationBuffer) (Header, error) {
	if b.Remaining() < HeaderSize {
		return Header{}, csp.Errorf(csp.DataCorrupted, "message of %d octets is shorter than its header", b.Remaining())
	}
	var h Header

	v, _ := b.ReadUint8()
	h.ProtocolVersion = csp.ProtocolVersion(v)
	if !h.ProtocolVersion.IsSupported() {
		return h, csp.Errorf(csp.NotSupportedProtocolVersion, "protocol version %d", v)
	}

	b.SetByteOrder(binary.LittleEndian)
	f, _ := b.ReadUint16()
	h.CommonFlags = csp.CommonFlags(f)
	if !h.CommonFlags.IsValid() {
		return h, csp.Errorf(csp.NotCompatibleCommonFlagsSettings, "unknown common flag bits 0x%04x", f)
	}

	b.SetByteOrder(h.ByteOrder())
	t, _ := b.ReadUint16()
	h.MessageType = csp.MessageType(t)
	if !h.MessageType.IsValid() {
		return h, csp.Errorf(csp.InvalidType, "message type %d", t)
	}
	return h, nil
}
