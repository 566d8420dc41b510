package message

import (
	"github.com/google/uuid"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
)

// Parse decodes a complete message. Data message bodies are not decoded;
// see DataMessage.DecodeBody.
func Parse(data []byte) (Message, error) {
	b := buffer.NewDeserializationBuffer(data, nil)
	h, err := parseHeader(b)
	if err != nil {
		return nil, err
	}

	switch h.MessageType {
	case csp.MessageTypeStatus:
		return parseStatus(h, b)
	case csp.MessageTypeData:
		return parseData(h, b)
	default:
		return parseSettings(h, b)
	}
}

func parseStatus(h Header, b *buffer.DeserializationBuffer) (*StatusMessage, error) {
	s, err := b.ReadInt32()
	if err != nil {
		return nil, err
	}
	if err := expectEnd(b); err != nil {
		return nil, err
	}
	return &StatusMessage{Header: h, Status: csp.Status(s)}, nil
}

func parseData(h Header, b *buffer.DeserializationBuffer) (*DataMessage, error) {
	m := &DataMessage{Header: h}
	id, err := readUUID(b)
	if err != nil {
		return nil, err
	}
	m.StructID = id

	v, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	m.InterfaceVersion = csp.RawInterfaceVersion(v)

	f, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	m.DataFlags = csp.DataFlags(f)

	if m.Body, err = b.ReadBytes(b.Remaining()); err != nil {
		return nil, err
	}
	return m, nil
}

func readUUID(b *buffer.DeserializationBuffer) (uuid.UUID, error) {
	raw, err := b.ReadBytes(16)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(raw)
}

func expectEnd(b *buffer.DeserializationBuffer) error {
	if r := b.Remaining(); r != 0 {
		return csp.Errorf(csp.DataCorrupted, "%d trailing octets", r)
	}
	return nil
}
