package message

import (
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
)

const (
	settingsRequest  uint8 = 0
	settingsResponse uint8 = 1
)

// InterfaceEntry is one struct a peer can handle.
type InterfaceEntry struct {
	ID      uuid.UUID
	Version csp.RawInterfaceVersion
}

// Settings describe what a peer accepts.
type Settings struct {
	ProtocolVersions     []csp.ProtocolVersion
	MandatoryCommonFlags csp.CommonFlags
	ForbiddenCommonFlags csp.CommonFlags
	Interfaces           []InterfaceEntry
}

// DefaultSettings accepts every supported protocol version and any flags.
func DefaultSettings() Settings {
	return Settings{ProtocolVersions: csp.SupportedProtocolVersions()}
}

// Accepts checks a request header against the settings.
func (s Settings) Accepts(h Header) error {
	if !slices.Contains(s.ProtocolVersions, h.ProtocolVersion) {
		return csp.Errorf(csp.NotSupportedProtocolVersion, "protocol version %d", h.ProtocolVersion)
	}
	if missing := s.MandatoryCommonFlags &^ h.CommonFlags; missing != 0 {
		return csp.Errorf(csp.NotCompatibleCommonFlagsSettings, "missing mandatory %s", missing)
	}
	if forbidden := s.ForbiddenCommonFlags & h.CommonFlags; forbidden != 0 {
		return csp.Errorf(csp.NotCompatibleCommonFlagsSettings, "forbidden %s", forbidden)
	}
	return nil
}

// EncodeSettingsRequest builds a GetSettings request.
func EncodeSettingsRequest(opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	h, err := o.header(csp.MessageTypeGetSettings)
	if err != nil {
		return nil, err
	}
	buf := buffer.NewSerializationBuffer(buffer.WithCapacity(HeaderSize+1), buffer.WithByteOrder(h.ByteOrder()))
	h.encode(buf)
	buf.WriteUint8(settingsRequest)
	return buf.Commit()
}

// EncodeSettingsResponse builds a GetSettings response carrying s.
func EncodeSettingsResponse(s Settings, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	h, err := o.header(csp.MessageTypeGetSettings)
	if err != nil {
		return nil, err
	}
	if len(s.ProtocolVersions) > math.MaxUint8 {
		return nil, csp.Errorf(csp.InvalidArgument, "%d protocol versions", len(s.ProtocolVersions))
	}
	if uint64(len(s.Interfaces)) > math.MaxUint32 {
		return nil, csp.Errorf(csp.InvalidArgument, "%d interfaces", len(s.Interfaces))
	}
	if !s.MandatoryCommonFlags.IsValid() || !s.ForbiddenCommonFlags.IsValid() {
		return nil, csp.NewError(csp.InvalidArgument, "settings carry unknown common flag bits")
	}

	buf := o.newBuffer(h)
	h.encode(buf)
	buf.WriteUint8(settingsResponse)
	buf.WriteUint8(uint8(len(s.ProtocolVersions)))
	for _, v := range s.ProtocolVersions {
		buf.WriteUint8(uint8(v))
	}
	buf.WriteUint16(uint16(s.MandatoryCommonFlags))
	buf.WriteUint16(uint16(s.ForbiddenCommonFlags))
	buf.WriteUint32(uint32(len(s.Interfaces)))
	for _, e := range s.Interfaces {
		buf.WriteBytes(e.ID[:])
		buf.WriteUint32(uint32(e.Version))
	}
	return buf.Commit()
}

func parseSettings(h Header, b *buffer.DeserializationBuffer) (*SettingsMessage, error) {
	kind, err := b.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &SettingsMessage{Header: h}

	switch kind {
	case settingsRequest:
		m.Request = true
		if err := expectEnd(b); err != nil {
			return nil, err
		}
		return m, nil
	case settingsResponse:
	default:
		return nil, csp.Errorf(csp.DataCorrupted, "invalid settings kind %d", kind)
	}

	n, err := b.ReadUint8()
	if err != nil {
		return nil, err
	}
	raw, err := b.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	for _, v := range raw {
		m.Settings.ProtocolVersions = append(m.Settings.ProtocolVersions, csp.ProtocolVersion(v))
	}

	mandatory, err := b.ReadUint16()
	if err != nil {
		return nil, err
	}
	forbidden, err := b.ReadUint16()
	if err != nil {
		return nil, err
	}
	m.Settings.MandatoryCommonFlags = csp.CommonFlags(mandatory)
	m.Settings.ForbiddenCommonFlags = csp.CommonFlags(forbidden)

	count, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	const entrySize = 16 + 4
	if uint64(count) > uint64(b.Remaining()/entrySize) {
		return nil, csp.Errorf(csp.DataCorrupted, "%d interfaces with %d octets remaining", count, b.Remaining())
	}
	if count > 0 {
		m.Settings.Interfaces = make([]InterfaceEntry, 0, count)
	}
	for range count {
		id, err := readUUID(b)
		if err != nil {
			return nil, err
		}
		v, err := b.ReadUint32()
		if err != nil {
			return nil, err
		}
		m.Settings.Interfaces = append(m.Settings.Interfaces, InterfaceEntry{ID: id, Version: csp.RawInterfaceVersion(v)})
	}
	if err := expectEnd(b); err != nil {
		return nil, err
	}
	return m, nil
}
