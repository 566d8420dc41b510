// Package message frames CSP messages: status, data and settings.
//
// Every message starts with a 5-octet header: the protocol version, the
// common flags (always little endian) and the message type (in message
// order). Data messages then carry the struct UUID, the interface version,
// the data flags and the body produced by package processing.
package message

import (
	"cmp"

	"github.com/google/uuid"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

// Message is a parsed CSP message: *StatusMessage, *DataMessage or
// *SettingsMessage.
type Message interface {
	MessageHeader() Header
}

// Serializable is a struct that can travel in a data message.
type Serializable interface {
	CSPStructID() uuid.UUID
	CSPInterfaceVersion() csp.InterfaceVersion
}

// StatusMessage carries a single status code.
type StatusMessage struct {
	Header
	Status csp.Status
}

// Err returns the carried status as an error, or nil for csp.NoError.
func (m *StatusMessage) Err() error {
	if !m.Status.IsError() {
		return nil
	}
	return csp.NewError(m.Status, "peer reported")
}

// DataMessage is a parsed data message. Body is a copy of the octets after
// the data flags.
type DataMessage struct {
	Header
	StructID         uuid.UUID
	InterfaceVersion csp.RawInterfaceVersion
	DataFlags        csp.DataFlags
	Body             []byte
}

// DecodeBody deserializes the body into out, which must be a non-nil
// pointer. The whole body must be consumed.
func (m *DataMessage) DecodeBody(out any, opts ...processing.ContextOption) error {
	buf := buffer.NewDeserializationBuffer(m.Body, m.ByteOrder())
	opts = append([]processing.ContextOption{processing.WithInterfaceVersion(m.InterfaceVersion)}, opts...)
	ctx := processing.NewDeserializationContext(buf, m.DataFlags, opts...)
	if err := processing.Deserialize(ctx, out); err != nil {
		return err
	}
	if r := buf.Remaining(); r != 0 {
		return csp.Errorf(csp.DataCorrupted, "%d octets after the body", r)
	}
	return nil
}

// SettingsMessage is a GetSettings request or response.
type SettingsMessage struct {
	Header
	Request  bool
	Settings Settings
}

// CheckCompatibility reports whether msg can be decoded into out.
func CheckCompatibility(msg *DataMessage, out Serializable) error {
	if msg.StructID != out.CSPStructID() {
		return csp.Errorf(csp.MismatchOfStructID, "message carries %s, target is %s", msg.StructID, out.CSPStructID())
	}
	if !msg.DataFlags.IsValid() || !csp.IsSet(msg.DataFlags, csp.SimplyAssignableTagsOptimizationsAreTurnedOff) {
		return csp.Errorf(csp.NotCompatibleDataFlagsSettings, "data flags 0x%08x", uint32(msg.DataFlags))
	}

	own := out.CSPInterfaceVersion().RawVersion()
	switch cmp.Compare(msg.InterfaceVersion.RawVersion(), own) {
	case 1:
		return csp.Errorf(csp.NotSupportedInterfaceVersion, "version %d is newer than %d", msg.InterfaceVersion, own)
	case -1:
		if _, ok := out.(processing.VersionConverter); !ok {
			return csp.Errorf(csp.NotSupportedInterfaceVersion, "version %d is older than %d and %T has no converter",
				msg.InterfaceVersion, own, out)
		}
	}
	return nil
}

// Unmarshal parses data and decodes a data message into out. A status
// message carrying an error is returned as that error.
func Unmarshal(data []byte, out Serializable, opts ...processing.ContextOption) error {
	msg, err := Parse(data)
	if err != nil {
		return err
	}

	var dm *DataMessage
	switch m := msg.(type) {
	case *DataMessage:
		dm = m
	case *StatusMessage:
		if err := m.Err(); err != nil {
			return err
		}
		return csp.NewError(csp.InvalidType, "expected a data message, got a status message")
	default:
		return csp.Errorf(csp.InvalidType, "expected a data message, got %s", msg.MessageHeader().MessageType)
	}

	if err := CheckCompatibility(dm, out); err != nil {
		return err
	}
	if dm.InterfaceVersion.RawVersion() == out.CSPInterfaceVersion().RawVersion() {
		return dm.DecodeBody(out, opts...)
	}

	conv := out.(processing.VersionConverter)
	old := conv.LayoutForVersion(dm.InterfaceVersion)
	if old == nil {
		return csp.Errorf(csp.NotSupportedInterfaceVersion, "no layout for version %d", dm.InterfaceVersion)
	}
	if err := dm.DecodeBody(old, opts...); err != nil {
		return err
	}
	return conv.FromOlderVersion(old)
}
