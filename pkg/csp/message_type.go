package csp

import "strconv"

// MessageType identifies the kind of a CSP message.
type MessageType uint16

const (
	MessageTypeStatus      MessageType = 0
	MessageTypeData        MessageType = 1
	MessageTypeGetSettings MessageType = 2
)

func (t MessageType) String() string {
	name := msgMessageTypeUnknown
	switch t {
	case MessageTypeStatus:
		name = msgMessageTypeStatus
	case MessageTypeData:
		name = msgMessageTypeData
	case MessageTypeGetSettings:
		name = msgMessageTypeGetSettings
	}
	return messageTypeTypeName + ": " + name
}

// IsValid reports whether t is a known message type.
func (t MessageType) IsValid() bool {
	return t <= MessageTypeGetSettings
}

// ProtocolVersion is the CSP wire protocol revision.
type ProtocolVersion uint8

const (
	ProtocolVersion1 ProtocolVersion = 1
	ProtocolVersion2 ProtocolVersion = 2

	LatestProtocolVersion = ProtocolVersion2
)

// SupportedProtocolVersions returns the supported versions, newest first.
func SupportedProtocolVersions() []ProtocolVersion {
	return []ProtocolVersion{ProtocolVersion2, ProtocolVersion1}
}

// IsSupported reports whether v can be encoded and decoded.
func (v ProtocolVersion) IsSupported() bool {
	return v == ProtocolVersion1 || v == ProtocolVersion2
}

func (v ProtocolVersion) String() string {
	return protocolVersionTypeName + ": " + strconv.Itoa(int(v))
}
