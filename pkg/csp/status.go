package csp

import (
	"fmt"
	"maps"
	"slices"
)

// Status is a CSP operation result code. Negative values are errors.
type Status int32

const (
	NoError                                Status = 0
	NoMemory                               Status = -1
	InvalidArgument                        Status = -2
	Overflow                               Status = -3
	NotSupportedProtocolVersion            Status = -5
	NotCompatibleCommonFlagsSettings       Status = -7
	NotSupportedInterfaceVersion           Status = -8
	NotCompatibleDataFlagsSettings         Status = -9
	NoSuchHandler                          Status = -10
	DataCorrupted                          Status = -11
	InvalidType                            Status = -13
	MismatchOfStructID                     Status = -16
	Internal                               Status = -19
	PointerWhenNoAllowUnmanagedPointersSet Status = -23
)

var statusMessages = map[Status]string{
	NoError:                                msgStatusNoError,
	NoMemory:                               msgStatusNoMemory,
	InvalidArgument:                        msgStatusInvalidArgument,
	Overflow:                               msgStatusOverflow,
	NotSupportedProtocolVersion:            msgStatusNotSupportedProto,
	NotCompatibleCommonFlagsSettings:       msgStatusNotCompatCommon,
	NotSupportedInterfaceVersion:           msgStatusNotSupportedIface,
	NotCompatibleDataFlagsSettings:         msgStatusNotCompatData,
	NoSuchHandler:                          msgStatusNoSuchHandler,
	DataCorrupted:                          msgStatusDataCorrupted,
	InvalidType:                            msgStatusInvalidType,
	MismatchOfStructID:                     msgStatusMismatchOfStructID,
	Internal:                               msgStatusInternal,
	PointerWhenNoAllowUnmanagedPointersSet: msgStatusPointerNotAllowed,
}

// Message returns the human-readable text of the status without the type prefix.
func (s Status) Message() string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return msgStatusUnknown
}

// String renders "CSP Status: <message> (<code>)".
func (s Status) String() string {
	return fmt.Sprintf("%s: %s (%d)", statusTypeName, s.Message(), int32(s))
}

// IsError reports whether s denotes a failure.
func (s Status) IsError() bool {
	return s < 0
}

// IsKnown reports whether s is one of the defined statuses.
func (s Status) IsKnown() bool {
	_, ok := statusMessages[s]
	return ok
}

// Statuses returns every known status, NoError first and then by
// decreasing code.
func Statuses() []Status {
	return slices.SortedFunc(maps.Keys(statusMessages), func(a, b Status) int { return int(b) - int(a) })
}
