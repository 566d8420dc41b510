package csp

import (
	"cmp"
	"fmt"
	"reflect"
)

// InterfaceVersion is the version of a struct's wire layout. Versions of
// different dynamic types cannot be compared.
type InterfaceVersion interface {
	RawVersion() uint32
}

// RawInterfaceVersion is an InterfaceVersion taken directly from the wire.
type RawInterfaceVersion uint32

func (v RawInterfaceVersion) RawVersion() uint32 { return uint32(v) }

func (v RawInterfaceVersion) String() string {
	return fmt.Sprintf("%d", uint32(v))
}

// SemanticVersion packs Major into the high half and Minor into the low half.
type SemanticVersion struct {
	Major uint16
	Minor uint16
}

func (v SemanticVersion) RawVersion() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)
}

func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CompareVersions orders a and b by their unsigned raw value, returning -1,
// 0 or 1. It fails when the two versions have different dynamic types.
func CompareVersions(a, b InterfaceVersion) (int, error) {
	if a == nil || b == nil {
		return 0, NewError(InvalidArgument, "nil interface version")
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return 0, Errorf(InvalidArgument, "cannot compare interface versions of types %T and %T", a, b)
	}
	return cmp.Compare(a.RawVersion(), b.RawVersion()), nil
}
