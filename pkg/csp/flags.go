package csp

import "strings"

// CommonFlags is the header-level flag mask.
type CommonFlags uint16

const (
	// Bitness32 is set when the sender is a 32-bit platform.
	Bitness32 CommonFlags = 0x1
	// BigEndian selects big-endian byte order for everything after the common flags.
	BigEndian CommonFlags = 0x2
	// EndiannessDifference is set when the message byte order differs from the sender's native order.
	EndiannessDifference CommonFlags = 0x4

	ValidCommonFlagsMask = Bitness32 | BigEndian | EndiannessDifference
)

// DataFlags is the data-message flag mask.
type DataFlags uint32

const (
	AlignmentMayBeNotEqual DataFlags = 0x1
	// SizeOfIntegersMayBeNotEqual prefixes every integer with its octet width.
	SizeOfIntegersMayBeNotEqual DataFlags = 0x2
	// AllowUnmanagedPointers permits pointer marks in the body.
	AllowUnmanagedPointers DataFlags = 0x4
	// CheckRecursivePointers deduplicates repeated pointers with back-references.
	CheckRecursivePointers                        DataFlags = 0x8
	SimplyAssignableTagsOptimizationsAreTurnedOff DataFlags = 0x10
	// CheckOfRecursivePointersWhileMaintainingLinkStructure tracks pointers so
	// that shared and cyclic links survive a round trip.
	CheckOfRecursivePointersWhileMaintainingLinkStructure DataFlags = 0x20

	ValidDataFlagsMask = AlignmentMayBeNotEqual | SizeOfIntegersMayBeNotEqual | AllowUnmanagedPointers |
		CheckRecursivePointers | SimplyAssignableTagsOptimizationsAreTurnedOff |
		CheckOfRecursivePointersWhileMaintainingLinkStructure

	// MandatoryDataFlags are always present on serialized data messages.
	MandatoryDataFlags = AlignmentMayBeNotEqual | SimplyAssignableTagsOptimizationsAreTurnedOff
	// DefaultDataFlags is the user-selectable default.
	DefaultDataFlags = AllowUnmanagedPointers
)

// FlagInfo describes a single flag bit.
type FlagInfo struct {
	Value         uint32
	Key           string
	NameWhenSet   string
	NameWhenUnset string
	TypeName      string
}

func (f FlagInfo) String() string {
	return f.TypeName + ": " + f.NameWhenSet
}

var commonFlagInfos = []FlagInfo{
	{uint32(Bitness32), "bitness_32", msgBitness32, msgBitness64, commonFlagsTypeName},
	{uint32(BigEndian), "big_endian", msgBigEndian, msgLittleEndian, commonFlagsTypeName},
	{uint32(EndiannessDifference), "endianness_difference", msgEndiannessDifference, msgNoEndiannessDifference, commonFlagsTypeName},
}

var dataFlagInfos = []FlagInfo{
	{uint32(AlignmentMayBeNotEqual), "alignment_may_be_not_equal", msgAlignmentMayBeNotEqual, msgAlignmentsAreEqual, dataFlagsTypeName},
	{uint32(SizeOfIntegersMayBeNotEqual), "size_of_integers_may_be_not_equal", msgSizeOfIntegersNotEqual, msgSizeOfIntegersAreEqual, dataFlagsTypeName},
	{uint32(AllowUnmanagedPointers), "allow_unmanaged_pointers", msgAllowUnmanagedPointers, msgDoNotAllowUnmanaged, dataFlagsTypeName},
	{uint32(CheckRecursivePointers), "check_recursive_pointers", msgCheckRecursivePointers, msgDoNotCheckRecursive, dataFlagsTypeName},
	{uint32(SimplyAssignableTagsOptimizationsAreTurnedOff), "simply_assignable_tags_optimizations_are_turned_off", msgSimplyAssignableOff, msgSimplyAssignableOn, dataFlagsTypeName},
	{uint32(CheckOfRecursivePointersWhileMaintainingLinkStructure), "check_of_recursive_pointers_while_maintaining_link_structure", msgLinkStructureCheck, msgNoLinkStructureCheck, dataFlagsTypeName},
}

// CommonFlagInfos returns metadata for every common flag in value order.
func CommonFlagInfos() []FlagInfo {
	return append([]FlagInfo(nil), commonFlagInfos...)
}

// DataFlagInfos returns metadata for every data flag in value order.
func DataFlagInfos() []FlagInfo {
	return append([]FlagInfo(nil), dataFlagInfos...)
}

// MaskOf ORs the given flags together.
func MaskOf[F ~uint16 | ~uint32](flags ...F) F {
	var mask F
	for _, f := range flags {
		mask |= f
	}
	return mask
}

// IsSet reports whether any bit of flag is present in mask.
func IsSet[F ~uint16 | ~uint32](mask, flag F) bool {
	return flag&mask != 0
}

// Describe renders the mask as "<Type>: name, name". With onlySet false every
// flag is listed using its set or unset name. The result is empty only when
// no flag is set, onlySet is true and includeEmptyHeader is false.
func (f CommonFlags) Describe(onlySet, includeEmptyHeader bool) string {
	return describe(commonFlagInfos, commonFlagsTypeName, uint32(f), onlySet, includeEmptyHeader)
}

func (f CommonFlags) String() string {
	return f.Describe(true, true)
}

// IsValid reports whether f contains only known bits.
func (f CommonFlags) IsValid() bool {
	return f&^ValidCommonFlagsMask == 0
}

// Describe renders the mask in the same format as CommonFlags.Describe.
func (f DataFlags) Describe(onlySet, includeEmptyHeader bool) string {
	return describe(dataFlagInfos, dataFlagsTypeName, uint32(f), onlySet, includeEmptyHeader)
}

func (f DataFlags) String() string {
	return f.Describe(true, true)
}

// IsValid reports whether f contains only known bits.
func (f DataFlags) IsValid() bool {
	return f&^ValidDataFlagsMask == 0
}

func describe(infos []FlagInfo, typeName string, mask uint32, onlySet, includeEmptyHeader bool) string {
	if mask == 0 && onlySet && !includeEmptyHeader {
		return ""
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		set := info.Value&mask != 0
		switch {
		case set:
			names = append(names, info.NameWhenSet)
		case !onlySet:
			names = append(names, info.NameWhenUnset)
		}
	}
	return typeName + ": " + strings.Join(names, ", ")
}

// ParseCommonFlags converts flag keys such as "big_endian" into a mask.
func ParseCommonFlags(keys []string) (CommonFlags, error) {
	mask, err := parseFlags(commonFlagInfos, keys)
	return CommonFlags(mask), err
}

// ParseDataFlags converts flag keys such as "allow_unmanaged_pointers" into a mask.
func ParseDataFlags(keys []string) (DataFlags, error) {
	mask, err := parseFlags(dataFlagInfos, keys)
	return DataFlags(mask), err
}

// Keys returns the keys of the set flags in value order.
func (f CommonFlags) Keys() []string {
	return flagKeys(commonFlagInfos, uint32(f))
}

// Keys returns the keys of the set flags in value order.
func (f DataFlags) Keys() []string {
	return flagKeys(dataFlagInfos, uint32(f))
}

func parseFlags(infos []FlagInfo, keys []string) (uint32, error) {
	var mask uint32
	for _, key := range keys {
		norm := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(key, "-", "_")))
		if norm == "" {
			continue
		}
		found := false
		for _, info := range infos {
			if info.Key == norm {
				mask |= info.Value
				found = true
				break
			}
		}
		if !found {
			return 0, Errorf(InvalidArgument, "unknown flag %q", key)
		}
	}
	return mask, nil
}

func flagKeys(infos []FlagInfo, mask uint32) []string {
	var keys []string
	for _, info := range infos {
		if info.Value&mask != 0 {
			keys = append(keys, info.Key)
		}
	}
	return keys
}

