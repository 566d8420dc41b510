package csp

// Display strings for protocol types.
const (
	commonFlagsTypeName = "CSP Common Flags"

	msgBitness32                = "Bitness 32"
	msgBitness64                = "Bitness 64"
	msgBigEndian                = "Big Endian"
	msgLittleEndian             = "Little Endian"
	msgEndiannessDifference     = "Endianness Difference"
	msgNoEndiannessDifference   = "No Endianness Difference"
	dataFlagsTypeName           = "CSP Data Flags"
	msgAlignmentMayBeNotEqual   = "Alignment May Be Not Equal"
	msgAlignmentsAreEqual       = "Alignments Are Equal"
	msgSizeOfIntegersNotEqual   = "Size Of Integers May Be Not Equal"
	msgSizeOfIntegersAreEqual   = "Size Of Integers Are Equal"
	msgAllowUnmanagedPointers   = "Allow Unmanaged Pointers"
	msgDoNotAllowUnmanaged      = "Do Not Allow Unmanaged Pointers"
	msgCheckRecursivePointers   = "Check Recursive Pointers"
	msgDoNotCheckRecursive      = "Do Not Check Recursive Pointers"
	msgSimplyAssignableOff      = "Simply Assignable Tags Optimizations Are Off"
	msgSimplyAssignableOn       = "Simply Assignable Tags Optimizations Are Available"
	msgLinkStructureCheck       = "Check Of Recursive Pointers While Maintaining Link Structure"
	msgNoLinkStructureCheck     = "Do Not Maintain Link Structure"
	messageTypeTypeName         = "CSP Message Type"
	msgMessageTypeStatus        = "Status"
	msgMessageTypeData          = "Data"
	msgMessageTypeGetSettings   = "Get Settings"
	msgMessageTypeUnknown       = "Unknown"
	protocolVersionTypeName     = "CSP Protocol Version"
	statusTypeName              = "CSP Status"
	msgStatusNoError            = "No error"
	msgStatusNoMemory           = "Not enough memory to complete the operation"
	msgStatusInvalidArgument    = "Invalid argument"
	msgStatusOverflow           = "Value overflow"
	msgStatusNotSupportedProto  = "Protocol version is not supported"
	msgStatusNotCompatCommon    = "Common flags settings are not compatible"
	msgStatusNotSupportedIface  = "Interface version is not supported"
	msgStatusNotCompatData      = "Data flags settings are not compatible"
	msgStatusNoSuchHandler      = "No procedure or server can handle the request"
	msgStatusDataCorrupted      = "Data corrupted"
	msgStatusInvalidType        = "Invalid type"
	msgStatusMismatchOfStructID = "Struct id mismatch"
	msgStatusInternal           = "Internal error"
	msgStatusPointerNotAllowed  = "Pointer serialization requested while Allow Unmanaged Pointers is not set"
	msgStatusUnknown            = "Unknown status"
)
