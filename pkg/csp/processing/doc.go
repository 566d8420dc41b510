// Package processing encodes and decodes CSP data message bodies.
//
// The general processor walks a value guided by its typetraits.Traits and
// applies the body rules selected by the data flags:
//
//   - bool is one octet, 1 or 0
//   - integers carry a one-octet width prefix when
//     csp.SizeOfIntegersMayBeNotEqual is set
//   - sequences, maps and strings are preceded by a uint64 count unless
//     their size is fixed
//   - references are preceded by a pointer mark and require
//     csp.AllowUnmanagedPointers
//   - with recursive pointer checking, repeated references are written once
//     and later occurrences become back-references
//
// # Specialized processors
//
// A Registry maps types (and names used by the `processor=` tag option) to
// specialized processors that replace the general one. Types implementing
// Marshaler and Unmarshaler are handled the same way without registration.
package processing
