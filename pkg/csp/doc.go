// Package csp defines the core types of the Common Serialization Protocol.
//
// CSP is a binary message protocol. Every message opens with a common
// header carrying the protocol version, the common flags and the message
// type. Three message types exist:
//
//   - Status messages carry a single status code.
//   - Data messages carry a serialized struct identified by a struct UUID
//     and an interface version, with data flags selecting the body encoding.
//   - GetSettings messages negotiate supported versions and flags.
//
// # Flags
//
// CommonFlags describe the sender platform (bitness, byte order). DataFlags
// change how a data message body is encoded (integer size prefixes,
// pointer marks, recursive pointer tracking). Both types render
// human-readable descriptions through Describe.
//
// # Errors
//
// Every protocol failure is reported as an *Error carrying a Status.
// Use StatusOf to recover the status from any error chain.
package csp
