// Package version exposes build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via -ldflags.
var (
	Version = "v0.1.0-dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetCommit returns the build commit hash.
func GetCommit() string {
	return Commit
}

// GetDate returns the build date.
func GetDate() string {
	return Date
}

// GetFullVersion returns a formatted full version string including the Go
// toolchain the binary was built with.
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s)", Version, Commit, Date, runtime.Version())
}
