// Package ui renders gocsp terminal output: themed cards, progress bars,
// spinners, markdown and interactive flag pickers. Every interactive
// component has a headless fallback for pipes and CI.
package ui

import "errors"

var (
	// ErrHeadlessNoDefaults is returned when a prompt runs without a TTY
	// and no default answer was stored.
	ErrHeadlessNoDefaults = errors.New("ui: headless mode has no default for this prompt")

	// ErrCancelled is returned when the user aborts a prompt.
	ErrCancelled = errors.New("ui: cancelled by user")
)
