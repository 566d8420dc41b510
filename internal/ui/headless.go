package ui

import (
	"maps"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Keys of headless defaults read by the flag picker.
const (
	DefaultCommonFlagsKey = "common_flags"
	DefaultDataFlagsKey   = "data_flags"
)

// HeadlessManager decides whether prompts may run and holds the answers
// used when they may not.
type HeadlessManager struct {
	in       *os.File
	forced   *bool
	defaults map[string]string
}

// NewHeadlessManager creates a HeadlessManager that detects headless mode
// from the TTY state of os.Stdin.
func NewHeadlessManager() *HeadlessManager {
	return &HeadlessManager{in: os.Stdin}
}

// NewHeadlessManagerFor detects headless mode from f instead of os.Stdin.
func NewHeadlessManagerFor(f *os.File) *HeadlessManager {
	return &HeadlessManager{in: f}
}

// IsHeadless reports whether prompts must be skipped. ForceHeadless
// overrides TTY detection.
func (h *HeadlessManager) IsHeadless() bool {
	if h.forced != nil {
		return *h.forced
	}
	if h.in == nil {
		return true
	}
	fd := h.in.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// ForceHeadless overrides TTY detection in either direction.
func (h *HeadlessManager) ForceHeadless(force bool) {
	h.forced = &force
}

// ClearForce reverts to automatic TTY detection.
func (h *HeadlessManager) ClearForce() {
	h.forced = nil
}

// SetDefaults replaces the stored headless answers.
func (h *HeadlessManager) SetDefaults(defaults map[string]string) {
	if len(defaults) == 0 {
		h.defaults = nil
		return
	}
	h.defaults = make(map[string]string, len(defaults))
	maps.Copy(h.defaults, defaults)
}

// SetDefaultList stores a list answer as a comma-separated value.
func (h *HeadlessManager) SetDefaultList(key string, values []string) {
	if h.defaults == nil {
		h.defaults = make(map[string]string)
	}
	h.defaults[key] = strings.Join(values, ",")
}

// GetDefault retrieves a default value by key.
func (h *HeadlessManager) GetDefault(key string) (string, bool) {
	v, ok := h.defaults[key]
	return v, ok
}

// GetDefaultList splits a stored comma-separated default, dropping blanks.
func (h *HeadlessManager) GetDefaultList(key string) ([]string, bool) {
	v, ok := h.defaults[key]
	if !ok {
		return nil, false
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// HasDefaults returns true when at least one default value has been set.
func (h *HeadlessManager) HasDefaults() bool {
	return len(h.defaults) > 0
}
