package ui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders md for the terminal, wrapping at width columns.
// NoColor themes use the plain "notty" style; a fixed Mode picks the
// matching glamour style and otherwise the style follows the terminal.
func RenderMarkdown(md string, width int, theme *Theme) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch {
	case theme.NoColor:
		opts = append(opts, glamour.WithStandardStyle("notty"))
	case theme.Mode == "dark" || theme.Mode == "light":
		opts = append(opts, glamour.WithStandardStyle(theme.Mode))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
