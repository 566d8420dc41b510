package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KV is one row of a key/value listing.
type KV struct {
	Key   string
	Value string
}

// Card draws body inside a rounded border headed by title. With NoColor the
// border is kept but no colors are emitted.
func Card(theme *Theme, title, body string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if !theme.NoColor {
		style = style.BorderForeground(theme.color(theme.Colors.Border))
	}

	content := strings.TrimRight(body, "\n")
	if title != "" {
		content = theme.Title(title) + "\n" + content
	}
	return style.Render(content)
}

// KeyValues renders rows with keys padded to a common width.
func KeyValues(theme *Theme, rows []KV) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Key))
	}

	var sb strings.Builder
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Key))
		sb.WriteString(theme.Key(r.Key))
		sb.WriteString(pad)
		sb.WriteString("  ")
		sb.WriteString(r.Value)
	}
	return sb.String()
}
