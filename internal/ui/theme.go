package ui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Palette hex values. The dark variants double as progress bar gradient stops.
const (
	ColorPrimary   = "#DA7756"
	ColorSecondary = "#7C3AED"
	ColorSuccess   = "#10B981"
	ColorWarning   = "#F59E0B"
	ColorError     = "#EF4444"
	ColorText      = "#E5E7EB"
	ColorMuted     = "#6B7280"
	ColorBorder    = "#4B5563"
)

// ThemeConfig selects the color behaviour of a Theme.
type ThemeConfig struct {
	NoColor bool
	// Mode is "dark", "light" or "" for terminal detection.
	Mode string
}

// Colors holds the palette as hex strings.
type Colors struct {
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Text      string
	Muted     string
	Border    string
}

// Theme carries the palette and derived lipgloss styles.
type Theme struct {
	Colors  Colors
	NoColor bool
	Mode    string
}

// NewTheme creates a Theme.
func NewTheme(cfg ThemeConfig) *Theme {
	return &Theme{
		Colors: Colors{
			Primary:   ColorPrimary,
			Secondary: ColorSecondary,
			Success:   ColorSuccess,
			Warning:   ColorWarning,
			Error:     ColorError,
			Text:      ColorText,
			Muted:     ColorMuted,
			Border:    ColorBorder,
		},
		NoColor: cfg.NoColor,
		Mode:    cfg.Mode,
	}
}

var lightVariants = map[string]string{
	ColorPrimary:   "#C45A3C",
	ColorSecondary: "#5B21B6",
	ColorSuccess:   "#059669",
	ColorWarning:   "#B45309",
	ColorError:     "#DC2626",
	ColorText:      "#111827",
	ColorMuted:     "#9CA3AF",
	ColorBorder:    "#D1D5DB",
}

// color returns an adaptive color for a palette entry, honoring a fixed Mode.
func (t *Theme) color(dark string) lipgloss.TerminalColor {
	light, ok := lightVariants[dark]
	if !ok {
		light = dark
	}
	switch t.Mode {
	case "dark":
		return lipgloss.Color(dark)
	case "light":
		return lipgloss.Color(light)
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func (t *Theme) fg(dark string) lipgloss.Style {
	if t.NoColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(t.color(dark))
}

func (t *Theme) bold(dark string) lipgloss.Style {
	if t.NoColor {
		return lipgloss.NewStyle()
	}
	return t.fg(dark).Bold(true)
}

// Title renders s as a heading.
func (t *Theme) Title(s string) string { return t.bold(t.Colors.Primary).Render(s) }

// Success renders s in the success color.
func (t *Theme) Success(s string) string { return t.fg(t.Colors.Success).Render(s) }

func (t *Theme) Warning(s string) string { return t.fg(t.Colors.Warning).Render(s) }

func (t *Theme) Error(s string) string { return t.bold(t.Colors.Error).Render(s) }

func (t *Theme) Muted(s string) string { return t.fg(t.Colors.Muted).Render(s) }

// Key renders a label in a key/value listing.
func (t *Theme) Key(s string) string { return t.fg(t.Colors.Secondary).Render(s) }

// Huh returns a form theme in the gocsp palette.
func (t *Theme) Huh() *huh.Theme {
	h := huh.ThemeBase()
	if t.NoColor {
		return h
	}

	primary := t.color(t.Colors.Primary)
	secondary := t.color(t.Colors.Secondary)
	green := t.color(t.Colors.Success)
	red := t.color(t.Colors.Error)
	text := t.color(t.Colors.Text)
	muted := t.color(t.Colors.Muted)
	border := t.color(t.Colors.Border)

	h.Focused.Base = h.Focused.Base.BorderForeground(border)
	h.Focused.Card = h.Focused.Base
	h.Focused.Title = h.Focused.Title.Foreground(primary).Bold(true)
	h.Focused.Description = h.Focused.Description.Foreground(muted)
	h.Focused.ErrorIndicator = h.Focused.ErrorIndicator.Foreground(red)
	h.Focused.ErrorMessage = h.Focused.ErrorMessage.Foreground(red)
	h.Focused.MultiSelectSelector = h.Focused.MultiSelectSelector.Foreground(primary)
	h.Focused.Option = h.Focused.Option.Foreground(text)
	h.Focused.SelectedOption = h.Focused.SelectedOption.Foreground(green)
	h.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(green).SetString("◆ ")
	h.Focused.UnselectedOption = h.Focused.UnselectedOption.Foreground(text)
	h.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(muted).SetString("◇ ")
	h.Focused.TextInput.Prompt = h.Focused.TextInput.Prompt.Foreground(secondary)

	h.Blurred = h.Focused
	h.Blurred.Base = h.Focused.Base.BorderStyle(lipgloss.HiddenBorder())
	h.Blurred.Card = h.Blurred.Base

	h.Group.Title = h.Focused.Title
	h.Group.Description = h.Focused.Description
	return h
}
