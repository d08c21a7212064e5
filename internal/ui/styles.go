// Package ui provides the lipgloss styles used for command output.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText    = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
)

// Styles contains reusable lipgloss styles for CLI output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Panel   lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Label: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(12),

		Value: lipgloss.NewStyle().
			Foreground(ColorText),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1),
	}
}

// PlainStyles returns styles without color or borders, for JSON logs and
// pipes.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:   plain,
		Label:   plain.Width(12),
		Value:   plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Muted:   plain,
		Panel:   plain,
	}
}

// Row is one labeled line of a report.
type Row struct {
	Label string
	Value string
	// Style overrides Styles.Value when set.
	Style *lipgloss.Style
}

// Report renders a title and aligned label/value rows inside the panel.
func (s Styles) Report(title string, rows []Row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, s.Title.Render(title))
	for _, r := range rows {
		value := s.Value
		if r.Style != nil {
			value = *r.Style
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			s.Label.Render(r.Label), value.Render(r.Value)))
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}

// Count formats n with style when it is non-zero and muted otherwise.
func (s Styles) Count(n int, style lipgloss.Style) string {
	if n == 0 {
		return s.Muted.Render("0")
	}
	return style.Render(fmt.Sprint(n))
}
