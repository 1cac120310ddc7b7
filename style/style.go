// Package style composes the lipgloss styles used by the CLI and the play console.
package style

import "github.com/charmbracelet/lipgloss"

// Semantic colors of the play console and dependency boxes.
var (
	Text        = lipgloss.Color("#cdd6f4")
	AccentColor = lipgloss.Color("#cba6f7")
	HiRed       = lipgloss.Color("#f38ba8")
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer applying the foreground color c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)
