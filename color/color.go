// Package color names the terminal colors used for CLI output.
// The basic names are ANSI indices so they follow the user's terminal theme.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps an ANSI index or a hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

var (
	Red      = New("1")
	Green    = New("2")
	Yellow   = New("3")
	Blue     = New("4")
	Purple   = New("5")
	Cyan     = New("6")
	HiRed    = New("9")
	HiPurple = New("13")
)

// Meaning of the colors in command output.
var (
	Success = Green
	Warning = Yellow
	Failure = Red
	Key     = Purple
)
