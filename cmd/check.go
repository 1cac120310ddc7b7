package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/player"
	"github.com/anisan-cli/finplay/style"
	"github.com/charmbracelet/lipgloss"
)

// CheckDependencies exits with an install hint when the playback engine is missing.
func CheckDependencies() {
	if err := player.CheckInstalled(); err != nil {
		fmt.Println(missingDependencyBox("mpv", installHint(runtime.GOOS)))
		os.Exit(1)
	}
}

func installHint(goos string) string {
	switch goos {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	case constant.Android:
		return "pkg install mpv"
	default:
		return ""
	}
}

func missingDependencyBox(dep, hint string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The playback engine '%s' was not found in your PATH.", dep))

	suggestion := ""
	if hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint))
	}

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "\n", body, suggestion))
}
