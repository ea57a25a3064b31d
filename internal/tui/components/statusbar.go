package components

import (
	"fmt"

	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the status bar reports about the loaded dataset.
type StatusInfo struct {
	File      string
	Records   int
	Skipped   int
	LoadTime  string
	FromCache bool
	Notice    string // transient message, e.g. a rejected range
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	left := keyStyle.Render(" [?]") + mutedStyle.Render("help ") +
		keyStyle.Render("[r]") + mutedStyle.Render("ange ") +
		keyStyle.Render("[q]") + mutedStyle.Render("uit")
	if info.Notice != "" {
		left += mutedStyle.Render("  ") + warnStyle.Render(info.Notice)
	}

	right := fmt.Sprintf("%s · %d rows", info.File, info.Records)
	if info.Skipped > 0 {
		right += fmt.Sprintf(" (%d skipped)", info.Skipped)
	}
	if info.LoadTime != "" {
		src := "parsed"
		if info.FromCache {
			src = "cached"
		}
		right += fmt.Sprintf(" · %s %s", src, info.LoadTime)
	}
	right = mutedStyle.Render(right + " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		right = ""
		padding = width - lipgloss.Width(left)
	}
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + mutedStyle.Render(fmt.Sprintf("%*s", padding, "")) + right)
}
