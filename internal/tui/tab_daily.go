package tui

import (
	"fmt"
	"strings"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/tui/components"
	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// dailyState tracks the selected row and scroll offset of the daily table.
type dailyState struct {
	cursor int
	offset int
}

// move shifts the cursor by delta rows within n rows.
func (s *dailyState) move(delta, n int) {
	s.cursor += delta
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// follow keeps the cursor inside a window of visible rows.
func (s *dailyState) follow(visible int) {
	if visible < 1 {
		visible = 1
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// dailyVisibleRows is the number of table rows that fit on screen.
func (a App) dailyVisibleRows() int {
	rows := a.height - scrollOverhead
	if rows < minHalfPageScroll {
		rows = minHalfPageScroll
	}
	return rows
}

func (a App) updateDailyKeys(key string) (bool, App) {
	n := len(a.dash.Daily)
	half := a.dailyVisibleRows() / 2
	if half < minHalfPageScroll {
		half = minHalfPageScroll
	}

	switch key {
	case "j", "down":
		a.daily.move(1, n)
	case "k", "up":
		a.daily.move(-1, n)
	case "ctrl+d":
		a.daily.move(half, n)
	case "ctrl+u":
		a.daily.move(-half, n)
	case "g", "home":
		a.daily.cursor = 0
	case "G", "end":
		a.daily.move(n, n)
	default:
		return false, a
	}
	a.daily.follow(a.dailyVisibleRows())
	return true, a
}

func (a App) renderDailyTab(cw, h int) string {
	t := theme.Active
	days := a.dash.Daily
	if len(days) == 0 {
		return components.ContentCard("Daily Orders", lipgloss.NewStyle().Foreground(t.TextDim).Render("No data in range"), cw)
	}

	innerW := components.CardInnerWidth(cw)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	zeroStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	barStyle := lipgloss.NewStyle().Foreground(t.Blue)

	// Date, Day, Casual, Registered, Total, bar
	const fixedW = 10 + 1 + 3 + 1 + 9 + 1 + 10 + 1 + 9 + 1
	barMax := innerW - fixedW
	if barMax < 0 {
		barMax = 0
	}

	var peak int64
	for _, d := range days {
		if d.Total > peak {
			peak = d.Total
		}
	}

	// Card chrome: border (2), title (1), header (1), rule (1)
	visible := h - 5
	if visible < 1 {
		visible = 1
	}
	st := a.daily
	st.follow(visible)
	end := st.offset + visible
	if end > len(days) {
		end = len(days)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %-3s %9s %10s %9s", "Date", "Day", "Casual", "Registered", "Total")))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))

	for i := st.offset; i < end; i++ {
		d := days[i]
		line := fmt.Sprintf("%-10s %-3s %9s %10s %9s",
			cli.FormatDate(d.Date),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(d.Casual),
			cli.FormatNumber(d.Registered),
			cli.FormatNumber(d.Total))

		barLen := 0
		if peak > 0 && barMax > 0 {
			barLen = int(d.Total * int64(barMax) / peak)
		}
		bar := strings.Repeat("█", barLen)

		b.WriteString("\n")
		switch {
		case i == st.cursor:
			b.WriteString(selStyle.Render(line))
			b.WriteString(" ")
			b.WriteString(barStyle.Render(bar))
		case d.Total == 0:
			b.WriteString(zeroStyle.Render(line))
		default:
			b.WriteString(rowStyle.Render(line))
			b.WriteString(" ")
			b.WriteString(barStyle.Render(bar))
		}
	}

	title := fmt.Sprintf("Daily Orders (%d-%d of %d)", st.offset+1, end, len(days))
	return components.ContentCard(title, b.String(), cw)
}
