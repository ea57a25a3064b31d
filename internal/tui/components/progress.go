package components

import (
	"fmt"
	"strings"

	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// BarItem is one labeled value in a ShareList.
type BarItem struct {
	Label string
	Value int64
}

// ShareColor picks a bar color by rank so adjacent groups stay distinguishable.
func ShareColor(rank int) lipgloss.Color {
	t := theme.Active
	palette := []lipgloss.Color{t.Accent, t.Blue, t.Yellow, t.Magenta, t.Orange, t.Green}
	if rank < 0 {
		rank = 0
	}
	return palette[rank%len(palette)]
}

// ShareBar renders a labeled bar whose fill is pct of barWidth, followed by
// the formatted value and percentage.
func ShareBar(label, value string, pct float64, rank, labelW, barWidth int) string {
	t := theme.Active

	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if barWidth < 4 {
		barWidth = 4
	}

	bar := progress.New(
		progress.WithSolidFill(string(ShareColor(rank))),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.SurfaceBright)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(ShareColor(rank)).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct*100)) +
		spaceStyle.Render(" ") +
		valueStyle.Render(value)
}

// ShareList renders one ShareBar per item, scaled against the item total,
// within innerWidth columns. format renders each value.
func ShareList(items []BarItem, innerWidth int, format func(int64) string) string {
	if len(items) == 0 {
		t := theme.Active
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("No data in range")
	}

	var total int64
	labelW := 6
	valueW := 0
	for _, it := range items {
		total += it.Value
		if w := lipgloss.Width(it.Label); w > labelW {
			labelW = w
		}
		if w := len(format(it.Value)); w > valueW {
			valueW = w
		}
	}
	if labelW > innerWidth/3 {
		labelW = innerWidth / 3
	}

	// label, space, bar, space, pct (6), space, value
	barW := innerWidth - labelW - valueW - 9
	lines := make([]string, 0, len(items))
	for i, it := range items {
		pct := 0.0
		if total > 0 {
			pct = float64(it.Value) / float64(total)
		}
		lines = append(lines, ShareBar(it.Label, format(it.Value), pct, i, labelW, barW))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
