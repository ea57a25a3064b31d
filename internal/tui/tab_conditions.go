package tui

import (
	"strings"

	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/tui/components"
	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const (
	tempBandHint     = "cold ≤ 10 < normal ≤ 30 < hot"
	humidityBandHint = "dry ≤ 30 < normal ≤ 71 < wet"
	windBandHint     = "light ≤ 12 < moderate ≤ 22 < strong"
)

func (a App) renderConditionsTab(cw int) string {
	t := theme.Active
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	cards := []struct {
		title  string
		hint   string
		groups []model.GroupCount
	}{
		{"Orders by Temperature", tempBandHint, a.dash.Temperature},
		{"Orders by Humidity", humidityBandHint, a.dash.Humidity},
		{"Orders by Windspeed", windBandHint, a.dash.Windspeed},
	}

	var b strings.Builder
	if a.isCompactLayout() {
		for i, c := range cards {
			b.WriteString(groupCard(c.title, c.groups, cw))
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("  " + c.hint))
			if i < len(cards)-1 {
				b.WriteString("\n")
			}
		}
		return b.String()
	}

	widths := components.LayoutRow(cw, len(cards))
	rendered := make([]string, len(cards))
	hints := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = groupCard(c.title, c.groups, widths[i])
		hints[i] = lipgloss.NewStyle().Width(widths[i]).Render(hintStyle.Render("  " + c.hint))
	}
	b.WriteString(components.CardRow(rendered))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, hints...))
	return b.String()
}
