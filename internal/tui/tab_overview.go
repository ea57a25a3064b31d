package tui

import (
	"fmt"
	"strings"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/tui/components"
	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab indices, matching components.Tabs.
const (
	tabOverview = iota
	tabSeasonWeather
	tabConditions
	tabDaily
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	tot := a.dash.Totals
	prev := a.prev
	desc := a.dash.Describe
	var b strings.Builder

	// Row 1: Metric cards
	orderDelta := "no previous period"
	if prev.Days > 0 {
		orderDelta = cli.FormatDelta(tot.Orders, prev.Orders) + " vs prev"
	}
	casualDelta := cli.FormatPercent(cli.Share(tot.Casual, tot.Orders)) + " of total"
	registeredDelta := cli.FormatPercent(cli.Share(tot.Registered, tot.Orders)) + " of total"
	if prev.Days > 0 {
		casualDelta += " · " + cli.FormatDelta(tot.Casual, prev.Casual)
		registeredDelta += " · " + cli.FormatDelta(tot.Registered, prev.Registered)
	}

	// Two-up cards are too narrow for comma-grouped totals.
	count := cli.FormatNumber
	if a.isCompactLayout() {
		count = cli.FormatCompact
	}
	cards := []components.Metric{
		{Label: "Total Orders", Value: count(tot.Orders), Delta: orderDelta},
		{Label: "Casual", Value: count(tot.Casual), Delta: casualDelta},
		{Label: "Registered", Value: count(tot.Registered), Delta: registeredDelta},
		{Label: "Per Day", Value: cli.FormatNumber(int64(desc.Mean + 0.5)), Delta: fmt.Sprintf("± %s over %d days", cli.FormatNumber(int64(desc.StdDev+0.5)), tot.Days)},
	}
	if a.isCompactLayout() {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.MetricCard(cards[0], halves[0]),
			components.MetricCard(cards[1], halves[1]),
		}))
		b.WriteString("\n")
		b.WriteString(components.CardRow([]string{
			components.MetricCard(cards[2], halves[0]),
			components.MetricCard(cards[3], halves[1]),
		}))
	} else {
		b.WriteString(components.MetricCardRow(cards, cw))
	}
	b.WriteString("\n")

	// Row 2: Daily orders chart
	days := a.dash.Daily
	if len(days) > 0 {
		chartH := 10
		if a.isCompactLayout() {
			chartH = 8
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Orders (%dd)", len(days)),
			components.DailyChart(days, t.Blue, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: Rider split + statistics
	halves := components.LayoutRow(cw, 2)
	splitW, statsW := halves[0], halves[1]
	if a.isCompactLayout() {
		splitW, statsW = cw, cw
	}

	split := components.ShareList([]components.BarItem{
		{Label: "Registered", Value: tot.Registered},
		{Label: "Casual", Value: tot.Casual},
	}, components.CardInnerWidth(splitW), cli.FormatNumber)
	splitCard := components.ContentCard("Rider Split", split, splitW)
	statsCard := components.ContentCard("Daily Statistics", a.renderStatsBody(desc, components.CardInnerWidth(statsW)), statsW)

	if a.isCompactLayout() {
		b.WriteString(splitCard)
		b.WriteString("\n")
		b.WriteString(statsCard)
	} else {
		b.WriteString(components.CardRow([]string{splitCard, statsCard}))
	}

	return b.String()
}

func (a App) renderStatsBody(desc model.DailyDescription, w int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	peakStyle := lipgloss.NewStyle().Foreground(t.GreenBright)
	lowStyle := lipgloss.NewStyle().Foreground(t.Orange)

	corrStyle := valueStyle
	switch {
	case desc.TempCorrelation >= 0.4:
		corrStyle = lipgloss.NewStyle().Foreground(t.Green)
	case desc.TempCorrelation <= -0.4:
		corrStyle = lipgloss.NewStyle().Foreground(t.Red)
	}

	dayLabel := func(d model.DailyTotal) string {
		return fmt.Sprintf("%s (%s %s)", cli.FormatNumber(d.Total), d.Date.Format("Mon"), cli.FormatDate(d.Date))
	}

	rows := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"Mean / day", fmt.Sprintf("%.1f", desc.Mean), valueStyle},
		{"Std dev", fmt.Sprintf("%.1f", desc.StdDev), valueStyle},
		{"Peak day", dayLabel(desc.Peak), peakStyle},
		{"Lowest day", dayLabel(desc.Low), lowStyle},
		{"Temp vs orders", cli.FormatCorrelation(desc.TempCorrelation), corrStyle},
	}

	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "%s %s", labelStyle.Render(fmt.Sprintf("%-15s", r.label)), r.style.Render(r.value))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	// Sparkline output is already styled.
	if trend := components.Sparkline(a.dash.Daily, w-16, t.Blue); trend != "" {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render(fmt.Sprintf("%-15s", "Trend")), trend)
	}
	return b.String()
}
