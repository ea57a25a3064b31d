package tui

import (
	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/tui/components"
)

func (a App) renderSeasonWeatherTab(cw int) string {
	if a.isCompactLayout() {
		return groupCard("Orders by Season", a.dash.Season, cw) + "\n" +
			groupCard("Orders by Weather", a.dash.Weather, cw)
	}

	halves := components.LayoutRow(cw, 2)
	return components.CardRow([]string{
		groupCard("Orders by Season", a.dash.Season, halves[0]),
		groupCard("Orders by Weather", a.dash.Weather, halves[1]),
	})
}

// groupCard renders a summary table as a card of share bars, in the
// descending order the summary already carries.
func groupCard(title string, groups []model.GroupCount, w int) string {
	items := make([]components.BarItem, len(groups))
	for i, g := range groups {
		items[i] = components.BarItem{Label: g.Key, Value: g.Count}
	}
	return components.ContentCard(title, components.ShareList(items, components.CardInnerWidth(w), cli.FormatNumber), w)
}
