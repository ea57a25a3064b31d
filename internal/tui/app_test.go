package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/pipeline"
	"github.com/esaepulloh/bikedash/internal/source"

	tea "github.com/charmbracelet/bubbletea"
)

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// loadedApp returns an App that has received 30 days of data starting
// 2011-01-01, each day with 10 casual and 20 registered rentals.
func loadedApp(t *testing.T) App {
	t.Helper()
	start := day("2011-01-01")
	records := make([]model.Record, 30)
	for i := range records {
		records[i] = model.Record{
			Date:       start.AddDate(0, 0, i),
			Casual:     10,
			Registered: 20,
			Count:      30,
			Season:     "Spring",
			Weather:    "Clear",
			Temp:       float64(i),
			Humidity:   50,
			Windspeed:  10,
		}
	}

	a := NewApp(Options{})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = m.Update(DataLoadedMsg{Result: &pipeline.LoadResult{
		Records: records,
		File:    source.DiscoveredFile{Path: "/tmp/main_data.csv"},
		Range:   model.DateRange{Start: start, End: start.AddDate(0, 0, 29)},
	}})
	return m.(App)
}

func press(t *testing.T, a App, key string) App {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, _ := a.Update(msg)
	return m.(App)
}

func TestLoadSelectsFullRange(t *testing.T) {
	a := loadedApp(t)
	if !a.loaded || a.loadErr != nil {
		t.Fatalf("loaded=%v err=%v", a.loaded, a.loadErr)
	}
	if a.rng != a.bounds {
		t.Errorf("rng = %s, want bounds %s", a.rng, a.bounds)
	}
	if a.dash.Totals.Orders != 900 {
		t.Errorf("Orders = %d, want 900", a.dash.Totals.Orders)
	}
	if len(a.dash.Daily) != 30 {
		t.Errorf("Daily = %d, want 30", len(a.dash.Daily))
	}
}

func TestLoadHonorsInitialRange(t *testing.T) {
	a := NewApp(Options{Range: model.DateRange{Start: day("2010-06-01"), End: day("2011-01-05")}})
	m, _ := a.Update(DataLoadedMsg{Result: &pipeline.LoadResult{
		Records: []model.Record{
			{Date: day("2011-01-01"), Count: 5, Casual: 2, Registered: 3},
			{Date: day("2011-01-10"), Count: 7, Casual: 3, Registered: 4},
		},
		Range: model.DateRange{Start: day("2011-01-01"), End: day("2011-01-10")},
	}})
	got := m.(App)

	want := model.DateRange{Start: day("2011-01-01"), End: day("2011-01-05")}
	if got.rng != want {
		t.Errorf("rng = %s, want %s (clamped to data)", got.rng, want)
	}
	if got.dash.Totals.Orders != 5 {
		t.Errorf("Orders = %d, want 5", got.dash.Totals.Orders)
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	a := NewApp(Options{})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(DataLoadedMsg{Err: &source.SchemaError{Missing: []string{"cnt"}}})
	got := m.(App)

	if !errors.Is(got.loadErr, source.ErrSchemaMismatch) {
		t.Fatalf("loadErr = %v, want schema mismatch", got.loadErr)
	}
	if view := got.View(); !strings.Contains(view, "Could not load data") {
		t.Errorf("View() missing error card")
	}
}

func TestSetRange(t *testing.T) {
	a := loadedApp(t)

	if err := a.setRange(model.DateRange{Start: day("2011-01-11"), End: day("2011-01-20")}); err != nil {
		t.Fatalf("setRange: %v", err)
	}
	if a.dash.Totals.Orders != 300 || a.dash.Totals.Days != 10 {
		t.Errorf("Totals = %+v, want 300 orders over 10 days", a.dash.Totals)
	}
	if a.prev.Orders != 300 {
		t.Errorf("prev.Orders = %d, want 300 (2011-01-01..10)", a.prev.Orders)
	}

	before := a.rng
	err := a.setRange(model.DateRange{Start: day("2011-01-20"), End: day("2011-01-11")})
	if !errors.Is(err, pipeline.ErrInvertedRange) {
		t.Errorf("inverted err = %v, want ErrInvertedRange", err)
	}
	if a.rng != before {
		t.Errorf("rng changed to %s after rejected range", a.rng)
	}

	if err := a.setRange(model.DateRange{Start: day("2012-01-01"), End: day("2012-02-01")}); err == nil {
		t.Error("range outside the data: want error")
	}
	if a.rng != before {
		t.Errorf("rng changed to %s after out-of-data range", a.rng)
	}
}

func TestParseRangeInput(t *testing.T) {
	bounds := model.DateRange{Start: day("2011-01-01"), End: day("2011-12-31")}
	tests := []struct {
		name    string
		vals    rangeValues
		want    model.DateRange
		wantErr bool
	}{
		{"valid", rangeValues{"2011-02-01", "2011-02-28"}, model.DateRange{Start: day("2011-02-01"), End: day("2011-02-28")}, false},
		{"single day", rangeValues{"2011-05-05", "2011-05-05"}, model.DateRange{Start: day("2011-05-05"), End: day("2011-05-05")}, false},
		{"full bounds", rangeValues{"2011-01-01", "2011-12-31"}, bounds, false},
		{"inverted", rangeValues{"2011-03-01", "2011-02-01"}, model.DateRange{}, true},
		{"bad format", rangeValues{"March", "2011-02-01"}, model.DateRange{}, true},
		{"empty end", rangeValues{"2011-03-01", ""}, model.DateRange{}, true},
		{"before data", rangeValues{"2010-12-31", "2011-02-01"}, model.DateRange{}, true},
		{"after data", rangeValues{"2011-02-01", "2012-01-01"}, model.DateRange{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRangeInput(tt.vals, bounds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestApplyRangeInputKeepsPreviousOnError(t *testing.T) {
	a := loadedApp(t)
	before := a.rng

	*a.rangeVals = rangeValues{start: "2011-01-20", end: "2011-01-10"}
	a.applyRangeInput()
	if a.rng != before {
		t.Errorf("rng = %s, want unchanged %s", a.rng, before)
	}
	if !strings.HasPrefix(a.notice, "range unchanged") {
		t.Errorf("notice = %q", a.notice)
	}

	*a.rangeVals = rangeValues{start: "2011-01-10", end: "2011-01-20"}
	a.applyRangeInput()
	if a.rng.Days() != 11 {
		t.Errorf("Days = %d, want 11", a.rng.Days())
	}
	if a.notice != "" {
		t.Errorf("notice = %q, want cleared", a.notice)
	}
}

func TestKeyNavigation(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, "d")
	if a.activeTab != tabDaily {
		t.Errorf("after d: tab = %d, want %d", a.activeTab, tabDaily)
	}
	a = press(t, a, "right")
	if a.activeTab != tabOverview {
		t.Errorf("right wraps: tab = %d, want %d", a.activeTab, tabOverview)
	}
	a = press(t, a, "left")
	if a.activeTab != tabDaily {
		t.Errorf("left wraps: tab = %d, want %d", a.activeTab, tabDaily)
	}
	a = press(t, a, "s")
	if a.activeTab != tabSeasonWeather {
		t.Errorf("after s: tab = %d, want %d", a.activeTab, tabSeasonWeather)
	}
}

func TestKeyRangeShift(t *testing.T) {
	a := loadedApp(t)
	if err := a.setRange(model.DateRange{Start: day("2011-01-11"), End: day("2011-01-20")}); err != nil {
		t.Fatal(err)
	}

	a = press(t, a, "[")
	want := model.DateRange{Start: day("2011-01-01"), End: day("2011-01-10")}
	if a.rng != want {
		t.Errorf("after [: rng = %s, want %s", a.rng, want)
	}

	// Nothing before the first day: range stays.
	a = press(t, a, "[")
	if a.rng != want {
		t.Errorf("after second [: rng = %s, want %s", a.rng, want)
	}
	if a.notice == "" {
		t.Error("expected a notice when shifting past the data")
	}

	a = press(t, a, "]")
	a = press(t, a, "]")
	want = model.DateRange{Start: day("2011-01-21"), End: day("2011-01-30")}
	if a.rng != want {
		t.Errorf("after ] ]: rng = %s, want %s", a.rng, want)
	}

	a = press(t, a, "a")
	if a.rng != a.bounds {
		t.Errorf("after a: rng = %s, want %s", a.rng, a.bounds)
	}
}

func TestRangeFormOpensAndCancels(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, "r")
	if a.rangeForm == nil {
		t.Fatal("r did not open the range form")
	}
	if a.rangeVals.start != "2011-01-01" || a.rangeVals.end != "2011-01-30" {
		t.Errorf("form prefilled with %+v", *a.rangeVals)
	}

	// Tab keys go to the form while it is open.
	a = press(t, a, "d")
	if a.activeTab != tabOverview {
		t.Errorf("tab switched to %d while form open", a.activeTab)
	}

	a = press(t, a, "esc")
	if a.rangeForm != nil {
		t.Error("esc did not close the range form")
	}
}

func TestDailyCursor(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, "d")

	a = press(t, a, "j")
	a = press(t, a, "j")
	if a.daily.cursor != 2 {
		t.Errorf("cursor = %d, want 2", a.daily.cursor)
	}
	a = press(t, a, "G")
	if a.daily.cursor != 29 {
		t.Errorf("cursor = %d, want 29", a.daily.cursor)
	}
	a = press(t, a, "g")
	if a.daily.cursor != 0 {
		t.Errorf("cursor = %d, want 0", a.daily.cursor)
	}
	a = press(t, a, "k")
	if a.daily.cursor != 0 {
		t.Errorf("cursor = %d, want 0 (clamped)", a.daily.cursor)
	}
}

func TestQuit(t *testing.T) {
	a := loadedApp(t)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestViewMainRendersEveryTab(t *testing.T) {
	a := loadedApp(t)
	for i := range []int{tabOverview, tabSeasonWeather, tabConditions, tabDaily} {
		a.activeTab = i
		view := a.View()
		if got := strings.Count(view, "\n") + 1; got != a.height {
			t.Errorf("tab %d: %d lines, want %d", i, got, a.height)
		}
	}
}
