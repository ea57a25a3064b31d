// Package tui provides the interactive Bubble Tea dashboard for bikedash.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/esaepulloh/bikedash/internal/config"
	"github.com/esaepulloh/bikedash/internal/logging"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/pipeline"
	"github.com/esaepulloh/bikedash/internal/source"
	"github.com/esaepulloh/bikedash/internal/store"
	"github.com/esaepulloh/bikedash/internal/tui/components"
	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the data pipeline finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	LoadTime time.Duration
	Err      error
	Reload   bool
}

// Options configures what the dashboard loads.
type Options struct {
	DataPath string
	Source   source.Options
	NoCache  bool

	// Range is the initial selection. A zero Start or End is taken from the
	// dataset bounds.
	Range model.DateRange
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	records  []model.Record
	bounds   model.DateRange
	file     string
	skipped  int
	cached   bool
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Selected range and the summaries computed for it
	rng  model.DateRange
	dash model.Dashboard
	prev model.Totals

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string
	reloading bool

	daily dailyState

	// Range form (huh)
	rangeForm *huh.Form
	rangeVals *rangeValues

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead    = 10 // approximate header + status bar height for half-page calc
	minHalfPageScroll = 1
	minContentHeight  = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:      opts,
		spinner:   sp,
		rangeVals: &rangeValues{},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts, false),
		a.spinner.Tick,
	)
}

// setRange validates rng, clamps it to the dataset and recomputes every
// summary. On error the previous range stays active.
func (a *App) setRange(rng model.DateRange) error {
	if err := pipeline.ValidateRange(rng); err != nil {
		return err
	}
	clamped := pipeline.ClampRange(rng, a.bounds)
	if err := pipeline.ValidateRange(clamped); err != nil {
		return fmt.Errorf("%s is outside the data (%s)", rng, a.bounds)
	}

	dash, err := pipeline.Summarize(a.records, clamped)
	if err != nil {
		return err
	}
	prevRng := pipeline.PreviousRange(clamped)
	a.rng = clamped
	a.dash = dash
	a.prev = pipeline.SumTotals(pipeline.FilterByRange(a.records, prevRng.Start, prevRng.End))

	if a.daily.cursor >= len(dash.Daily) {
		a.daily.cursor = len(dash.Daily) - 1
	}
	if a.daily.cursor < 0 {
		a.daily.cursor = 0
	}
	a.daily.offset = 0
	return nil
}

// shiftRange moves the selection by its own length; dir is -1 or +1.
func (a *App) shiftRange(dir int) {
	days := a.rng.Days() * dir
	next := model.DateRange{
		Start: a.rng.Start.AddDate(0, 0, days),
		End:   a.rng.End.AddDate(0, 0, days),
	}
	if err := a.setRange(next); err != nil {
		a.notice = "no data that way"
		return
	}
	a.notice = ""
}

func (a *App) applyLoad(msg DataLoadedMsg) {
	a.loaded = true
	a.reloading = false
	if msg.Err != nil {
		if msg.Reload && a.records != nil {
			a.notice = "reload failed: " + msg.Err.Error()
			return
		}
		a.loadErr = msg.Err
		return
	}

	r := msg.Result
	a.records = r.Records
	a.bounds = r.Range
	a.file = r.File.Path
	a.skipped = r.SkippedRows
	a.cached = r.FromCache
	a.loadTime = msg.LoadTime
	a.loadErr = nil

	want := a.rng
	if !msg.Reload {
		want = a.opts.Range
	}
	if want.Start.IsZero() {
		want.Start = a.bounds.Start
	}
	if want.End.IsZero() {
		want.End = a.bounds.End
	}
	if err := a.setRange(want); err != nil {
		a.notice = err.Error()
		_ = a.setRange(a.bounds)
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.rangeForm != nil {
			a.rangeForm = a.rangeForm.WithWidth(formWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.loadErr != nil || a.showHelp || a.rangeForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}
		if a.loadErr != nil {
			if key == "q" || key == "esc" {
				return a, tea.Quit
			}
			return a, nil
		}

		// The range form intercepts all keys while open
		if a.rangeForm != nil {
			if key == "esc" {
				a.rangeForm = nil
				return a, nil
			}
			return a.updateRangeForm(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if a.activeTab == tabDaily {
			if handled, next := a.updateDailyKeys(key); handled {
				return next, nil
			}
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			*a.rangeVals = rangeValues{
				start: a.rng.Start.Format(model.DateLayout),
				end:   a.rng.End.Format(model.DateLayout),
			}
			a.rangeForm = newRangeForm(a.bounds, a.rangeVals)
			a.rangeForm = a.rangeForm.WithWidth(formWidth(a.width))
			a.notice = ""
			return a, a.rangeForm.Init()
		case "a":
			_ = a.setRange(a.bounds)
			a.notice = ""
		case "[":
			a.shiftRange(-1)
		case "]":
			a.shiftRange(1)
		case "t":
			next := theme.Next(theme.Active.Name)
			theme.SetActive(next.Name)
			saveTheme(next.Name)
		case "ctrl+r":
			if !a.reloading {
				a.reloading = true
				return a, loadDataCmd(a.opts, true)
			}
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		default:
			if len(key) == 1 {
				if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
					a.activeTab = idx
				}
			}
		}
		return a, nil

	case DataLoadedMsg:
		a.applyLoad(msg)
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the range form (cursor blinks, etc.)
	if a.rangeForm != nil {
		return a.updateRangeForm(msg)
	}

	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabDaily {
			a.daily.move(-1, len(a.dash.Daily))
			a.daily.follow(a.dailyVisibleRows())
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabDaily {
			a.daily.move(1, len(a.dash.Daily))
			a.daily.follow(a.dailyVisibleRows())
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.loadErr != nil {
		return a.viewError()
	}

	if a.rangeForm != nil {
		return a.viewRangeForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  bikedash needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ bikedash"))
	b.WriteString(subtitleStyle.Render(" · Bike Sharing Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading rentals..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3).
		Width(min(a.width-4, 90))

	titleStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	bodyStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Could not load data"))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(describeLoadError(a.loadErr)))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press q to quit"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

// describeLoadError adds a hint for the errors a user can fix.
func describeLoadError(err error) string {
	var se *source.SchemaError
	switch {
	case errors.As(err, &se):
		msg := err.Error()
		if len(se.Extra) > 0 && len(se.Missing) == 0 {
			msg += "\n\nRe-run with --allow-extra-columns to ignore them."
		}
		return msg
	case errors.Is(err, source.ErrMalformedRow):
		return err.Error() + "\n\nStrict mode is on; drop --strict to skip bad rows."
	case errors.Is(err, source.ErrNoDataFile):
		return err.Error() + "\n\nPass the CSV with --data or set BIKEDASH_DATA."
	default:
		return err.Error()
	}
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o s c d", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move in daily table"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Date range", []struct{ key, desc string }{
			{"r", "Choose start and end date"},
			{"a", "Select all dates"},
			{"[ ]", "Previous / Next period"},
		}},
		{"Other", []struct{ key, desc string }{
			{"t", "Cycle color theme"},
			{"^r", "Reload data file"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + range pill
	pillStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	accentStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	rangeStr := pillStyle.Render(" ") +
		accentStyle.Render(a.rng.String()) +
		pillStyle.Render(fmt.Sprintf(" │ %d days", a.rng.Days()))
	if a.rng == a.bounds {
		rangeStr += pillStyle.Render(" │ all data")
	}
	rangeStr += pillStyle.Render(" ")

	rangeRowStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Width(w)

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		rangeRowStyle.Render(rangeStr)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		File:      shortPath(a.file),
		Records:   len(a.records),
		Skipped:   a.skipped,
		LoadTime:  fmt.Sprintf("%.0fms", float64(a.loadTime.Microseconds())/1000),
		FromCache: a.cached,
		Notice:    truncStr(a.notice, w/2),
	})

	// 3. Content zone height
	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabSeasonWeather:
		content = a.renderSeasonWeatherTab(cw)
	case tabConditions:
		content = a.renderConditionsTab(cw)
	case tabDaily:
		content = a.renderDailyTab(cw, contentH)
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)

	// 6. Fill each line to full width with background
	content = fillLinesWithBackground(content, cw, t.Background)

	// 7. Place content (centers when w > cw)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

// loadDataCmd loads the data file, from the record cache when possible.
func loadDataCmd(opts Options, reload bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		if !opts.NoCache {
			cache, err := store.Open(pipeline.CachePath())
			if err == nil {
				result, loadErr := pipeline.LoadWithCache(opts.DataPath, opts.Source, cache)
				_ = cache.Close()
				if loadErr == nil {
					return DataLoadedMsg{Result: result, LoadTime: time.Since(start), Reload: reload}
				}
				if isDataError(loadErr) {
					return DataLoadedMsg{Err: loadErr, Reload: reload}
				}
				logging.L().Warnw("cached load failed, parsing directly", "error", loadErr)
			} else {
				logging.L().Warnw("cache unavailable", "error", err)
			}
		}

		result, err := pipeline.Load(opts.DataPath, opts.Source)
		return DataLoadedMsg{Result: result, LoadTime: time.Since(start), Err: err, Reload: reload}
	}
}

// isDataError reports errors caused by the data file itself, which a
// second uncached attempt would only repeat.
func isDataError(err error) bool {
	return errors.Is(err, source.ErrSchemaMismatch) ||
		errors.Is(err, source.ErrMalformedRow) ||
		errors.Is(err, source.ErrNoDataFile) ||
		errors.Is(err, pipeline.ErrEmptyDataset)
}

// saveTheme persists the theme choice, best-effort.
func saveTheme(name string) {
	cfg, err := config.Load()
	if err != nil {
		return
	}
	cfg.Appearance.Theme = name
	if err := config.Save(cfg); err != nil {
		logging.L().Warnw("saving theme failed", "error", err)
	}
}

func shortPath(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func formWidth(w int) int {
	if w > 60 {
		return 60
	}
	return w
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
