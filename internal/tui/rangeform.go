package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/pipeline"
	"github.com/esaepulloh/bikedash/internal/source"
	"github.com/esaepulloh/bikedash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// rangeValues holds the form field values. It lives behind a pointer so the
// form keeps writing to the same values as the App is copied between updates.
type rangeValues struct {
	start string
	end   string
}

// newRangeForm builds the start/end date picker bounded by the dataset.
func newRangeForm(bounds model.DateRange, vals *rangeValues) *huh.Form {
	hint := fmt.Sprintf("Data covers %s", bounds)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Select date range").
				Description(hint+"\nDates are YYYY-MM-DD. Esc cancels."),

			huh.NewInput().
				Title("Start date").
				Placeholder(bounds.Start.Format(model.DateLayout)).
				Value(&vals.start).
				Validate(func(s string) error {
					_, err := parseBoundedDate(s, bounds)
					return err
				}),

			huh.NewInput().
				Title("End date").
				Placeholder(bounds.End.Format(model.DateLayout)).
				Value(&vals.end).
				Validate(func(s string) error {
					end, err := parseBoundedDate(s, bounds)
					if err != nil {
						return err
					}
					if start, err := source.ParseDate(vals.start); err == nil && end.Before(start) {
						return errors.New("end date is before start date")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}

// parseBoundedDate parses s and requires it to fall within bounds.
func parseBoundedDate(s string, bounds model.DateRange) (time.Time, error) {
	d, err := source.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD")
	}
	if !bounds.Contains(d) {
		return time.Time{}, fmt.Errorf("outside %s", bounds)
	}
	return d, nil
}

// parseRangeInput turns the submitted form values into a validated range.
func parseRangeInput(vals rangeValues, bounds model.DateRange) (model.DateRange, error) {
	start, err := parseBoundedDate(vals.start, bounds)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("start date: %w", err)
	}
	end, err := parseBoundedDate(vals.end, bounds)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("end date: %w", err)
	}
	return pipeline.NewRange(start, end)
}

func (a App) updateRangeForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.rangeForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.rangeForm = f
	}

	switch a.rangeForm.State {
	case huh.StateCompleted:
		a.rangeForm = nil
		a.applyRangeInput()
		return a, nil
	case huh.StateAborted:
		a.rangeForm = nil
		return a, nil
	}

	return a, cmd
}

// applyRangeInput commits the form values. An invalid selection keeps the
// previous range and surfaces the reason in the status bar.
func (a *App) applyRangeInput() {
	rng, err := parseRangeInput(*a.rangeVals, a.bounds)
	if err == nil {
		err = a.setRange(rng)
	}
	if err != nil {
		a.notice = "range unchanged: " + err.Error()
		return
	}
	a.notice = ""
}

func (a App) viewRangeForm() string {
	t := theme.Active
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.rangeForm.View(),
		lipgloss.WithWhitespaceBackground(t.Background))
}
