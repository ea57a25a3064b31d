package components

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// eighths are bar-top glyphs indexed by filled eighths of a cell.
var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// dayBucket is one chart column: a run of consecutive days valued at their
// mean daily total.
type dayBucket struct {
	first time.Time
	total int64
}

// bucketDays splits days into at most n contiguous, near-equal runs.
func bucketDays(days []model.DailyTotal, n int) []dayBucket {
	if n <= 0 || len(days) == 0 {
		return nil
	}
	if n > len(days) {
		n = len(days)
	}
	out := make([]dayBucket, n)
	for i := range out {
		lo := i * len(days) / n
		hi := (i + 1) * len(days) / n
		var sum int64
		for _, d := range days[lo:hi] {
			sum += d.Total
		}
		out[i] = dayBucket{
			first: days[lo].Date,
			total: int64(math.Round(float64(sum) / float64(hi-lo))),
		}
	}
	return out
}

// Sparkline renders daily totals as a single line at most width cells wide.
func Sparkline(days []model.DailyTotal, width int, color lipgloss.Color) string {
	buckets := bucketDays(days, width)
	if len(buckets) == 0 {
		return ""
	}
	vals := make([]float64, len(buckets))
	for i, bk := range buckets {
		vals[i] = float64(bk.total)
	}
	style := lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface)
	return style.Render(cli.RenderSparkline(vals))
}

// DailyChart renders daily rental totals as columns with order counts on the
// Y axis and calendar days on the X axis. When the range has more days than
// the plot has cells, each column shows the mean of a run of days. The peak
// column is highlighted. Areas too small for axes get a Sparkline instead.
func DailyChart(days []model.DailyTotal, color lipgloss.Color, width, height int) string {
	if len(days) == 0 {
		return ""
	}
	plotH := height - 2 // x axis + day labels
	if width < 20 || plotH < 2 {
		return Sparkline(days, width, color)
	}

	t := theme.Active
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	peakStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)

	var peak int64
	for _, d := range days {
		peak = max(peak, d.Total)
	}

	// One labeled tick every rowsPerTick rows.
	step := countStep(peak, max(1, plotH/2))
	ticks := max(1, int((peak+step-1)/step))
	rowsPerTick := max(1, plotH/ticks)
	plotH = rowsPerTick * ticks
	ceiling := float64(step) * float64(ticks)

	yW := 1
	for i := 1; i <= ticks; i++ {
		yW = max(yW, len(cli.FormatCompact(step*int64(i))))
	}
	plotW := width - yW - 1

	buckets := bucketDays(days, plotW)
	n := len(buckets)
	colW, gap := 1, 0
	switch {
	case n == 1:
		colW = min(plotW, 6)
	case n*3-1 <= plotW:
		colW, gap = 2, 1
	}
	span := n*colW + (n-1)*gap

	peakIdx := 0
	for i, bk := range buckets {
		if bk.total > buckets[peakIdx].total {
			peakIdx = i
		}
	}

	var b strings.Builder
	for row := plotH; row >= 1; row-- {
		label := ""
		if row%rowsPerTick == 0 {
			label = cli.FormatCompact(step * int64(row/rowsPerTick))
		}
		b.WriteString(axisStyle.Render(strings.Repeat(" ", yW-len(label)) + label + "│"))

		top := ceiling * float64(row) / float64(plotH)
		bottom := ceiling * float64(row-1) / float64(plotH)
		for i, bk := range buckets {
			if i > 0 && gap > 0 {
				b.WriteString(barStyle.Render(strings.Repeat(" ", gap)))
			}
			style := barStyle
			if i == peakIdx {
				style = peakStyle
			}
			b.WriteString(style.Render(strings.Repeat(string(barCell(float64(bk.total), bottom, top)), colW)))
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(strings.Repeat(" ", yW-1) + "0└" + strings.Repeat("─", span)))
	b.WriteString("\n")

	dates := make([]time.Time, n)
	for i, bk := range buckets {
		dates[i] = bk.first
	}
	b.WriteString(axisStyle.Render(strings.Repeat(" ", yW+1) + strings.TrimRight(layoutDayLabels(dates, colW+gap, span), " ")))

	return b.String()
}

func barCell(v, bottom, top float64) rune {
	switch {
	case v >= top:
		return '█'
	case v <= bottom:
		return ' '
	}
	idx := int((v - bottom) / (top - bottom) * 8)
	return eighths[min(max(idx, 1), 8)]
}

// countStep picks the smallest 1, 2 or 5 times a power of ten that covers
// peak in at most intervals ticks.
func countStep(peak int64, intervals int) int64 {
	if intervals < 1 {
		intervals = 1
	}
	for base := int64(1); ; base *= 10 {
		for _, m := range []int64{1, 2, 5} {
			step := base * m
			if (peak+step-1)/step <= int64(intervals) {
				return step
			}
		}
	}
}

// dayLabels names each date on the X axis: the month abbreviation for the
// first date and wherever the month changes, otherwise the day of month.
func dayLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	for i, d := range dates {
		if i == 0 || d.Month() != dates[i-1].Month() {
			labels[i] = d.Format("Jan")
		} else {
			labels[i] = strconv.Itoa(d.Day())
		}
	}
	return labels
}

// layoutDayLabels places labels for columns stride cells apart on a line of
// span cells. Month labels are placed first, then day numbers fill gaps that
// leave two blank cells on either side.
func layoutDayLabels(dates []time.Time, stride, span int) string {
	line := []rune(strings.Repeat(" ", span))
	used := make([]bool, span)
	labels := dayLabels(dates)

	place := func(pos int, s string, margin int) {
		if pos+len(s) > span {
			pos = span - len(s)
		}
		if pos < 0 {
			return
		}
		for j := max(0, pos-margin); j < min(span, pos+len(s)+margin); j++ {
			if used[j] {
				return
			}
		}
		for j, r := range s {
			line[pos+j] = r
			used[pos+j] = true
		}
	}

	for i, d := range dates {
		if i == 0 || d.Month() != dates[i-1].Month() {
			place(i*stride, labels[i], 1)
		}
	}
	for i, d := range dates {
		if i > 0 && d.Month() == dates[i-1].Month() {
			place(i*stride, labels[i], 2)
		}
	}
	return string(line)
}
