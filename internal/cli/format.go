// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/esaepulloh/bikedash/internal/model"
)

// FormatCompact formats a count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCompact(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Share returns part/whole, or 0 when whole is 0.
func Share(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

// FormatDelta formats the change from previous to current as a signed count
// with the relative change, e.g. "+1,204 (+12.5%)". The percentage is omitted
// when previous is 0.
func FormatDelta(current, previous int64) string {
	delta := current - previous
	sign := "+"
	if delta < 0 {
		sign = "-"
		delta = -delta
	}
	s := sign + FormatNumber(delta)
	if previous != 0 {
		pct := float64(current-previous) / float64(previous) * 100
		s += fmt.Sprintf(" (%+.1f%%)", pct)
	}
	return s
}

// FormatCorrelation renders Pearson's r with a qualitative label.
func FormatCorrelation(r float64) string {
	abs := r
	if abs < 0 {
		abs = -abs
	}
	var label string
	switch {
	case abs >= 0.7:
		label = "strong"
	case abs >= 0.4:
		label = "moderate"
	case abs >= 0.1:
		label = "weak"
	default:
		label = "none"
	}
	return fmt.Sprintf("%+.2f (%s)", r, label)
}

// FormatDate formats a calendar day.
func FormatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
