package components

import (
	"strings"
	"testing"

	"github.com/esaepulloh/bikedash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 4, []int{25, 25, 25, 25}},
		{101, 4, []int{26, 25, 25, 25}},
		{7, 3, []int{3, 2, 2}},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		sum := 0
		for i, w := range got {
			sum += w
			if w != tt.want[i] {
				t.Errorf("LayoutRow(%d, %d)[%d] = %d, want %d", tt.total, tt.n, i, w, tt.want[i])
			}
		}
		if sum != tt.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tt.total, tt.n, sum)
		}
	}
	if got := LayoutRow(10, 0); got != nil {
		t.Errorf("LayoutRow(10, 0) = %v, want nil", got)
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Errorf("joined height = %d, want %d", len(lines), tallLines)
	}

	for i, line := range lines {
		if lipgloss.Width(line) != 44 {
			t.Errorf("line %d width = %d, want 44", i, lipgloss.Width(line))
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d has no ANSI codes", i)
		}
	}
}

func TestMetricCardRow(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Total orders", Value: "3,292,679", Delta: "+12 (+0.4%)"},
		{Label: "Casual", Value: "620,017"},
		{Label: "Registered", Value: "2,672,662"},
	}, 90)

	if w := lipgloss.Width(row); w != 90 {
		t.Errorf("row width = %d, want 90", w)
	}
	for _, want := range []string{"Total orders", "3,292,679", "Registered"} {
		if !strings.Contains(row, want) {
			t.Errorf("row missing %q", want)
		}
	}
	if MetricCardRow(nil, 90) != "" {
		t.Error("MetricCardRow(nil) should render nothing")
	}
}
