package cli

import (
	"strings"
	"testing"

	"github.com/esaepulloh/bikedash/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Plain output keeps width assertions independent of ANSI codes.
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderTable_AlignedRows(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Season", "Rentals"},
		Rows: [][]string{
			{"Fall", "1,061,129"},
			Separator,
			{"Spring", "471,348"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines = %d, want 7:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != width {
			t.Errorf("line %d width = %d, want %d: %q", i, w, width, l)
		}
	}
	if !strings.Contains(lines[5], "   471,348") {
		t.Errorf("numeric column not right-aligned: %q", lines[5])
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("RenderTable(empty) = %q, want empty", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 4, 8}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q, want ▁▄█", got)
	}
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("RenderSparkline(nil) = %q, want empty", got)
	}
	if got := RenderSparkline([]float64{0, 0}); got != "▁▁" {
		t.Errorf("RenderSparkline(zeros) = %q, want ▁▁", got)
	}
}

func TestRenderHorizontalBar(t *testing.T) {
	if got := RenderHorizontalBar(50, 100, 10); got != strings.Repeat("█", 5) {
		t.Errorf("bar = %q, want 5 blocks", got)
	}
	if got := RenderHorizontalBar(1, 1000, 10); got != "█" {
		t.Errorf("small nonzero bar = %q, want one block", got)
	}
	if got := RenderHorizontalBar(5, 0, 10); got != "" {
		t.Errorf("bar with zero max = %q, want empty", got)
	}
}

func TestGroupTable(t *testing.T) {
	tbl := GroupTable("Temperature", "Band", []model.GroupCount{
		{Key: "Hot", Count: 30},
		{Key: "Cold", Count: 10},
	}, 8)

	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if tbl.Rows[0][2] != "75.0%" || tbl.Rows[1][2] != "25.0%" {
		t.Errorf("shares = %s/%s, want 75.0%%/25.0%%", tbl.Rows[0][2], tbl.Rows[1][2])
	}
	if tbl.Rows[0][3] != strings.Repeat("█", 8) {
		t.Errorf("top bar = %q, want full width", tbl.Rows[0][3])
	}
}

func TestRenderMuted_KeepsText(t *testing.T) {
	if got := RenderMuted("No rentals between 2011-01-01 → 2011-01-31."); got != "No rentals between 2011-01-01 → 2011-01-31." {
		t.Errorf("RenderMuted = %q", got)
	}
}
