package cmd

import (
	"fmt"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/pipeline"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily rentals table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	rng, err := resolveRange(result.Range)
	if err != nil {
		return err
	}
	days := pipeline.DailyTotals(pipeline.FilterByRange(result.Records, rng.Start, rng.End))

	if len(days) == 0 {
		fmt.Printf("\n  %s\n", cli.RenderMuted(fmt.Sprintf("No rentals between %s.", rng)))
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY RENTALS  %s", rng)))
	fmt.Println()

	values := make([]float64, len(days))
	var peak int64
	for i, d := range days {
		values[i] = float64(d.Total)
		if d.Total > peak {
			peak = d.Total
		}
	}
	fmt.Printf("  %s\n\n", cli.RenderSparkline(values))

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			cli.FormatDate(d.Date),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(d.Casual),
			cli.FormatNumber(d.Registered),
			cli.FormatNumber(d.Total),
			cli.RenderHorizontalBar(float64(d.Total), float64(peak), 20),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Date", "Day", "Casual", "Registered", "Total", ""},
		Rows:     rows,
		LeftCols: []int{1, 5},
	}))

	return nil
}
