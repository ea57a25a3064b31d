package cmd

import (
	"fmt"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline metrics and every group summary for the range",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	rng, err := resolveRange(result.Range)
	if err != nil {
		return err
	}
	dash, err := pipeline.Summarize(result.Records, rng)
	if err != nil {
		return err
	}

	if dash.Totals.Days == 0 {
		fmt.Printf("\n  %s\n", cli.RenderMuted(fmt.Sprintf("No rentals between %s.", rng)))
		return nil
	}

	// Compute previous period for comparison
	prevRng := pipeline.PreviousRange(rng)
	prev := pipeline.SumTotals(pipeline.FilterByRange(result.Records, prevRng.Start, prevRng.End))

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BIKE RENTALS  %s", rng)))
	fmt.Println()

	fmt.Print(cli.RenderTable(metricsTable(dash, prev)))

	for _, t := range groupTables(dash, 24) {
		fmt.Println()
		fmt.Print(cli.RenderTable(t))
	}

	return nil
}

func metricsTable(dash model.Dashboard, prev model.Totals) cli.Table {
	tot := dash.Totals
	desc := dash.Describe

	ordersStr := cli.FormatNumber(tot.Orders)
	if prev.Days > 0 {
		ordersStr += fmt.Sprintf("  (%s vs prev %dd)", cli.RenderDelta(tot.Orders, prev.Orders), dash.Range.Days())
	}

	rows := [][]string{
		{"Total Orders", ordersStr},
		{"Casual", fmt.Sprintf("%s  (%s)", cli.FormatNumber(tot.Casual), cli.FormatPercent(cli.Share(tot.Casual, tot.Orders)))},
		{"Registered", fmt.Sprintf("%s  (%s)", cli.FormatNumber(tot.Registered), cli.FormatPercent(cli.Share(tot.Registered, tot.Orders)))},
		{"Days with data", fmt.Sprintf("%d of %d", tot.Days, dash.Range.Days())},
		cli.Separator,
		{"Mean / day", fmt.Sprintf("%.1f", desc.Mean)},
		{"Std dev", fmt.Sprintf("%.1f", desc.StdDev)},
		{"Peak day", fmt.Sprintf("%s  %s", cli.FormatDate(desc.Peak.Date), cli.FormatNumber(desc.Peak.Total))},
		{"Lowest day", fmt.Sprintf("%s  %s", cli.FormatDate(desc.Low.Date), cli.FormatNumber(desc.Low.Total))},
		{"Temp vs orders", cli.FormatCorrelation(desc.TempCorrelation)},
	}

	return cli.Table{
		Headers:  []string{"Metric", "Value"},
		Rows:     rows,
		LeftCols: []int{1},
	}
}

// groupTables renders the five summaries in display order.
func groupTables(dash model.Dashboard, barWidth int) []cli.Table {
	return []cli.Table{
		cli.GroupTable("Orders by Season", "Season", dash.Season, barWidth),
		cli.GroupTable("Orders by Weather", "Weather", dash.Weather, barWidth),
		cli.GroupTable("Orders by Temperature", "Temperature", dash.Temperature, barWidth),
		cli.GroupTable("Orders by Humidity", "Humidity", dash.Humidity, barWidth),
		cli.GroupTable("Orders by Windspeed", "Windspeed", dash.Windspeed, barWidth),
	}
}
