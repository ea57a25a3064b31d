package cmd

import (
	"fmt"
	"strings"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/pipeline"

	"github.com/spf13/cobra"
)

var breakdownCmd = &cobra.Command{
	Use:       "breakdown [season|weather|temp|humidity|windspeed]",
	Short:     "Rentals grouped by season, weather or conditions",
	Long:      "Rentals grouped by one dimension, or by all of them when none is given.\nAliases: weathersit, temperature, hum, wind.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: pipeline.Dimensions,
	RunE:      runBreakdown,
}

var dimensionTitles = map[string]string{
	pipeline.DimSeason:    "Season",
	pipeline.DimWeather:   "Weather",
	pipeline.DimTemp:      "Temperature",
	pipeline.DimHumidity:  "Humidity",
	pipeline.DimWindspeed: "Windspeed",
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(_ *cobra.Command, args []string) error {
	dims := pipeline.Dimensions
	if len(args) == 1 {
		dim, ok := pipeline.CanonicalDimension(args[0])
		if !ok {
			return fmt.Errorf("unknown dimension %q (want one of %s)", args[0], strings.Join(pipeline.Dimensions, ", "))
		}
		dims = []string{dim}
	}

	result, err := loadData()
	if err != nil {
		return err
	}
	rng, err := resolveRange(result.Range)
	if err != nil {
		return err
	}
	view := pipeline.FilterByRange(result.Records, rng.Start, rng.End)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BREAKDOWN  %s", rng)))

	for _, dim := range dims {
		groups, _ := pipeline.GroupBy(view, dim)
		title := dimensionTitles[dim]
		fmt.Println()
		if len(groups) == 0 {
			fmt.Printf("  %s\n", cli.RenderMuted(title+": no rentals in range"))
			continue
		}
		fmt.Print(cli.RenderTable(cli.GroupTable("Orders by "+title, title, groups, 30)))
	}

	return nil
}
