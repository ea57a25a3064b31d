package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/config"
	"github.com/esaepulloh/bikedash/internal/logging"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/pipeline"
	"github.com/esaepulloh/bikedash/internal/source"
	"github.com/esaepulloh/bikedash/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDataFile   string
	flagStart      string
	flagEnd        string
	flagNoCache    bool
	flagStrict     bool
	flagAllowExtra bool
	flagQuiet      bool
	flagDebug      bool
	flagEnvFile    string
)

// appCfg is the effective configuration: config file, then .env and
// environment, then flags.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:          "bikedash",
	Short:        "Bike sharing rental dashboard",
	Long:         "Summarize daily bike-sharing rentals by date range, season, weather and conditions.",
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataFile, "data", "f", "", "CSV data file or directory (default: search dashboard/main_data.csv, main_data.csv, ...)")
	rootCmd.PersistentFlags().StringVar(&flagStart, "start", "", "First day of the range (YYYY-MM-DD, default: first day in data)")
	rootCmd.PersistentFlags().StringVar(&flagEnd, "end", "", "Last day of the range (YYYY-MM-DD, default: last day in data)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse the data file")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "Fail on the first malformed row instead of skipping it")
	rootCmd.PersistentFlags().BoolVar(&flagAllowExtra, "allow-extra-columns", false, "Ignore header columns bikedash does not use")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before reading BIKEDASH_* variables")

	rootCmd.PersistentPreRunE = setup
}

// setup resolves the effective configuration and initializes logging.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg, flagEnvFile); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.General.DataFile = flagDataFile
	}
	if flags.Changed("strict") {
		cfg.General.Strict = flagStrict
	}
	if flags.Changed("allow-extra-columns") {
		cfg.General.AllowExtraColumns = flagAllowExtra
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = flagDebug
	}
	appCfg = cfg

	logPath := cfg.Log.File
	if logPath == "" && cmd == tuiCmd {
		logPath = config.DefaultLogPath()
	}
	if err := logging.Init(cfg.Log.Debug, logPath); err != nil {
		return err
	}
	logging.L().Debugw("configuration resolved",
		"command", cmd.Name(),
		"data_file", cfg.General.DataFile,
		"strict", cfg.General.Strict,
		"allow_extra_columns", cfg.General.AllowExtraColumns)
	return nil
}

func sourceOptions() source.Options {
	return source.Options{
		Strict:            appCfg.General.Strict,
		AllowExtraColumns: appCfg.General.AllowExtraColumns,
	}
}

// loadData is the shared data loading path used by all commands.
// Uses the SQLite cache when available for fast subsequent runs.
func loadData() (*pipeline.LoadResult, error) {
	path := appCfg.General.DataFile
	opts := sourceOptions()

	// Try cached load unless --no-cache
	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			// Cache open failed, fall back to uncached
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, parsing data file\n")
			}
			logging.L().Debugw("cache open failed", "error", err)
		} else {
			defer func() { _ = cache.Close() }()

			result, err := pipeline.LoadWithCache(path, opts, cache)
			if err == nil {
				reportLoad(result)
				return result, nil
			}
			if isDataError(err) {
				return nil, err
			}
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache error, falling back to full parse\n")
			}
			logging.L().Warnw("cached load failed", "error", err)
		}
	}

	// Uncached path
	result, err := pipeline.Load(path, opts)
	if err != nil {
		return nil, err
	}
	reportLoad(result)
	return result, nil
}

func reportLoad(r *pipeline.LoadResult) {
	if flagQuiet {
		return
	}
	how := "Parsed"
	if r.FromCache {
		how = "Loaded from cache"
	}
	fmt.Fprintf(os.Stderr, "  %s %s rows from %s\n", how, cli.FormatNumber(int64(len(r.Records))), r.File.Path)
	if r.SkippedRows > 0 {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%d malformed rows skipped (use --strict to fail instead)", r.SkippedRows)))
	}
	if r.Inconsistent > 0 {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%d rows where cnt != casual + registered", r.Inconsistent)))
	}
	if r.IgnoredCols > 0 {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%d extra columns ignored", r.IgnoredCols)))
	}
}

// flagRange parses --start and --end. Unset ends are left zero.
func flagRange() (model.DateRange, error) {
	var rng model.DateRange
	var err error
	if flagStart != "" {
		if rng.Start, err = source.ParseDate(flagStart); err != nil {
			return rng, fmt.Errorf("--start: %w", err)
		}
	}
	if flagEnd != "" {
		if rng.End, err = source.ParseDate(flagEnd); err != nil {
			return rng, fmt.Errorf("--end: %w", err)
		}
	}
	if !rng.Start.IsZero() && !rng.End.IsZero() {
		if err := pipeline.ValidateRange(rng); err != nil {
			return rng, err
		}
	}
	return rng, nil
}

// resolveRange fills unset --start/--end from the dataset bounds.
func resolveRange(bounds model.DateRange) (model.DateRange, error) {
	rng, err := flagRange()
	if err != nil {
		return rng, err
	}
	if rng.Start.IsZero() {
		rng.Start = bounds.Start
	}
	if rng.End.IsZero() {
		rng.End = bounds.End
	}
	if err := pipeline.ValidateRange(rng); err != nil {
		return rng, err
	}
	return rng, nil
}

// isDataError reports errors caused by the data file itself.
func isDataError(err error) bool {
	return errors.Is(err, source.ErrSchemaMismatch) ||
		errors.Is(err, source.ErrMalformedRow) ||
		errors.Is(err, source.ErrNoDataFile) ||
		errors.Is(err, pipeline.ErrEmptyDataset)
}
