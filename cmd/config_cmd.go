// Package cmd implements the bikedash CLI commands.
package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/esaepulloh/bikedash/internal/cli"
	"github.com/esaepulloh/bikedash/internal/config"
	"github.com/esaepulloh/bikedash/internal/pipeline"
	"github.com/esaepulloh/bikedash/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	if cfg.General.DataFile != "" {
		fmt.Printf("    Data file:           %s\n", cfg.General.DataFile)
	} else {
		fmt.Println("    Data file:           auto-detect")
	}
	if v := os.Getenv(config.EnvDataFile); v != "" {
		fmt.Printf("    (%s is set)\n", config.EnvDataFile)
	}
	fmt.Printf("    Strict:              %v\n", cfg.General.Strict)
	fmt.Printf("    Allow extra columns: %v\n", cfg.General.AllowExtraColumns)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll interval: %s\n", cfg.Server.PollInterval())
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Debug: %v\n", cfg.Log.Debug)
	if cfg.Log.File != "" {
		fmt.Printf("    File:  %s\n", cfg.Log.File)
	} else {
		fmt.Printf("    File:  stderr (tui: %s)\n", config.DefaultLogPath())
	}
	fmt.Println()

	return printCache(pipeline.CachePath())
}

func printCache(path string) error {
	fmt.Println("  [Cache]")
	fmt.Printf("    Path: %s\n", path)
	if _, err := os.Stat(path); err != nil {
		fmt.Println("    " + cli.RenderMuted("not created yet"))
		return nil
	}

	cache, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	report, err := pipeline.InspectCache(cache)
	if err != nil {
		return err
	}
	fmt.Printf("    Records: %s\n", cli.FormatNumber(int64(report.Records)))

	paths := make([]string, 0, len(report.Files))
	for p := range report.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fi := report.Files[p]
		fmt.Printf("    %s  %s, %d skipped\n", p, cli.RenderMuted(time.Unix(0, fi.MtimeNs).Format(time.DateTime)), fi.RowErrors)
	}
	for _, p := range report.Pruned {
		fmt.Printf("    %s\n", cli.RenderMuted("dropped "+p+" (file no longer exists)"))
	}
	return nil
}
