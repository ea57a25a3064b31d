package pipeline

import (
	"fmt"
	"sort"

	"github.com/esaepulloh/bikedash/internal/logging"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Records []model.Record
	File    source.DiscoveredFile

	// Range is the default selection: the dataset's first and last day.
	Range model.DateRange

	// RowErrors holds the excluded rows when the file was parsed; a cache hit
	// only knows how many there were, see SkippedRows.
	RowErrors    []*source.RowError
	SkippedRows  int
	Inconsistent int
	IgnoredCols  int

	FromCache bool
}

// Load discovers and parses the data file at path, sorts its records by date
// and computes the default range.
func Load(path string, opts source.Options) (*LoadResult, error) {
	df, err := source.Discover(path)
	if err != nil {
		return nil, err
	}

	pr := source.ParseFile(df.Path, opts)
	if pr.Err != nil {
		return nil, fmt.Errorf("reading %s: %w", df.Path, pr.Err)
	}

	result := &LoadResult{
		Records:      pr.Records,
		File:         df,
		RowErrors:    pr.RowErrors,
		SkippedRows:  len(pr.RowErrors),
		Inconsistent: pr.Inconsistent,
		IgnoredCols:  len(pr.IgnoredColumns),
	}
	if err := result.finish(); err != nil {
		return nil, err
	}
	return result, nil
}

// finish sorts records, derives the default range and logs data-quality detail.
func (r *LoadResult) finish() error {
	sort.SliceStable(r.Records, func(i, j int) bool {
		return r.Records[i].Date.Before(r.Records[j].Date)
	})

	rng, err := FullRange(r.Records)
	if err != nil {
		return fmt.Errorf("%s: %w", r.File.Path, err)
	}
	r.Range = rng

	// Callers report skipped rows to the user; per-row detail is debug output.
	log := logging.L()
	for _, re := range r.RowErrors {
		log.Debugw("row excluded", "file", r.File.Path, "line", re.Line, "column", re.Column, "error", re.Err)
	}
	if r.Inconsistent > 0 {
		log.Debugw("rows where cnt != casual + registered", "file", r.File.Path, "rows", r.Inconsistent)
	}
	log.Debugw("dataset loaded",
		"file", r.File.Path,
		"records", len(r.Records),
		"range", r.Range.String(),
		"skipped", r.SkippedRows,
		"from_cache", r.FromCache,
	)
	return nil
}
