package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/esaepulloh/bikedash/internal/logging"
	"github.com/esaepulloh/bikedash/internal/source"
	"github.com/esaepulloh/bikedash/internal/store"
)

// LoadWithCache is Load backed by the record cache. The file is reparsed
// only when its mtime or size changed since it was cached, or when the
// cached parse cannot answer for the requested options.
func LoadWithCache(path string, opts source.Options, cache *store.Cache) (*LoadResult, error) {
	df, err := source.Discover(path)
	if err != nil {
		return nil, err
	}

	tracked, ok, err := cache.GetTrackedFile(df.Path)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	if ok && cacheUsable(tracked, df, opts) {
		records, err := cache.LoadRecords(df.Path)
		if err != nil {
			return nil, fmt.Errorf("loading cached records: %w", err)
		}
		result := &LoadResult{
			Records:      records,
			File:         df,
			SkippedRows:  tracked.RowErrors,
			Inconsistent: tracked.Inconsistent,
			IgnoredCols:  tracked.ExtraColumns,
			FromCache:    true,
		}
		if err := result.finish(); err != nil {
			return nil, err
		}
		return result, nil
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

	fi := store.FileInfo{
		MtimeNs:      df.MtimeNs,
		SizeBytes:    df.SizeBytes,
		RowErrors:    result.SkippedRows,
		Inconsistent: result.Inconsistent,
		ExtraColumns: result.IgnoredCols,
	}
	if err := cache.SaveRecords(df.Path, pr.Records, fi); err != nil {
		logging.L().Warnw("cache write failed", "file", df.Path, "error", err)
	}

	if err := result.finish(); err != nil {
		return nil, err
	}
	return result, nil
}

// cacheUsable reports whether a cached parse answers for opts. Strict mode
// must see the first bad row itself, and ignored columns are a schema error
// unless extra columns are allowed.
func cacheUsable(fi store.FileInfo, df source.DiscoveredFile, opts source.Options) bool {
	if !fi.Matches(df.MtimeNs, df.SizeBytes) {
		return false
	}
	if opts.Strict && fi.RowErrors > 0 {
		return false
	}
	if !opts.AllowExtraColumns && fi.ExtraColumns > 0 {
		return false
	}
	return true
}

// CacheReport describes what the record cache holds.
type CacheReport struct {
	Files   map[string]store.FileInfo
	Records int
	Pruned  []string // tracked paths dropped because the file is gone
}

// InspectCache lists the tracked files and the cached record count, after
// dropping entries whose data file no longer exists.
func InspectCache(cache *store.Cache) (CacheReport, error) {
	files, err := cache.GetTrackedFiles()
	if err != nil {
		return CacheReport{}, fmt.Errorf("reading cache: %w", err)
	}

	var report CacheReport
	for path := range files {
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := cache.DeleteFile(path); err != nil {
			return CacheReport{}, fmt.Errorf("pruning %s: %w", path, err)
		}
		delete(files, path)
		report.Pruned = append(report.Pruned, path)
	}
	sort.Strings(report.Pruned)
	if len(report.Pruned) > 0 {
		logging.L().Debugw("pruned cache entries", "files", report.Pruned)
	}

	report.Files = files
	report.Records, err = cache.RecordCount()
	if err != nil {
		return CacheReport{}, fmt.Errorf("counting cached records: %w", err)
	}
	return report, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "bikedash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "bikedash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "records.db")
}
