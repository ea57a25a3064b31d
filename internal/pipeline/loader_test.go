package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/esaepulloh/bikedash/internal/logging"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/source"
	"github.com/esaepulloh/bikedash/internal/store"
)

const csvHeader = "date,casual,registered,cnt,season,weathersit,temp,humidity,windspeed"

func writeCSV(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "main_data.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_SortsAndDefaultsRange(t *testing.T) {
	path := writeCSV(t, t.TempDir(),
		csvHeader,
		"2011-01-03,1,2,3,1,1,10,40,5",
		"2011-01-01,1,2,3,1,1,10,40,5",
		"bad,1,2,3,1,1,10,40,5",
		"2011-01-02,1,2,4,1,1,10,40,5",
	)

	result, err := Load(path, source.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("Records = %d, want 3", len(result.Records))
	}
	for i := 1; i < len(result.Records); i++ {
		if result.Records[i].Date.Before(result.Records[i-1].Date) {
			t.Errorf("records not sorted at %d", i)
		}
	}
	if !result.Range.Start.Equal(day(2011, 1, 1)) || !result.Range.End.Equal(day(2011, 1, 3)) {
		t.Errorf("Range = %s, want 2011-01-01 → 2011-01-03", result.Range)
	}
	if result.SkippedRows != 1 || len(result.RowErrors) != 1 {
		t.Errorf("SkippedRows = %d, RowErrors = %d, want 1/1", result.SkippedRows, len(result.RowErrors))
	}
	if result.Inconsistent != 1 {
		t.Errorf("Inconsistent = %d, want 1", result.Inconsistent)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	schema := writeCSV(t, dir, "date,cnt", "2011-01-01,3")
	if _, err := Load(schema, source.Options{}); !errors.Is(err, source.ErrSchemaMismatch) {
		t.Errorf("schema err = %v, want ErrSchemaMismatch", err)
	}

	empty := writeCSV(t, dir, csvHeader)
	if _, err := Load(empty, source.Options{}); !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("empty err = %v, want ErrEmptyDataset", err)
	}

	strict := writeCSV(t, dir, csvHeader, "2011-01-01,1,2,3,1,1,10,40,5", "2011-01-02,x,2,3,1,1,10,40,5")
	if _, err := Load(strict, source.Options{Strict: true}); !errors.Is(err, source.ErrMalformedRow) {
		t.Errorf("strict err = %v, want ErrMalformedRow", err)
	}
}

func TestLoadWithCache(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir,
		csvHeader,
		"2011-01-01,1,2,3,Spring,Clear,10,40,5",
		"2011-01-02,x,2,3,Spring,Clear,10,40,5",
		"2011-01-03,4,5,9,Summer,Clear,20,50,15",
	)

	cache, err := store.Open(filepath.Join(dir, "cache", "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(path, source.Options{}, cache)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.FromCache {
		t.Error("first load FromCache = true, want false")
	}

	second, err := LoadWithCache(path, source.Options{}, cache)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !second.FromCache {
		t.Error("second load FromCache = false, want true")
	}
	if len(second.Records) != len(first.Records) || second.SkippedRows != 1 {
		t.Errorf("cached = %d records, %d skipped; want %d, 1", len(second.Records), second.SkippedRows, len(first.Records))
	}
	for i := range first.Records {
		if second.Records[i] != first.Records[i] {
			t.Errorf("record %d = %+v, want %+v", i, second.Records[i], first.Records[i])
		}
	}

	// Strict mode cannot trust a cached parse that skipped rows.
	if _, err := LoadWithCache(path, source.Options{Strict: true}, cache); !errors.Is(err, source.ErrMalformedRow) {
		t.Errorf("strict err = %v, want ErrMalformedRow", err)
	}

	later := time.Now().Add(time.Hour)
	writeCSV(t, dir, csvHeader, "2011-02-01,1,2,3,Spring,Clear,10,40,5")
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	third, err := LoadWithCache(path, source.Options{}, cache)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.FromCache || len(third.Records) != 1 {
		t.Errorf("after change: FromCache = %v, records = %d; want false, 1", third.FromCache, len(third.Records))
	}
}

func TestInspectCache_PrunesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, csvHeader, "2011-01-01,1,2,3,Spring,Clear,10,40,5")

	cache, err := store.Open(filepath.Join(dir, "cache", "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	if _, err := LoadWithCache(path, source.Options{}, cache); err != nil {
		t.Fatal(err)
	}
	gone := filepath.Join(dir, "old.csv")
	if err := cache.SaveRecords(gone, []model.Record{{Date: time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)}}, store.FileInfo{}); err != nil {
		t.Fatal(err)
	}

	report, err := InspectCache(cache)
	if err != nil {
		t.Fatalf("InspectCache: %v", err)
	}
	if len(report.Pruned) != 1 || report.Pruned[0] != gone {
		t.Errorf("Pruned = %v, want [%s]", report.Pruned, gone)
	}
	if _, ok := report.Files[path]; !ok || len(report.Files) != 1 {
		t.Errorf("Files = %v, want only %s", report.Files, path)
	}
	if report.Records != 1 {
		t.Errorf("Records = %d, want 1", report.Records)
	}
}

func TestLoad_RowDetailOnlyInDebugLog(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir,
		csvHeader,
		"2011-01-01,1,2,3,Spring,Clear,10,40,5",
		"2011-01-02,x,2,3,Spring,Clear,10,40,5",
	)
	logPath := filepath.Join(dir, "bikedash.log")
	t.Cleanup(func() { _ = logging.Init(false, "") })

	for _, debug := range []bool{false, true} {
		if err := logging.Init(debug, logPath); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, source.Options{}); err != nil {
			t.Fatalf("Load(debug=%v): %v", debug, err)
		}
		logging.Sync()
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "row excluded"); n != 1 {
		t.Errorf("row excluded logged %d times, want 1 (debug run only):\n%s", n, data)
	}
}
