package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultCandidates are the paths searched, relative to the working
// directory, when no data file is configured.
var DefaultCandidates = []string{
	filepath.Join("dashboard", "main_data.csv"),
	"main_data.csv",
	filepath.Join("data", "day.csv"),
	"day.csv",
}

// ErrNoDataFile is returned when no data file could be located.
var ErrNoDataFile = errors.New("no data file found")

// Discover resolves the data file to load.
//
// An explicit path may name a CSV file or a directory; a directory is
// searched for the default candidate names. An empty path searches the
// working directory.
func Discover(path string) (DiscoveredFile, error) {
	if path == "" {
		return firstCandidate(".")
	}

	info, err := os.Stat(path)
	if err != nil {
		return DiscoveredFile{}, fmt.Errorf("data file %s: %w", path, err)
	}
	if info.IsDir() {
		return firstCandidate(path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return DiscoveredFile{}, fmt.Errorf("data file %s: not a .csv file", path)
	}

	return describe(path, info), nil
}

// Stat refreshes mtime and size for a previously discovered file.
func Stat(path string) (DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DiscoveredFile{}, err
	}
	return describe(path, info), nil
}

func firstCandidate(dir string) (DiscoveredFile, error) {
	for _, rel := range DefaultCandidates {
		p := filepath.Join(dir, rel)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		return describe(p, info), nil
	}
	return DiscoveredFile{}, fmt.Errorf("%w in %s (tried %s)", ErrNoDataFile, dir, strings.Join(DefaultCandidates, ", "))
}

func describe(path string, info os.FileInfo) DiscoveredFile {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return DiscoveredFile{
		Path:      abs,
		MtimeNs:   info.ModTime().UnixNano(),
		SizeBytes: info.Size(),
	}
}
