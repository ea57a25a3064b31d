// Package source discovers and parses daily bike-sharing CSV files.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/esaepulloh/bikedash/internal/model"
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// Numeric category codes as published with the UCI bike-sharing dataset.
var (
	seasonCodes = map[int64]string{
		1: "Spring",
		2: "Summer",
		3: "Fall",
		4: "Winter",
	}
	weatherCodes = map[int64]string{
		1: "Clear",
		2: "Misty/Cloudy",
		3: "Light Snow/Rain",
		4: "Severe Weather",
	}
)

// ParseResult holds the output of parsing a single data file.
type ParseResult struct {
	Records   []model.Record
	RowErrors []*RowError

	// Inconsistent counts rows where cnt != casual + registered.
	// Those rows are kept; the invariant is assumed, not enforced.
	Inconsistent int

	// IgnoredColumns lists header columns skipped under AllowExtraColumns.
	IgnoredColumns []string

	Err error
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, opts Options) ParseResult {
	f, err := os.Open(path) //nolint:gosec // path is user-selected data file
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	return Parse(f, opts)
}

// Parse reads a CSV stream with a header row into records.
//
// Header problems are reported once as a *SchemaError. A row with a value
// that cannot be parsed is excluded and recorded as a *RowError; with
// opts.Strict the first such row aborts the parse instead.
func Parse(r io.Reader, opts Options) ParseResult {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ParseResult{Err: &SchemaError{Missing: append([]string(nil), RequiredColumns...)}}
		}
		return ParseResult{Err: fmt.Errorf("reading header: %w", err)}
	}

	idx, ignored, err := mapHeader(header, opts.AllowExtraColumns)
	if err != nil {
		return ParseResult{Err: err}
	}

	result := ParseResult{IgnoredColumns: ignored}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return ParseResult{Err: fmt.Errorf("reading rows: %w", err)}
			}
			re := &RowError{Line: pe.StartLine, Err: pe.Err}
			if opts.Strict {
				return ParseResult{Err: re}
			}
			result.RowErrors = append(result.RowErrors, re)
			continue
		}

		line, _ := reader.FieldPos(0)
		rec, re := parseRow(row, idx, line)
		if re != nil {
			if opts.Strict {
				return ParseResult{Err: re}
			}
			result.RowErrors = append(result.RowErrors, re)
			continue
		}
		if !rec.Consistent() {
			result.Inconsistent++
		}
		result.Records = append(result.Records, rec)
	}

	return result
}

// mapHeader resolves each required column to its index in the header and
// returns the extra columns it ignored when allowExtra is set.
func mapHeader(header []string, allowExtra bool) (map[string]int, []string, error) {
	required := make(map[string]bool, len(RequiredColumns))
	for _, c := range RequiredColumns {
		required[c] = true
	}

	idx := make(map[string]int, len(RequiredColumns))
	var extra []string
	for i, h := range header {
		name := normalizeColumn(h, i == 0)
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := idx[name]; required[name] && !dup {
			idx[name] = i
			continue
		}
		label := strings.TrimSpace(h)
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		extra = append(extra, label)
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 || (len(extra) > 0 && !allowExtra) {
		se := &SchemaError{Missing: missing}
		if !allowExtra {
			se.Extra = extra
		}
		return nil, nil, se
	}
	return idx, extra, nil
}

func normalizeColumn(h string, first bool) string {
	if first {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	return strings.ToLower(strings.TrimSpace(h))
}

func parseRow(row []string, idx map[string]int, line int) (model.Record, *RowError) {
	var rec model.Record

	field := func(col string) string {
		return strings.TrimSpace(row[idx[col]])
	}
	fail := func(col string, err error) *RowError {
		return &RowError{Line: line, Column: col, Value: field(col), Err: err}
	}

	var err error
	if rec.Date, err = ParseDate(field(ColDate)); err != nil {
		return rec, fail(ColDate, err)
	}
	if rec.Casual, err = parseCount(field(ColCasual)); err != nil {
		return rec, fail(ColCasual, err)
	}
	if rec.Registered, err = parseCount(field(ColRegistered)); err != nil {
		return rec, fail(ColRegistered, err)
	}
	if rec.Count, err = parseCount(field(ColCount)); err != nil {
		return rec, fail(ColCount, err)
	}
	if rec.Season, err = parseCategory(field(ColSeason), seasonCodes); err != nil {
		return rec, fail(ColSeason, err)
	}
	if rec.Weather, err = parseCategory(field(ColWeather), weatherCodes); err != nil {
		return rec, fail(ColWeather, err)
	}
	if rec.Temp, err = parseMeasure(field(ColTemp)); err != nil {
		return rec, fail(ColTemp, err)
	}
	if rec.Humidity, err = parseMeasure(field(ColHumidity)); err != nil {
		return rec, fail(ColHumidity, err)
	}
	if rec.Windspeed, err = parseMeasure(field(ColWindspeed)); err != nil {
		return rec, fail(ColWindspeed, err)
	}

	return rec, nil
}

// ParseDate parses a calendar date in any accepted layout and truncates it
// to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Files written by dataframe tools sometimes carry "985.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, errors.New("not an integer count")
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, errors.New("negative count")
	}
	return n, nil
}

func parseMeasure(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

// parseCategory keeps text labels as-is and decodes numeric codes.
func parseCategory(s string, codes map[int64]string) (string, error) {
	if s == "" {
		return "", errors.New("empty category")
	}
	code, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return s, nil
	}
	label, ok := codes[code]
	if !ok {
		return "", fmt.Errorf("unknown category code %d", code)
	}
	return label, nil
}
