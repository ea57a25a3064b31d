package source

import (
	"errors"
	"fmt"
	"strings"
)

// Column names expected in the CSV header.
const (
	ColDate       = "date"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColCount      = "cnt"
	ColSeason     = "season"
	ColWeather    = "weathersit"
	ColTemp       = "temp"
	ColHumidity   = "humidity"
	ColWindspeed  = "windspeed"
)

// RequiredColumns lists every column a data file must carry, in canonical order.
var RequiredColumns = []string{
	ColDate, ColCasual, ColRegistered, ColCount,
	ColSeason, ColWeather, ColTemp, ColHumidity, ColWindspeed,
}

// columnAliases maps header names from the raw UCI day.csv onto canonical names.
var columnAliases = map[string]string{
	"dteday": ColDate,
	"hum":    ColHumidity,
}

var (
	// ErrSchemaMismatch is matched by *SchemaError.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrMalformedRow is matched by *RowError.
	ErrMalformedRow = errors.New("malformed row")
)

// SchemaError reports header columns that are missing or not expected.
// It is returned once per file, never per row.
type SchemaError struct {
	Missing []string
	Extra   []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected columns: "+strings.Join(e.Extra, ", "))
	}
	return "schema mismatch: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrSchemaMismatch) match.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// RowError reports a value that could not be parsed.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedRow) match.
func (e *RowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// Options controls how strictly a data file is read.
type Options struct {
	// Strict fails the whole parse on the first malformed row
	// instead of excluding the row.
	Strict bool
	// AllowExtraColumns ignores header columns outside RequiredColumns.
	AllowExtraColumns bool
}

// DiscoveredFile is a candidate data file found by Discover.
type DiscoveredFile struct {
	Path      string
	MtimeNs   int64
	SizeBytes int64
}
