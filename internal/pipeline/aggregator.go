// Package pipeline orchestrates record loading, caching, and aggregation.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/esaepulloh/bikedash/internal/model"
)

var (
	// ErrInvertedRange is matched by *RangeError.
	ErrInvertedRange = errors.New("start date is after end date")
	// ErrEmptyDataset is returned when a default range is requested for no records.
	ErrEmptyDataset = errors.New("dataset has no records")
)

// RangeError reports a date range whose start falls after its end.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range %s → %s: %v",
		e.Start.Format(model.DateLayout), e.End.Format(model.DateLayout), ErrInvertedRange)
}

func (e *RangeError) Unwrap() error { return ErrInvertedRange }

// NewRange builds a calendar-day range and rejects inverted pairs.
func NewRange(start, end time.Time) (model.DateRange, error) {
	rng := model.DateRange{Start: model.Day(start), End: model.Day(end)}
	if err := ValidateRange(rng); err != nil {
		return model.DateRange{}, err
	}
	return rng, nil
}

// ValidateRange returns a *RangeError when rng.Start is after rng.End.
func ValidateRange(rng model.DateRange) error {
	if rng.Start.After(rng.End) {
		return &RangeError{Start: rng.Start, End: rng.End}
	}
	return nil
}

// FullRange spans the earliest and latest record dates.
// Records need not be sorted.
func FullRange(records []model.Record) (model.DateRange, error) {
	if len(records) == 0 {
		return model.DateRange{}, ErrEmptyDataset
	}
	rng := model.DateRange{Start: records[0].Date, End: records[0].Date}
	for _, r := range records[1:] {
		if r.Date.Before(rng.Start) {
			rng.Start = r.Date
		}
		if r.Date.After(rng.End) {
			rng.End = r.Date
		}
	}
	return rng, nil
}

// ClampRange narrows rng to bounds. The result may be inverted when rng lies
// entirely outside bounds; callers validate it like any other range.
func ClampRange(rng, bounds model.DateRange) model.DateRange {
	if rng.Start.Before(bounds.Start) {
		rng.Start = bounds.Start
	}
	if rng.End.After(bounds.End) {
		rng.End = bounds.End
	}
	return rng
}

// PreviousRange returns the range of equal length immediately before rng.
func PreviousRange(rng model.DateRange) model.DateRange {
	days := rng.Days()
	return model.DateRange{
		Start: rng.Start.AddDate(0, 0, -days),
		End:   rng.Start.AddDate(0, 0, -1),
	}
}

// FilterByRange returns the records whose date falls within [start, end],
// both ends inclusive. The input is not modified.
func FilterByRange(records []model.Record, start, end time.Time) []model.Record {
	start, end = model.Day(start), model.Day(end)

	result := make([]model.Record, 0, len(records))
	for _, r := range records {
		day := model.Day(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// DailyTotals sums casual, registered and total rentals per calendar day,
// ordered by date ascending. Days between the first and last record with no
// rows are emitted with zero counts so charts show gaps.
func DailyTotals(records []model.Record) []model.DailyTotal {
	if len(records) == 0 {
		return []model.DailyTotal{}
	}

	dayMap := make(map[time.Time]*model.DailyTotal)
	for _, r := range records {
		day := model.Day(r.Date)
		dt, ok := dayMap[day]
		if !ok {
			dt = &model.DailyTotal{Date: day}
			dayMap[day] = dt
		}
		dt.Casual += r.Casual
		dt.Registered += r.Registered
		dt.Total += r.Count
	}

	rng, _ := FullRange(records)
	first, last := model.Day(rng.Start), model.Day(rng.End)
	days := make([]model.DailyTotal, 0, len(dayMap))
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if dt, ok := dayMap[day]; ok {
			days = append(days, *dt)
		} else {
			days = append(days, model.DailyTotal{Date: day})
		}
	}
	return days
}

// KeyFunc derives a group key from a record.
type KeyFunc func(model.Record) string

// ValueFunc derives the summed value from a record.
type ValueFunc func(model.Record) int64

// GroupSumSorted groups records by key, sums value within each group and
// orders groups by sum descending. Groups with equal sums keep the order in
// which their key was first seen. Empty input yields an empty slice.
func GroupSumSorted(records []model.Record, key KeyFunc, value ValueFunc) []model.GroupCount {
	index := make(map[string]int)
	groups := make([]model.GroupCount, 0)

	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, model.GroupCount{Key: k})
		}
		groups[i].Count += value(r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}

// Band labels.
const (
	TempCold   = "Cold"
	TempNormal = "Normal"
	TempHot    = "Hot"

	HumidityDry    = "Dry"
	HumidityNormal = "Normal"
	HumidityWet    = "Wet"

	WindLight    = "Light Winds"
	WindModerate = "Moderate Winds"
	WindStrong   = "Strong Winds"
)

// TempBand buckets a temperature: Cold at or below 10, Hot above 30.
func TempBand(v float64) string {
	switch {
	case v <= 10:
		return TempCold
	case v > 30:
		return TempHot
	default:
		return TempNormal
	}
}

// HumidityBand buckets humidity: Dry at or below 30, Wet above 71.
func HumidityBand(v float64) string {
	switch {
	case v <= 30:
		return HumidityDry
	case v > 71:
		return HumidityWet
	default:
		return HumidityNormal
	}
}

// WindBand buckets windspeed: Light at or below 12, Strong above 22.
func WindBand(v float64) string {
	switch {
	case v <= 12:
		return WindLight
	case v > 22:
		return WindStrong
	default:
		return WindModerate
	}
}

func countValue(r model.Record) int64 { return r.Count }

// BySeason sums rentals per season.
func BySeason(records []model.Record) []model.GroupCount {
	return GroupSumSorted(records, func(r model.Record) string { return r.Season }, countValue)
}

// ByWeather sums rentals per weather condition.
func ByWeather(records []model.Record) []model.GroupCount {
	return GroupSumSorted(records, func(r model.Record) string { return r.Weather }, countValue)
}

// ByTempBand sums rentals per temperature band.
func ByTempBand(records []model.Record) []model.GroupCount {
	return GroupSumSorted(records, func(r model.Record) string { return TempBand(r.Temp) }, countValue)
}

// ByHumidityBand sums rentals per humidity band.
func ByHumidityBand(records []model.Record) []model.GroupCount {
	return GroupSumSorted(records, func(r model.Record) string { return HumidityBand(r.Humidity) }, countValue)
}

// ByWindBand sums rentals per windspeed band.
func ByWindBand(records []model.Record) []model.GroupCount {
	return GroupSumSorted(records, func(r model.Record) string { return WindBand(r.Windspeed) }, countValue)
}

// Dimension names accepted by GroupBy.
const (
	DimSeason    = "season"
	DimWeather   = "weather"
	DimTemp      = "temp"
	DimHumidity  = "humidity"
	DimWindspeed = "windspeed"
)

// Dimensions lists the grouping dimensions in display order.
var Dimensions = []string{DimSeason, DimWeather, DimTemp, DimHumidity, DimWindspeed}

var dimensionAliases = map[string]string{
	"weathersit":  DimWeather,
	"temperature": DimTemp,
	"hum":         DimHumidity,
	"wind":        DimWindspeed,
}

// CanonicalDimension maps a dimension name or alias, in any case, to its
// entry in Dimensions. ok is false for unknown names.
func CanonicalDimension(name string) (dimension string, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, found := dimensionAliases[name]; found {
		return alias, true
	}
	for _, d := range Dimensions {
		if d == name {
			return d, true
		}
	}
	return "", false
}

// GroupBy dispatches to the named summary. ok is false for unknown names.
func GroupBy(records []model.Record, dimension string) (groups []model.GroupCount, ok bool) {
	dimension, ok = CanonicalDimension(dimension)
	if !ok {
		return nil, false
	}
	switch dimension {
	case DimSeason:
		return BySeason(records), true
	case DimWeather:
		return ByWeather(records), true
	case DimTemp:
		return ByTempBand(records), true
	case DimHumidity:
		return ByHumidityBand(records), true
	default:
		return ByWindBand(records), true
	}
}

// SumTotals computes headline metrics over records.
func SumTotals(records []model.Record) model.Totals {
	var t model.Totals
	days := make(map[time.Time]struct{})
	for _, r := range records {
		t.Orders += r.Count
		t.Casual += r.Casual
		t.Registered += r.Registered
		days[model.Day(r.Date)] = struct{}{}
	}
	t.Days = len(days)
	return t
}

// Summarize validates rng, filters records to it and computes every summary.
// It is the single entry point a UI calls when the selected range changes.
func Summarize(records []model.Record, rng model.DateRange) (model.Dashboard, error) {
	if err := ValidateRange(rng); err != nil {
		return model.Dashboard{}, err
	}

	view := FilterByRange(records, rng.Start, rng.End)
	daily := DailyTotals(view)

	return model.Dashboard{
		Range:       rng,
		Totals:      SumTotals(view),
		Daily:       daily,
		Season:      BySeason(view),
		Weather:     ByWeather(view),
		Temperature: ByTempBand(view),
		Humidity:    ByHumidityBand(view),
		Windspeed:   ByWindBand(view),
		Describe:    DescribeDaily(view, daily),
	}, nil
}
