// Package model defines domain types for bike-sharing records and summaries.
package model

import "time"

// DateLayout is the calendar-day format used for dates on the wire and in flags.
const DateLayout = "2006-01-02"

// Record is one pre-aggregated day of rentals.
type Record struct {
	Date       time.Time
	Casual     int64
	Registered int64
	Count      int64 // total rentals, expected to equal Casual + Registered

	Season  string
	Weather string

	Temp      float64
	Humidity  float64
	Windspeed float64
}

// Consistent reports whether Count == Casual + Registered.
func (r Record) Consistent() bool {
	return r.Count == r.Casual+r.Registered
}

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on a day within the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the number of calendar days covered, counting both ends.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// String formats the range as "2011-01-01 → 2012-12-31".
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + " → " + r.End.Format(DateLayout)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
