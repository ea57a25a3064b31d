package model

import "time"

// DailyTotal holds rentals for a single calendar day.
type DailyTotal struct {
	Date       time.Time `json:"date"`
	Casual     int64     `json:"casual_count"`
	Registered int64     `json:"registered_count"`
	Total      int64     `json:"total_orders"`
}

// GroupCount is one row of a summary table: a group key and its summed count.
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"customer_count"`
}

// Totals holds the headline metrics for a range.
type Totals struct {
	Orders     int64 `json:"total_orders"`
	Casual     int64 `json:"casual_orders"`
	Registered int64 `json:"registered_orders"`
	Days       int   `json:"days"`
}

// DailyDescription holds descriptive statistics over daily totals.
type DailyDescription struct {
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"std_dev"`
	Peak   DailyTotal `json:"peak"`
	Low    DailyTotal `json:"low"`

	// TempCorrelation is Pearson's r between temp and cnt, 0 when undefined.
	TempCorrelation float64 `json:"temp_correlation"`
}

// Dashboard is the full set of summaries for one selected range.
type Dashboard struct {
	Range DateRange `json:"-"`

	Totals      Totals           `json:"totals"`
	Daily       []DailyTotal     `json:"daily"`
	Season      []GroupCount     `json:"season"`
	Weather     []GroupCount     `json:"weather"`
	Temperature []GroupCount     `json:"temperature"`
	Humidity    []GroupCount     `json:"humidity"`
	Windspeed   []GroupCount     `json:"windspeed"`
	Describe    DailyDescription `json:"describe"`
}
