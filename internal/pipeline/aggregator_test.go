package pipeline

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/esaepulloh/bikedash/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func exampleRecords() []model.Record {
	return []model.Record{
		{Date: day(2021, 1, 1), Count: 10, Casual: 3, Registered: 7, Temp: 5},
		{Date: day(2021, 1, 2), Count: 20, Casual: 5, Registered: 15, Temp: 35},
	}
}

// yearRecords builds one consistent record per day across a few weeks with
// varied categories and measures.
func yearRecords() []model.Record {
	seasons := []string{"Spring", "Summer", "Fall", "Winter"}
	weather := []string{"Clear", "Misty/Cloudy", "Light Snow/Rain"}
	var recs []model.Record
	for i := 0; i < 40; i++ {
		casual := int64(i*7%50 + 1)
		registered := int64(i*13%90 + 10)
		recs = append(recs, model.Record{
			Date:       day(2011, 3, 1).AddDate(0, 0, i),
			Casual:     casual,
			Registered: registered,
			Count:      casual + registered,
			Season:     seasons[i/10],
			Weather:    weather[i%3],
			Temp:       float64(i),
			Humidity:   float64(i * 2),
			Windspeed:  float64(i % 30),
		})
	}
	return recs
}

func TestDailyTotals_Example(t *testing.T) {
	got := DailyTotals(exampleRecords())
	want := []model.DailyTotal{
		{Date: day(2021, 1, 1), Casual: 3, Registered: 7, Total: 10},
		{Date: day(2021, 1, 2), Casual: 5, Registered: 15, Total: 20},
	}
	if len(got) != len(want) {
		t.Fatalf("DailyTotals = %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestByTempBand_Example(t *testing.T) {
	got := ByTempBand(exampleRecords())
	want := []model.GroupCount{{Key: TempHot, Count: 20}, {Key: TempCold, Count: 10}}
	if len(got) != len(want) {
		t.Fatalf("ByTempBand = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDailyTotals_SumsAndFillsGaps(t *testing.T) {
	recs := []model.Record{
		{Date: day(2021, 1, 4), Casual: 1, Registered: 1, Count: 2},
		{Date: day(2021, 1, 1), Casual: 2, Registered: 3, Count: 5},
		{Date: day(2021, 1, 1).Add(6 * time.Hour), Casual: 1, Registered: 0, Count: 1},
	}
	got := DailyTotals(recs)
	if len(got) != 4 {
		t.Fatalf("DailyTotals = %d rows, want 4", len(got))
	}
	if got[0].Total != 6 || got[0].Casual != 3 {
		t.Errorf("first day = %+v, want total 6 casual 3", got[0])
	}
	if got[1].Total != 0 || got[2].Total != 0 {
		t.Errorf("gap days = %d/%d, want 0/0", got[1].Total, got[2].Total)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Errorf("row %d date %v not after %v", i, got[i].Date, got[i-1].Date)
		}
	}
}

func TestFilterByRange(t *testing.T) {
	recs := yearRecords()
	start, end := day(2011, 3, 5), day(2011, 3, 14)

	got := FilterByRange(recs, start, end)
	if len(got) != 10 {
		t.Fatalf("FilterByRange = %d records, want 10 (inclusive)", len(got))
	}
	if !got[0].Date.Equal(start) || !got[len(got)-1].Date.Equal(end) {
		t.Errorf("bounds = %v..%v, want %v..%v", got[0].Date, got[len(got)-1].Date, start, end)
	}

	again := FilterByRange(got, start, end)
	if len(again) != len(got) {
		t.Fatalf("second filter = %d records, want %d", len(again), len(got))
	}
	for i := range got {
		if again[i] != got[i] {
			t.Errorf("record %d changed on second filter", i)
		}
	}

	if len(recs) != 40 {
		t.Errorf("input modified: %d records, want 40", len(recs))
	}
}

func TestFilterByRange_CountEqualsRiderSum(t *testing.T) {
	recs := yearRecords()
	ranges := [][2]time.Time{
		{day(2011, 3, 1), day(2011, 4, 9)},
		{day(2011, 3, 10), day(2011, 3, 10)},
		{day(2011, 3, 20), day(2011, 4, 1)},
	}
	for _, r := range ranges {
		var cnt, riders int64
		for _, rec := range FilterByRange(recs, r[0], r[1]) {
			cnt += rec.Count
			riders += rec.Casual + rec.Registered
		}
		if cnt != riders {
			t.Errorf("range %v: cnt = %d, casual+registered = %d", r, cnt, riders)
		}
	}
}

func TestGroupSumSorted_Descending(t *testing.T) {
	recs := yearRecords()
	for _, dim := range Dimensions {
		groups, ok := GroupBy(recs, dim)
		if !ok {
			t.Fatalf("GroupBy(%q) not ok", dim)
		}
		var total int64
		for i, g := range groups {
			total += g.Count
			if i > 0 && groups[i-1].Count < g.Count {
				t.Errorf("%s: %v before %v", dim, groups[i-1], g)
			}
		}
		if want := SumTotals(recs).Orders; total != want {
			t.Errorf("%s: group total = %d, want %d", dim, total, want)
		}
	}
}

func TestGroupSumSorted_TiesKeepFirstSeenOrder(t *testing.T) {
	recs := []model.Record{
		{Season: "Winter", Count: 5},
		{Season: "Summer", Count: 9},
		{Season: "Fall", Count: 5},
		{Season: "Spring", Count: 5},
	}
	got := BySeason(recs)
	want := []string{"Summer", "Winter", "Fall", "Spring"}
	for i, k := range want {
		if got[i].Key != k {
			t.Errorf("group %d = %q, want %q", i, got[i].Key, k)
		}
	}
}

func TestGroupSumSorted_Empty(t *testing.T) {
	for _, dim := range Dimensions {
		groups, _ := GroupBy(nil, dim)
		if groups == nil || len(groups) != 0 {
			t.Errorf("GroupBy(nil, %q) = %#v, want empty non-nil slice", dim, groups)
		}
	}
	if got := DailyTotals(nil); got == nil || len(got) != 0 {
		t.Errorf("DailyTotals(nil) = %#v, want empty slice", got)
	}
}

func TestGroupBy_UnknownDimension(t *testing.T) {
	if _, ok := GroupBy(yearRecords(), "hour"); ok {
		t.Error("GroupBy(hour) ok = true, want false")
	}
	if _, ok := GroupBy(yearRecords(), "weathersit"); !ok {
		t.Error("GroupBy(weathersit) ok = false, want alias accepted")
	}
}

func TestCanonicalDimension(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"season", DimSeason, true},
		{"Weather", DimWeather, true},
		{"weathersit", DimWeather, true},
		{"temperature", DimTemp, true},
		{"hum", DimHumidity, true},
		{"wind", DimWindspeed, true},
		{" WINDSPEED ", DimWindspeed, true},
		{"hour", "", false},
	}
	for _, tt := range tests {
		got, ok := CanonicalDimension(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CanonicalDimension(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	// Aliases group exactly like their canonical name.
	recs := yearRecords()
	byAlias, _ := GroupBy(recs, "wind")
	byName, _ := GroupBy(recs, DimWindspeed)
	if !reflect.DeepEqual(byAlias, byName) {
		t.Errorf("GroupBy(wind) = %v, want %v", byAlias, byName)
	}
}

func TestBands_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) string
		v    float64
		want string
	}{
		{"temp low edge", TempBand, 10, TempCold},
		{"temp just above low", TempBand, 10.01, TempNormal},
		{"temp high edge", TempBand, 30, TempNormal},
		{"temp just above high", TempBand, 30.01, TempHot},
		{"temp negative", TempBand, -4, TempCold},
		{"humidity low edge", HumidityBand, 30, HumidityDry},
		{"humidity mid", HumidityBand, 50, HumidityNormal},
		{"humidity high edge", HumidityBand, 71, HumidityNormal},
		{"humidity above high", HumidityBand, 71.5, HumidityWet},
		{"wind low edge", WindBand, 12, WindLight},
		{"wind mid", WindBand, 12.5, WindModerate},
		{"wind high edge", WindBand, 22, WindModerate},
		{"wind above high", WindBand, 22.1, WindStrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.v); got != tt.want {
				t.Errorf("band(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestBands_Partition(t *testing.T) {
	for v := -20.0; v <= 120; v += 0.25 {
		if TempBand(v) == "" || HumidityBand(v) == "" || WindBand(v) == "" {
			t.Fatalf("value %v fell outside every band", v)
		}
	}
}

func TestValidateRange(t *testing.T) {
	if err := ValidateRange(model.DateRange{Start: day(2021, 1, 1), End: day(2021, 1, 1)}); err != nil {
		t.Errorf("single-day range: %v", err)
	}

	_, err := NewRange(day(2021, 2, 1), day(2021, 1, 1))
	if !errors.Is(err, ErrInvertedRange) {
		t.Fatalf("err = %v, want ErrInvertedRange", err)
	}
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("err is %T, want *RangeError", err)
	}
	if !re.Start.Equal(day(2021, 2, 1)) {
		t.Errorf("Start = %v, want 2021-02-01", re.Start)
	}
}

func TestFullRange(t *testing.T) {
	recs := yearRecords()
	recs[0], recs[len(recs)-1] = recs[len(recs)-1], recs[0]

	rng, err := FullRange(recs)
	if err != nil {
		t.Fatal(err)
	}
	if !rng.Start.Equal(day(2011, 3, 1)) || !rng.End.Equal(day(2011, 4, 9)) {
		t.Errorf("FullRange = %s, want 2011-03-01 → 2011-04-09", rng)
	}
	if rng.Days() != 40 {
		t.Errorf("Days = %d, want 40", rng.Days())
	}

	if _, err := FullRange(nil); !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("FullRange(nil) err = %v, want ErrEmptyDataset", err)
	}
}

func TestPreviousAndClampRange(t *testing.T) {
	rng := model.DateRange{Start: day(2011, 3, 11), End: day(2011, 3, 20)}
	prev := PreviousRange(rng)
	if !prev.Start.Equal(day(2011, 3, 1)) || !prev.End.Equal(day(2011, 3, 10)) {
		t.Errorf("PreviousRange = %s, want 2011-03-01 → 2011-03-10", prev)
	}

	bounds := model.DateRange{Start: day(2011, 3, 5), End: day(2011, 3, 15)}
	clamped := ClampRange(rng, bounds)
	if !clamped.Start.Equal(day(2011, 3, 11)) || !clamped.End.Equal(day(2011, 3, 15)) {
		t.Errorf("ClampRange = %s, want 2011-03-11 → 2011-03-15", clamped)
	}
	if err := ValidateRange(ClampRange(prev, model.DateRange{Start: day(2011, 3, 15), End: day(2011, 3, 30)})); err == nil {
		t.Error("range outside bounds should clamp to an inverted range")
	}
}

func TestSummarize(t *testing.T) {
	recs := yearRecords()
	rng := model.DateRange{Start: day(2011, 3, 1), End: day(2011, 3, 10)}

	dash, err := Summarize(recs, rng)
	if err != nil {
		t.Fatal(err)
	}
	if dash.Totals.Days != 10 || len(dash.Daily) != 10 {
		t.Errorf("Days = %d, Daily = %d, want 10/10", dash.Totals.Days, len(dash.Daily))
	}
	if dash.Totals.Orders != dash.Totals.Casual+dash.Totals.Registered {
		t.Errorf("Orders = %d, want casual+registered = %d", dash.Totals.Orders, dash.Totals.Casual+dash.Totals.Registered)
	}
	if len(dash.Season) != 1 || dash.Season[0].Key != "Spring" {
		t.Errorf("Season = %v, want only Spring", dash.Season)
	}

	if _, err := Summarize(recs, model.DateRange{Start: rng.End, End: rng.Start}); !errors.Is(err, ErrInvertedRange) {
		t.Errorf("inverted range err = %v, want ErrInvertedRange", err)
	}
}

func BenchmarkSummarize(b *testing.B) {
	var recs []model.Record
	for i := 0; i < 25; i++ {
		recs = append(recs, yearRecords()...)
	}
	rng, _ := FullRange(recs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Summarize(recs, rng); err != nil {
			b.Fatal(err)
		}
	}
}
