package pipeline

import (
	"math"

	"github.com/esaepulloh/bikedash/internal/model"

	"gonum.org/v1/gonum/stat"
)

// DescribeDaily computes descriptive statistics over daily totals and the
// correlation between temperature and rentals across records.
// Undefined statistics (fewer than two samples, zero variance) are reported as 0.
func DescribeDaily(records []model.Record, daily []model.DailyTotal) model.DailyDescription {
	var d model.DailyDescription
	if len(daily) == 0 {
		return d
	}

	totals := make([]float64, len(daily))
	d.Peak, d.Low = daily[0], daily[0]
	for i, dt := range daily {
		totals[i] = float64(dt.Total)
		if dt.Total > d.Peak.Total {
			d.Peak = dt
		}
		if dt.Total < d.Low.Total {
			d.Low = dt
		}
	}
	d.Mean, d.StdDev = stat.MeanStdDev(totals, nil)
	d.StdDev = finite(d.StdDev)

	if len(records) >= 2 {
		temps := make([]float64, len(records))
		counts := make([]float64, len(records))
		for i, r := range records {
			temps[i] = r.Temp
			counts[i] = float64(r.Count)
		}
		d.TempCorrelation = finite(stat.Correlation(temps, counts, nil))
	}

	return d
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
