package analysis

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates fractional change from previous to current.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous
}

// -----------------------------------------------------------------------------

// SeriesStats summarizes one metric series for analysis views.
type SeriesStats struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	Last float64
}

// ComputeSeriesStats derives summary statistics over a series, oldest first.
// An empty series yields the zero value.
func ComputeSeriesStats(data []float64) SeriesStats {
	if len(data) == 0 {
		return SeriesStats{}
	}

	stats := SeriesStats{Min: data[0], Max: data[0], Last: data[len(data)-1]}
	for _, v := range data {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Mean, stats.Std = CalculateMeanStd(data)
	return stats
}
