package history

import (
	"testing"

	"bitcoin-abm/src/models"
)

func snapAt(step int64, mempool int64, fee float64) *models.MSnapshot {
	return &models.MSnapshot{
		Step: step,
		Metrics: models.MMetrics{
			Hashrate:    100,
			Difficulty:  1,
			MempoolSize: mempool,
			AvgFee:      fee,
		},
	}
}

// -----------------------------------------------------------------------------

func TestWindowEvictsPastCapacity(t *testing.T) {
	w := NewWindow(100)
	for i := int64(1); i <= 105; i++ {
		w.Observe(snapAt(i, i*10, 1))
	}

	if w.Size() != 100 {
		t.Fatalf("Expected 100 rows after 105 observations, got %d", w.Size())
	}

	steps := w.Steps()
	if steps[0] != 6 {
		t.Errorf("Expected oldest surviving step 6, got %d", steps[0])
	}
	if steps[len(steps)-1] != 105 {
		t.Errorf("Expected newest step 105, got %d", steps[len(steps)-1])
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] != steps[i-1]+1 {
			t.Fatalf("Window order broken at position %d: %d after %d", i, steps[i], steps[i-1])
		}
	}
}

// -----------------------------------------------------------------------------

func TestStepZeroClearsWindow(t *testing.T) {
	w := NewWindow(100)
	for i := int64(1); i <= 10; i++ {
		w.Observe(snapAt(i, 50, 1))
	}
	if w.Size() != 10 {
		t.Fatalf("Expected 10 rows, got %d", w.Size())
	}

	w.Observe(snapAt(0, 0, 1))
	if w.Size() != 0 {
		t.Errorf("Expected empty window after step-0 observation, got %d rows", w.Size())
	}
}

// -----------------------------------------------------------------------------

func TestSeriesAndTrend(t *testing.T) {
	w := NewWindow(100)
	w.Observe(snapAt(1, 100, 1))
	w.Observe(snapAt(2, 150, 1))
	w.Observe(snapAt(3, 200, 1))

	series := w.Series(models.MetricMempoolSize)
	if len(series) != 3 {
		t.Fatalf("Expected 3 values, got %d", len(series))
	}
	if series[0] != 100 || series[2] != 200 {
		t.Errorf("Expected series [100 150 200], got %v", series)
	}

	delta, pct, ok := w.Trend(models.MetricMempoolSize)
	if !ok {
		t.Fatal("Expected trend to be available")
	}
	if delta != 100 {
		t.Errorf("Expected delta 100, got %f", delta)
	}
	if pct != 1.0 {
		t.Errorf("Expected 100%% change, got %f", pct)
	}
}

// -----------------------------------------------------------------------------

func TestTrendUnavailableWhenTooShort(t *testing.T) {
	w := NewWindow(100)

	if _, _, ok := w.Trend(models.MetricAvgFee); ok {
		t.Error("Expected no trend on empty window")
	}

	w.Observe(snapAt(1, 10, 1))
	if _, _, ok := w.Trend(models.MetricAvgFee); ok {
		t.Error("Expected no trend on single-row window")
	}
}

// -----------------------------------------------------------------------------

func TestUnknownMetric(t *testing.T) {
	w := NewWindow(100)
	w.Observe(snapAt(1, 10, 1))
	w.Observe(snapAt(2, 20, 1))

	if got := w.Series("tps_9000"); len(got) != 0 {
		t.Errorf("Expected empty series for unknown metric, got %v", got)
	}
	if _, _, ok := w.Trend("tps_9000"); ok {
		t.Error("Expected no trend for unknown metric")
	}
}

// -----------------------------------------------------------------------------

func TestStatsOverWindow(t *testing.T) {
	w := NewWindow(100)
	w.Observe(snapAt(1, 0, 2))
	w.Observe(snapAt(2, 0, 4))
	w.Observe(snapAt(3, 0, 6))

	stats := w.Stats(models.MetricAvgFee)
	if stats.Min != 2 || stats.Max != 6 {
		t.Errorf("Expected min 2 max 6, got min %f max %f", stats.Min, stats.Max)
	}
	if stats.Mean != 4 {
		t.Errorf("Expected mean 4, got %f", stats.Mean)
	}
	if stats.Last != 6 {
		t.Errorf("Expected last 6, got %f", stats.Last)
	}
}
