package history

import (
	"sync"

	"bitcoin-abm/src/analysis"
	"bitcoin-abm/src/models"
	"bitcoin-abm/src/utils"
)

// DefaultWindowSize bounds the sliding window when config gives none.
const DefaultWindowSize = 100

// -----------------------------------------------------------------------------
// Window is the client-side sliding window over observed snapshots. It keeps
// the latest N metric rows and derives plottable series and trends from them.
// A snapshot at step 0 marks a reset and empties the window.
// -----------------------------------------------------------------------------

type Window struct {
	mu   sync.RWMutex
	ring *utils.RingBuffer[models.MHistoryEntry]
}

// -----------------------------------------------------------------------------

// NewWindow creates a window holding at most capacity rows.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Window{
		ring: utils.NewRingBuffer[models.MHistoryEntry](capacity),
	}
}

// -----------------------------------------------------------------------------

// Observe records one snapshot. Step 0 clears the window instead of
// appending: a fresh run starts with an empty chart.
func (w *Window) Observe(snap *models.MSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if snap.Step == 0 {
		w.ring.Clear()
		return
	}
	w.ring.Append(models.NewHistoryEntry(snap))
}

// -----------------------------------------------------------------------------

// Series returns the windowed values of one metric, oldest first.
// Unknown metric names yield an empty series.
func (w *Window) Series(metric string) []float64 {
	idx, ok := models.HistoryFieldIndex(metric)
	if !ok {
		return nil
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	rows := w.ring.GetAll()
	series := make([]float64, 0, len(rows))
	for _, row := range rows {
		series = append(series, row[idx])
	}
	return series
}

// -----------------------------------------------------------------------------

// Trend reports the windowed movement of one metric: absolute delta and
// fractional change between the oldest and newest rows. ok is false when
// the window holds fewer than two rows or the metric is unknown.
func (w *Window) Trend(metric string) (delta float64, pct float64, ok bool) {
	idx, found := models.HistoryFieldIndex(metric)
	if !found {
		return 0, 0, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	rows := w.ring.GetAll()
	if len(rows) < 2 {
		return 0, 0, false
	}

	first := rows[0][idx]
	last := rows[len(rows)-1][idx]
	return last - first, analysis.CalculateChangePercent(last, first), true
}

// -----------------------------------------------------------------------------

// Stats summarizes one metric over the window.
func (w *Window) Stats(metric string) analysis.SeriesStats {
	return analysis.ComputeSeriesStats(w.Series(metric))
}

// -----------------------------------------------------------------------------

// Size returns the number of rows currently held.
func (w *Window) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ring.Size()
}

// -----------------------------------------------------------------------------

// Steps returns the step counters of the windowed rows, oldest first.
func (w *Window) Steps() []int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rows := w.ring.GetAll()
	steps := make([]int64, 0, len(rows))
	for _, row := range rows {
		steps = append(steps, row.Step())
	}
	return steps
}
