package models

// History row indices and constants
const (
	HIST_IDX_STEP         = 0
	HIST_IDX_BLOCK_HEIGHT = 1
	HIST_IDX_HASHRATE     = 2
	HIST_IDX_DIFFICULTY   = 3
	HIST_IDX_MEMPOOL      = 4
	HIST_IDX_AVG_FEE      = 5
	HIST_IDX_BLOCKS_MINED = 6
	HIST_IDX_TX_PROCESSED = 7
	HIST_IDX_BIPS         = 8
	HIST_NUM_FIELDS       = 9
)

// -----------------------------------------------------------------------------

// MHistoryEntry is one tracked-metric row derived from a snapshot, stored as
// a fixed float array addressed by the HIST_IDX constants.
type MHistoryEntry [HIST_NUM_FIELDS]float64

// -----------------------------------------------------------------------------

// NewHistoryEntry projects a snapshot onto a history row.
func NewHistoryEntry(snap *MSnapshot) MHistoryEntry {
	return MHistoryEntry{
		float64(snap.Step),
		float64(snap.Metrics.BlockHeight),
		snap.Metrics.Hashrate,
		snap.Metrics.Difficulty,
		float64(snap.Metrics.MempoolSize),
		snap.Metrics.AvgFee,
		float64(snap.Activity.BlocksMined),
		float64(snap.Activity.TransactionsProcessed),
		float64(snap.Activity.BipsProposed),
	}
}

// -----------------------------------------------------------------------------

// Step returns the row's step counter.
func (e MHistoryEntry) Step() int64 {
	return int64(e[HIST_IDX_STEP])
}

// -----------------------------------------------------------------------------

// HistoryFieldIndex maps a metric name to its row index.
func HistoryFieldIndex(name string) (int, bool) {
	switch name {
	case MetricBlockHeight:
		return HIST_IDX_BLOCK_HEIGHT, true
	case MetricHashrate:
		return HIST_IDX_HASHRATE, true
	case MetricDifficulty:
		return HIST_IDX_DIFFICULTY, true
	case MetricMempoolSize:
		return HIST_IDX_MEMPOOL, true
	case MetricAvgFee:
		return HIST_IDX_AVG_FEE, true
	case MetricBlocksMined:
		return HIST_IDX_BLOCKS_MINED, true
	case MetricTxProcessed:
		return HIST_IDX_TX_PROCESSED, true
	case MetricBipsProposed:
		return HIST_IDX_BIPS, true
	}
	return 0, false
}
