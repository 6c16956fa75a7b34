package models

// Metric names accepted by history projections and series derivation.
const (
	MetricBlockHeight  = "block_height"
	MetricHashrate     = "hashrate"
	MetricDifficulty   = "difficulty"
	MetricMempoolSize  = "mempool_size"
	MetricAvgFee       = "avg_fee"
	MetricBlocksMined  = "blocks_mined"
	MetricTxProcessed  = "transactions_processed"
	MetricBipsProposed = "bips_proposed"
)

// -----------------------------------------------------------------------------

// MMetrics is the fixed-shape metric record carried by every snapshot.
type MMetrics struct {
	BlockHeight int64   `json:"block_height"`
	Hashrate    float64 `json:"hashrate"`
	Difficulty  float64 `json:"difficulty"`
	MempoolSize int64   `json:"mempool_size"`
	AvgFee      float64 `json:"avg_fee"`
}

// -----------------------------------------------------------------------------

// MActivity holds the cumulative counters of the current run.
type MActivity struct {
	BlocksMined           int64 `json:"blocks_mined"`
	TransactionsProcessed int64 `json:"transactions_processed"`
	BipsProposed          int64 `json:"bips_proposed"`
}

// -----------------------------------------------------------------------------

// MSnapshot is the full simulation state at one step. The engine always emits
// it fully populated; partial snapshots exist only on the client merge path.
type MSnapshot struct {
	Step     int64     `json:"step"`
	Running  bool      `json:"running"`
	Metrics  MMetrics  `json:"metrics"`
	Activity MActivity `json:"activity"`
}

// -----------------------------------------------------------------------------

// MetricValue resolves a tracked metric by name.
func (s *MSnapshot) MetricValue(name string) (float64, bool) {
	switch name {
	case MetricBlockHeight:
		return float64(s.Metrics.BlockHeight), true
	case MetricHashrate:
		return s.Metrics.Hashrate, true
	case MetricDifficulty:
		return s.Metrics.Difficulty, true
	case MetricMempoolSize:
		return float64(s.Metrics.MempoolSize), true
	case MetricAvgFee:
		return s.Metrics.AvgFee, true
	case MetricBlocksMined:
		return float64(s.Activity.BlocksMined), true
	case MetricTxProcessed:
		return float64(s.Activity.TransactionsProcessed), true
	case MetricBipsProposed:
		return float64(s.Activity.BipsProposed), true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// MSnapshotPatch is a possibly-partial snapshot as read off the wire. Nil
// fields mean "not carried"; the session merges present fields onto its
// projection. Running is deliberately absent: the run flag is owned by the
// driver, never adopted from the wire.
type MSnapshotPatch struct {
	Step     *int64             `json:"step"`
	Metrics  map[string]float64 `json:"metrics"`
	Activity map[string]float64 `json:"activity"`
}

// -----------------------------------------------------------------------------

// Merge applies a wire patch onto the snapshot. Step replaces
// unconditionally when present, except that a nonzero step lower than the
// current one marks the whole patch stale: nothing is applied and Merge
// returns false. Step 0 is always accepted (reset semantics). Metric and
// activity fields merge key-by-key; unknown keys are ignored.
func (s *MSnapshot) Merge(patch *MSnapshotPatch) bool {
	if patch == nil {
		return false
	}

	if patch.Step != nil {
		incoming := *patch.Step
		if incoming != 0 && incoming < s.Step {
			return false
		}
		s.Step = incoming
	}

	for name, value := range patch.Metrics {
		switch name {
		case MetricBlockHeight:
			s.Metrics.BlockHeight = int64(value)
		case MetricHashrate:
			s.Metrics.Hashrate = value
		case MetricDifficulty:
			s.Metrics.Difficulty = value
		case MetricMempoolSize:
			s.Metrics.MempoolSize = int64(value)
		case MetricAvgFee:
			s.Metrics.AvgFee = value
		}
	}

	for name, value := range patch.Activity {
		switch name {
		case MetricBlocksMined:
			s.Activity.BlocksMined = int64(value)
		case MetricTxProcessed:
			s.Activity.TransactionsProcessed = int64(value)
		case MetricBipsProposed:
			s.Activity.BipsProposed = int64(value)
		}
	}

	return true
}

// -----------------------------------------------------------------------------

// MParams is the opaque parameter bundle consumed by reset. Unknown keys are
// ignored by the engine; missing keys fall back to defaults.
type MParams map[string]float64

// Clone returns an independent copy so registered bundles stay immutable.
func (p MParams) Clone() MParams {
	if p == nil {
		return nil
	}
	out := make(MParams, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
