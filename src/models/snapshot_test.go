package models

import "testing"

func fullSnapshot() MSnapshot {
	return MSnapshot{
		Step: 12,
		Metrics: MMetrics{
			BlockHeight: 2,
			Hashrate:    120.5,
			Difficulty:  1.1,
			MempoolSize: 300,
			AvgFee:      1.4,
		},
		Activity: MActivity{
			BlocksMined:           2,
			TransactionsProcessed: 180,
			BipsProposed:          1,
		},
	}
}

func TestMetricValueCoversAllTrackedMetrics(t *testing.T) {
	snap := fullSnapshot()

	expected := map[string]float64{
		MetricBlockHeight:  2,
		MetricHashrate:     120.5,
		MetricDifficulty:   1.1,
		MetricMempoolSize:  300,
		MetricAvgFee:       1.4,
		MetricBlocksMined:  2,
		MetricTxProcessed:  180,
		MetricBipsProposed: 1,
	}
	for name, want := range expected {
		got, ok := snap.MetricValue(name)
		if !ok {
			t.Errorf("Expected %s to be tracked", name)
			continue
		}
		if got != want {
			t.Errorf("Expected %s == %v, got %v", name, want, got)
		}
	}

	if _, ok := snap.MetricValue("no_such_metric"); ok {
		t.Error("Expected unknown metric to report ok=false")
	}
}

func TestMergeNilAndUnknownKeys(t *testing.T) {
	snap := fullSnapshot()

	if snap.Merge(nil) {
		t.Error("Expected nil patch rejected")
	}

	thirteen := int64(13)
	ok := snap.Merge(&MSnapshotPatch{
		Step:     &thirteen,
		Metrics:  map[string]float64{"made_up_metric": 99, MetricAvgFee: 2.0},
		Activity: map[string]float64{"made_up_counter": 99},
	})
	if !ok {
		t.Fatal("Expected forward patch accepted")
	}
	if snap.Step != 13 || snap.Metrics.AvgFee != 2.0 {
		t.Errorf("Expected known fields applied, got step %d fee %v", snap.Step, snap.Metrics.AvgFee)
	}
	if snap.Metrics.MempoolSize != 300 {
		t.Errorf("Expected untouched fields preserved, got %d", snap.Metrics.MempoolSize)
	}
}

func TestMergeNeverAdoptsRunningFromWire(t *testing.T) {
	snap := fullSnapshot()
	snap.Running = true

	fourteen := int64(14)
	snap.Merge(&MSnapshotPatch{Step: &fourteen})

	if !snap.Running {
		t.Error("Expected the run flag untouched by wire patches")
	}
}

func TestParamsClone(t *testing.T) {
	original := MParams{"tx_rate": 10, "seed": 7}
	clone := original.Clone()

	clone["tx_rate"] = 99
	if original["tx_rate"] != 10 {
		t.Errorf("Expected clone isolation, original mutated to %v", original["tx_rate"])
	}

	if MParams(nil).Clone() != nil {
		t.Error("Expected nil params to clone as nil")
	}
}

func TestNewHistoryEntryProjection(t *testing.T) {
	snap := fullSnapshot()
	entry := NewHistoryEntry(&snap)

	if entry.Step() != 12 {
		t.Errorf("Expected step 12, got %d", entry.Step())
	}
	if entry[HIST_IDX_MEMPOOL] != 300 {
		t.Errorf("Expected mempool 300, got %v", entry[HIST_IDX_MEMPOOL])
	}
	if entry[HIST_IDX_TX_PROCESSED] != 180 {
		t.Errorf("Expected txs 180, got %v", entry[HIST_IDX_TX_PROCESSED])
	}

	if idx, ok := HistoryFieldIndex(MetricAvgFee); !ok || entry[idx] != 1.4 {
		t.Errorf("Expected avg_fee index to resolve to 1.4")
	}
	if _, ok := HistoryFieldIndex("bogus"); ok {
		t.Error("Expected unknown metric name to report ok=false")
	}
}
