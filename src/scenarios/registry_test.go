package scenarios

import (
	"testing"

	"bitcoin-abm/src/engine"
	"bitcoin-abm/src/models"
)

func TestCatalogOrderBaselineFirst(t *testing.T) {
	r := NewRegistry()
	list := r.List()

	if len(list) != 6 {
		t.Fatalf("Expected 6 built-in scenarios, got %d", len(list))
	}

	expected := []string{"baseline", "fee_spike", "halving", "hash_war", "contentious_fork", "attack_51"}
	for i, id := range expected {
		if list[i].ID != id {
			t.Errorf("Expected %q at position %d, got %q", id, i, list[i].ID)
		}
	}
}

// -----------------------------------------------------------------------------

func TestHypothesisPolicy(t *testing.T) {
	r := NewRegistry()

	baseline, ok := r.Get("baseline")
	if !ok {
		t.Fatal("baseline scenario missing")
	}
	if baseline.Hypothesis != "" {
		t.Errorf("Expected no hypothesis on baseline, got %q", baseline.Hypothesis)
	}

	for _, s := range r.List() {
		if s.ID == "baseline" {
			continue
		}
		if s.Hypothesis == "" {
			t.Errorf("Scenario %q has no hypothesis", s.ID)
		}
	}
}

// -----------------------------------------------------------------------------

func TestGetUnknownScenario(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("does_not_exist"); ok {
		t.Error("Expected lookup miss for unknown scenario")
	}
	if r.Exists("does_not_exist") {
		t.Error("Expected Exists to be false for unknown scenario")
	}
}

// -----------------------------------------------------------------------------

func TestGetReturnsIsolatedCopy(t *testing.T) {
	r := NewRegistry()

	first, _ := r.Get("fee_spike")
	first.Params[engine.ParamTxRate] = 9999

	second, _ := r.Get("fee_spike")
	if second.Params[engine.ParamTxRate] != 15 {
		t.Errorf("Registry preset was mutated through a lookup copy: got tx_rate %v", second.Params[engine.ParamTxRate])
	}
}

// -----------------------------------------------------------------------------

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(models.MScenario{ID: "baseline", Name: "Shadow"}); err == nil {
		t.Error("Expected error when re-registering an existing ID")
	}
	if err := r.Register(models.MScenario{Name: "Anonymous"}); err == nil {
		t.Error("Expected error when registering without an ID")
	}
}

// -----------------------------------------------------------------------------

// Parameter-wiring regression guard: if scenario params stopped reaching
// the engine, both runs would collapse onto the same trajectory.
func TestFeeSpikeOutgrowsBaselineMempool(t *testing.T) {
	r := NewRegistry()
	cfg := models.MEngineConfig{DefaultSeed: 1337, BacklogCapacity: 1000, MaxStepsPerCall: 100}

	run := func(id string) models.MSnapshot {
		s, ok := r.Get(id)
		if !ok {
			t.Fatalf("Scenario %q missing", id)
		}
		params := s.Params.Clone()
		params[engine.ParamSeed] = 7

		e := engine.NewEngine(cfg)
		e.Reset(params)
		snap, err := e.Step(50)
		if err != nil {
			t.Fatalf("Step failed for %q: %v", id, err)
		}
		return snap
	}

	spike := run("fee_spike")
	base := run("baseline")

	if spike.Metrics.MempoolSize <= base.Metrics.MempoolSize {
		t.Errorf("Expected fee_spike mempool above baseline, got %d <= %d",
			spike.Metrics.MempoolSize, base.Metrics.MempoolSize)
	}
	if spike.Activity.TransactionsProcessed <= base.Activity.TransactionsProcessed {
		t.Errorf("Expected fee_spike arrivals above baseline, got %d <= %d",
			spike.Activity.TransactionsProcessed, base.Activity.TransactionsProcessed)
	}
}
