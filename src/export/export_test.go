package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bitcoin-abm/src/models"
)

func sampleSnapshot() models.MSnapshot {
	return models.MSnapshot{
		Step: 42,
		Metrics: models.MMetrics{
			BlockHeight: 4,
			Hashrate:    151.5,
			Difficulty:  1.25,
			MempoolSize: 310,
			AvgFee:      2.2,
		},
		Activity: models.MActivity{
			BlocksMined:           4,
			TransactionsProcessed: 620,
			BipsProposed:          1,
		},
	}
}

func TestBuildDocument(t *testing.T) {
	scn := &models.MScenario{ID: "fee_spike", Name: "Fee Market Spike", Hypothesis: "Congestion raises fees"}
	doc := BuildDocument(scn, sampleSnapshot())

	if doc.ExportedAt == "" {
		t.Error("Expected exported_at to be stamped")
	}
	if doc.Scenario.ID != "fee_spike" || doc.Scenario.Name != "Fee Market Spike" {
		t.Errorf("Expected scenario block carried over, got %+v", doc.Scenario)
	}
	if doc.State.Step != 42 || doc.State.Metrics.MempoolSize != 310 {
		t.Errorf("Expected state block frozen from the snapshot, got %+v", doc.State)
	}
}

func TestBuildDocumentWithoutScenario(t *testing.T) {
	doc := BuildDocument(nil, sampleSnapshot())
	if doc.Scenario.ID != "custom" {
		t.Errorf("Expected parameter-driven runs labeled custom, got %q", doc.Scenario.ID)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	doc := BuildDocument(&models.MScenario{ID: "baseline", Name: "Baseline Network"}, sampleSnapshot())

	if err := WriteJSON(path, doc); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}

	var got Document
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if got.State.Step != 42 || got.Scenario.ID != "baseline" {
		t.Errorf("Expected round-tripped document, got %+v", got)
	}
	if got.State.Activity.TransactionsProcessed != 620 {
		t.Errorf("Expected activity counters preserved, got %+v", got.State.Activity)
	}
}

func TestWriteCSVShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	doc := BuildDocument(&models.MScenario{ID: "halving", Name: "Block Reward Halving"}, sampleSnapshot())

	if err := WriteCSV(path, doc); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Export is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected one header and one data row, got %d rows", len(records))
	}
	if len(records[0]) != len(records[1]) {
		t.Fatalf("Expected header and row of equal width, got %d and %d", len(records[0]), len(records[1]))
	}
	if records[0][0] != "exported_at" || records[0][4] != "step" {
		t.Errorf("Unexpected header layout: %v", records[0])
	}
	if records[1][1] != "halving" {
		t.Errorf("Expected scenario id in the data row, got %q", records[1][1])
	}
	if records[1][4] != "42" {
		t.Errorf("Expected step 42 in the data row, got %q", records[1][4])
	}
	if records[1][6] != "151.5" {
		t.Errorf("Expected hashrate 151.5 in the data row, got %q", records[1][6])
	}
}
