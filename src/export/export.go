package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/models"
)

// -----------------------------------------------------------------------------
// Export builds disposable local artifacts from the current projection. They
// are plain documents for notebooks and reports, never synchronized state.
// -----------------------------------------------------------------------------

type ScenarioBlock struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Hypothesis string `json:"hypothesis,omitempty"`
}

type StateBlock struct {
	Step     int64            `json:"step"`
	Metrics  models.MMetrics  `json:"metrics"`
	Activity models.MActivity `json:"activity"`
}

type Document struct {
	ExportedAt string        `json:"exported_at"`
	Scenario   ScenarioBlock `json:"scenario"`
	State      StateBlock    `json:"state"`
}

// -----------------------------------------------------------------------------

// BuildDocument freezes one snapshot into an export document. Runs driven by
// raw parameters instead of a named scenario are labeled "custom", matching
// the run store.
func BuildDocument(scenario *models.MScenario, snap models.MSnapshot) Document {
	doc := Document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Scenario:   ScenarioBlock{ID: "custom"},
		State: StateBlock{
			Step:     snap.Step,
			Metrics:  snap.Metrics,
			Activity: snap.Activity,
		},
	}
	if scenario != nil {
		doc.Scenario = ScenarioBlock{
			ID:         scenario.ID,
			Name:       scenario.Name,
			Hypothesis: scenario.Hypothesis,
		}
	}
	return doc
}

// -----------------------------------------------------------------------------

func WriteJSON(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return helpers.NewStorageError("failed to encode export document", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return helpers.NewStorageError("failed to write "+path, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// csvHeader is the flattened field order. WriteCSV emits it plus exactly one
// data row.
var csvHeader = []string{
	"exported_at",
	"scenario_id",
	"scenario_name",
	"scenario_hypothesis",
	"step",
	"block_height",
	"hashrate",
	"difficulty",
	"mempool_size",
	"avg_fee",
	"blocks_mined",
	"transactions_processed",
	"bips_proposed",
}

func WriteCSV(path string, doc Document) error {
	file, err := os.Create(path)
	if err != nil {
		return helpers.NewStorageError("failed to create "+path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return helpers.NewStorageError("failed to write csv header", err)
	}

	row := []string{
		doc.ExportedAt,
		doc.Scenario.ID,
		doc.Scenario.Name,
		doc.Scenario.Hypothesis,
		strconv.FormatInt(doc.State.Step, 10),
		strconv.FormatInt(doc.State.Metrics.BlockHeight, 10),
		strconv.FormatFloat(doc.State.Metrics.Hashrate, 'f', -1, 64),
		strconv.FormatFloat(doc.State.Metrics.Difficulty, 'f', -1, 64),
		strconv.FormatInt(doc.State.Metrics.MempoolSize, 10),
		strconv.FormatFloat(doc.State.Metrics.AvgFee, 'f', -1, 64),
		strconv.FormatInt(doc.State.Activity.BlocksMined, 10),
		strconv.FormatInt(doc.State.Activity.TransactionsProcessed, 10),
		strconv.FormatInt(doc.State.Activity.BipsProposed, 10),
	}
	if err := writer.Write(row); err != nil {
		return helpers.NewStorageError("failed to write csv row", err)
	}

	writer.Flush()
	return writer.Error()
}
