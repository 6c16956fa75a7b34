package interfaces

import "bitcoin-abm/src/models"

// -----------------------------------------------------------------------------
// IRunStore defines the contract for run persistence.
// -----------------------------------------------------------------------------

type IRunStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// BeginRun records a new run started by a reset and returns its id.
	BeginRun(scenarioID string, params models.MParams) (string, error)

	// -----------------------------------------------------------------------------

	// AppendSnapshots inserts a batch of stepped snapshots for a run.
	AppendSnapshots(runID string, snaps []models.MSnapshot) error

	// -----------------------------------------------------------------------------

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]models.MRunRecord, error)

	// -----------------------------------------------------------------------------

	// PruneRuns removes the oldest runs beyond the retention count.
	PruneRuns(keep int) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
