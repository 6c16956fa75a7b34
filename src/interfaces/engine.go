package interfaces

import (
	"bitcoin-abm/src/models"
)

// IEngine is the stepping contract: one owned mutable state, mutated only by
// Reset and Step, read by CurrentState. Implementations must keep the last
// committed snapshot authoritative when a step fails.
type IEngine interface {
	// Reset reinitializes the state from a params bundle and returns the
	// resulting snapshot. Unknown keys are ignored, missing keys default.
	Reset(params models.MParams) models.MSnapshot

	// Step advances the state count ticks. count <= 0 is a no-op returning
	// the current snapshot unchanged.
	Step(count int) (models.MSnapshot, error)

	// CurrentState is a pure read.
	CurrentState() models.MSnapshot

	// History returns up to lastN recent snapshots, oldest first.
	History(lastN int) []models.MSnapshot

	// HistoryCount reports how many snapshots the backlog retains.
	HistoryCount() int
}
