package models

import "time"

// MRunRecord describes one persisted simulation run. A run begins on every
// reset and accumulates the snapshots stepped under it.
type MRunRecord struct {
	ID         string    `json:"id"`
	ScenarioID string    `json:"scenario_id"`
	Params     MParams   `json:"params"`
	StartedAt  time.Time `json:"started_at"`
	Snapshots  int64     `json:"snapshots"`
}
