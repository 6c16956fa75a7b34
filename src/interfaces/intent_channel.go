package interfaces

import (
	"bitcoin-abm/src/models"
)

// IIntentChannel delivers client intents to the engine over one transport.
// Resulting snapshots are never returned here: every implementation feeds
// them into the session's snapshot sink, so the websocket and request/response
// backends expose identical observable behavior.
type IIntentChannel interface {
	SendStep(count int) error
	SendReset(params models.MParams) error
	SendScenario(id string) error
	Close() error
}

// -----------------------------------------------------------------------------

// IStepper is the minimal stepping surface the continuous run driver needs.
type IStepper interface {
	Step(count int) error
}
