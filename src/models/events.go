package models

// Websocket event names, both directions.
const (
	EventStep            = "step"
	EventReset           = "reset"
	EventStateUpdate     = "state_update"
	EventScenarioChanged = "scenario_changed"
	EventError           = "error"
)

// -----------------------------------------------------------------------------

// MIntentMessage is a client-to-server websocket message.
type MIntentMessage struct {
	Event    string  `json:"event"`
	Count    int     `json:"count,omitempty"`
	Scenario string  `json:"scenario,omitempty"`
	Params   MParams `json:"params,omitempty"`
}

// -----------------------------------------------------------------------------

// MServerEvent is a server-to-client websocket message.
type MServerEvent struct {
	Event    string     `json:"event"`
	State    *MSnapshot `json:"state,omitempty"`
	Scenario *MScenario `json:"scenario,omitempty"`
	Message  string     `json:"message,omitempty"`
}
