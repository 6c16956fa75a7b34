package models

// MScenario is a named immutable parameter bundle used to reinitialize the
// simulation. Hypothesis is empty for the baseline scenario and surfaced to
// the user for every other scenario.
type MScenario struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Hypothesis string  `json:"hypothesis,omitempty"`
	Params     MParams `json:"params"`
}
