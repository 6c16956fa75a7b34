package models

// Complexity level names assigned by the structure loader.
const (
	ComplexitySimple     = "Simple"
	ComplexityAdaptable  = "Adaptable"
	ComplexityEvolveable = "Evolveable"
)

// -----------------------------------------------------------------------------

// MBehavior is the merged archetype + complexity behavior profile attached to
// every subsystem in the structure descriptor.
type MBehavior struct {
	DecisionStyle  string   `json:"decision_style"`
	AdaptationRate float64  `json:"adaptation_rate"`
	RiskTolerance  float64  `json:"risk_tolerance"`
	RespondsTo     []string `json:"responds_to"`
	Color          string   `json:"color"`
	CanAdapt       bool     `json:"can_adapt"`
	CanEvolve      bool     `json:"can_evolve"`
	LearningRate   float64  `json:"learning_rate"`
}

// -----------------------------------------------------------------------------

// MSubsystem is one node of the structure hierarchy.
type MSubsystem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Level       int          `json:"level"`
	ParentID    string       `json:"parent_id"`
	Archetype   string       `json:"archetype"`
	Complexity  string       `json:"complexity"`
	Behavior    MBehavior    `json:"behavior"`
	Children    []MSubsystem `json:"children"`
}

// -----------------------------------------------------------------------------

// MFlow is one internal interaction edge between subsystems.
type MFlow struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SourceID      string `json:"source_id"`
	SinkID        string `json:"sink_id"`
	SubstanceType string `json:"substance_type"`
	Usability     string `json:"usability"`
}

// -----------------------------------------------------------------------------

// MLegendEntry maps an archetype to its display color and decision style.
type MLegendEntry struct {
	Color         string `json:"color"`
	DecisionStyle string `json:"decision_style"`
}

// -----------------------------------------------------------------------------

type MStructureRoot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type MStructureStats struct {
	TotalSubsystems int `json:"total_subsystems"`
	TotalFlows      int `json:"total_flows"`
	Depth           int `json:"depth"`
}

// -----------------------------------------------------------------------------

// MStructure is the full topology/structure descriptor served to clients.
type MStructure struct {
	Root            MStructureRoot          `json:"root"`
	Subsystems      []MSubsystem            `json:"subsystems"`
	Flows           []MFlow                 `json:"flows"`
	ArchetypeLegend map[string]MLegendEntry `json:"archetype_legend"`
	Stats           MStructureStats         `json:"stats"`
}
