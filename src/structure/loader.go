package structure

import (
	"encoding/json"
	"os"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"
)

// Description truncation limits for the wire descriptor
const (
	rootDescriptionLimit      = 300
	subsystemDescriptionLimit = 200
)

// archetypeBehaviors maps a subsystem archetype to its behavior profile.
// Complexity fields are filled in separately.
var archetypeBehaviors = map[string]models.MBehavior{
	"Economy": {
		DecisionStyle:  "profit_maximizing",
		AdaptationRate: 0.8,
		RiskTolerance:  0.6,
		RespondsTo:     []string{"fees", "rewards", "costs"},
		Color:          "#f7931a",
	},
	"Agent": {
		DecisionStyle:  "evidence_based",
		AdaptationRate: 0.5,
		RiskTolerance:  0.3,
		RespondsTo:     []string{"technical_signals", "community_feedback", "research"},
		Color:          "#4a90d9",
	},
	"Governance": {
		DecisionStyle:  "consensus_seeking",
		AdaptationRate: 0.2,
		RiskTolerance:  0.1,
		RespondsTo:     []string{"consensus_rules", "votes", "activation_signals"},
		Color:          "#50c878",
	},
}

// defaultBehavior applies to subsystems without an archetype.
var defaultBehavior = models.MBehavior{
	DecisionStyle:  "rule_following",
	AdaptationRate: 0.0,
	RiskTolerance:  0.0,
	RespondsTo:     []string{},
	Color:          "#888888",
}

type complexityProfile struct {
	canAdapt     bool
	canEvolve    bool
	learningRate float64
}

var complexityParams = map[string]complexityProfile{
	models.ComplexitySimple:     {false, false, 0.0},
	models.ComplexityAdaptable:  {true, false, 0.1},
	models.ComplexityEvolveable: {true, true, 0.3},
}

// -----------------------------------------------------------------------------
// Raw schema of the model file. Levels default differently for systems (0)
// and interactions (-1), hence the pointer.
// -----------------------------------------------------------------------------

type rawInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       *int   `json:"level"`
}

type rawSystem struct {
	Info       rawInfo         `json:"info"`
	Parent     string          `json:"parent"`
	Complexity json.RawMessage `json:"complexity"`
	Archetype  string          `json:"archetype"`
}

type rawSubstance struct {
	Type string `json:"type"`
}

type rawInteraction struct {
	Info      rawInfo      `json:"info"`
	Source    string       `json:"source"`
	Sink      string       `json:"sink"`
	Substance rawSubstance `json:"substance"`
	Usability string       `json:"usability"`
}

type rawModel struct {
	Systems      []rawSystem      `json:"systems"`
	Interactions []rawInteraction `json:"interactions"`
}

// -----------------------------------------------------------------------------
// Loader reads the structure model file and produces the wire descriptor
// served on the structure endpoint. Loading happens per call; the file is
// small and editable while the server runs.
// -----------------------------------------------------------------------------

type Loader struct {
	Logger *logger.Logger
	Path   string
}

// -----------------------------------------------------------------------------

func NewLoader(path string) *Loader {
	return &Loader{
		Logger: logger.NewLogger("Structure"),
		Path:   path,
	}
}

// -----------------------------------------------------------------------------

// Load parses the model file into the wire descriptor. A missing file keeps
// os.ErrNotExist in the error chain so callers can map it to a not-found
// response; anything else is a parse failure.
func (l *Loader) Load() (*models.MStructure, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		l.Logger.Warning("Structure model unavailable at %s: %v", l.Path, err)
		return nil, helpers.NewStructureError("structure model not found: "+l.Path, err)
	}

	var model rawModel
	if err := json.Unmarshal(data, &model); err != nil {
		l.Logger.Error("Structure model malformed at %s: %v", l.Path, err)
		return nil, helpers.NewStructureError("structure model malformed: "+l.Path, err)
	}

	return l.assemble(&model), nil
}

// -----------------------------------------------------------------------------

func (l *Loader) assemble(model *rawModel) *models.MStructure {
	// Parse all systems in file order; the hierarchy and the wire lists
	// must keep that order.
	nodes := make([]*models.MSubsystem, 0, len(model.Systems))
	byID := make(map[string]*models.MSubsystem, len(model.Systems))
	maxLevel := 0

	for _, sys := range model.Systems {
		complexity := parseComplexity(sys.Complexity)
		profile := complexityParams[complexity]

		behavior, ok := archetypeBehaviors[sys.Archetype]
		if !ok {
			behavior = defaultBehavior
		}
		behavior.CanAdapt = profile.canAdapt
		behavior.CanEvolve = profile.canEvolve
		behavior.LearningRate = profile.learningRate

		level := levelOr(sys.Info.Level, 0)
		if level > maxLevel {
			maxLevel = level
		}

		node := &models.MSubsystem{
			ID:          sys.Info.ID,
			Name:        sys.Info.Name,
			Description: sys.Info.Description,
			Level:       level,
			ParentID:    sys.Parent,
			Archetype:   sys.Archetype,
			Complexity:  complexity,
			Behavior:    behavior,
			Children:    []models.MSubsystem{},
		}
		nodes = append(nodes, node)
		byID[node.ID] = node
	}

	attachChildren(nodes, byID)

	subsystems := make([]models.MSubsystem, 0)
	var root *models.MSubsystem
	for _, node := range nodes {
		if node.ID == "S0" {
			root = node
		}
		if node.Level == 1 && node.ParentID == "S0" {
			subsystems = append(subsystems, *node)
		}
	}
	for i := range subsystems {
		truncateDescriptions(&subsystems[i])
	}

	flows := make([]models.MFlow, 0)
	for _, inter := range model.Interactions {
		if levelOr(inter.Info.Level, -1) < 0 {
			continue
		}
		flows = append(flows, models.MFlow{
			ID:            inter.Info.ID,
			Name:          inter.Info.Name,
			SourceID:      inter.Source,
			SinkID:        inter.Sink,
			SubstanceType: inter.Substance.Type,
			Usability:     inter.Usability,
		})
	}

	legend := make(map[string]models.MLegendEntry, len(archetypeBehaviors))
	for name, behavior := range archetypeBehaviors {
		legend[name] = models.MLegendEntry{
			Color:         behavior.Color,
			DecisionStyle: behavior.DecisionStyle,
		}
	}

	wireRoot := models.MStructureRoot{ID: "S0", Name: "Bitcoin"}
	if root != nil {
		wireRoot.ID = root.ID
		wireRoot.Name = root.Name
		wireRoot.Description = clip(root.Description, rootDescriptionLimit)
	}

	return &models.MStructure{
		Root:            wireRoot,
		Subsystems:      subsystems,
		Flows:           flows,
		ArchetypeLegend: legend,
		Stats: models.MStructureStats{
			TotalSubsystems: len(nodes),
			TotalFlows:      len(flows),
			Depth:           maxLevel,
		},
	}
}

// -----------------------------------------------------------------------------

// attachChildren wires every node under its parent, deepest levels first, so
// a child's own subtree is already complete when the child is copied into
// the parent's slice.
func attachChildren(nodes []*models.MSubsystem, byID map[string]*models.MSubsystem) {
	maxLevel := 0
	for _, node := range nodes {
		if node.Level > maxLevel {
			maxLevel = node.Level
		}
	}

	for level := maxLevel; level > 0; level-- {
		for _, node := range nodes {
			if node.Level != level || node.ParentID == "" {
				continue
			}
			if parent, ok := byID[node.ParentID]; ok {
				parent.Children = append(parent.Children, *node)
			}
		}
	}
}

// -----------------------------------------------------------------------------

// parseComplexity reduces the model's nested complexity variant to a level
// name. Anything without an adaptable/evolveable Complex payload is Simple.
func parseComplexity(raw json.RawMessage) string {
	if len(raw) == 0 {
		return models.ComplexitySimple
	}

	var wrapper struct {
		Complex *struct {
			Adaptable  bool `json:"adaptable"`
			Evolveable bool `json:"evolveable"`
		} `json:"Complex"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Complex == nil {
		return models.ComplexitySimple
	}

	switch {
	case wrapper.Complex.Evolveable:
		return models.ComplexityEvolveable
	case wrapper.Complex.Adaptable:
		return models.ComplexityAdaptable
	default:
		return models.ComplexitySimple
	}
}

// -----------------------------------------------------------------------------

func levelOr(level *int, fallback int) int {
	if level == nil {
		return fallback
	}
	return *level
}

// truncateDescriptions applies the subsystem description limit to a wire
// subtree. Only the root blurb keeps the longer limit.
func truncateDescriptions(node *models.MSubsystem) {
	node.Description = truncate(node.Description, subsystemDescriptionLimit)
	for i := range node.Children {
		truncateDescriptions(&node.Children[i])
	}
}

// truncate cuts long descriptions and marks the cut with an ellipsis.
func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// clip cuts without marking; used for the root blurb.
func clip(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
