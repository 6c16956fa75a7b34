package structure

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bitcoin-abm/src/models"
)

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "nope.json"))

	_, err := l.Load()
	if err == nil {
		t.Fatal("Expected error for missing model file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist in chain, got %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(path).Load()
	if err == nil {
		t.Fatal("Expected error for malformed model file")
	}
	if errors.Is(err, fs.ErrNotExist) {
		t.Error("Parse failure must not look like a missing file")
	}
}

// -----------------------------------------------------------------------------

func TestLoadAssemblesHierarchy(t *testing.T) {
	s, err := NewLoader("testdata/bitcoin_model.json").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Root.ID != "S0" || s.Root.Name != "Bitcoin Network" {
		t.Errorf("Unexpected root: %+v", s.Root)
	}

	if len(s.Subsystems) != 2 {
		t.Fatalf("Expected 2 level-1 subsystems, got %d", len(s.Subsystems))
	}
	if s.Subsystems[0].ID != "S1" || s.Subsystems[1].ID != "S2" {
		t.Errorf("Expected file order [S1 S2], got [%s %s]", s.Subsystems[0].ID, s.Subsystems[1].ID)
	}

	if len(s.Subsystems[0].Children) != 1 || s.Subsystems[0].Children[0].ID != "S1.1" {
		t.Errorf("Expected S1.1 nested under S1, got %+v", s.Subsystems[0].Children)
	}
	if len(s.Subsystems[1].Children) != 0 {
		t.Errorf("Expected no children under S2, got %d", len(s.Subsystems[1].Children))
	}

	// F2 sits outside the system boundary, F3 carries no level
	if len(s.Flows) != 1 {
		t.Fatalf("Expected 1 internal flow, got %d", len(s.Flows))
	}
	if s.Flows[0].ID != "F1" || s.Flows[0].SubstanceType != "Energy" {
		t.Errorf("Unexpected flow: %+v", s.Flows[0])
	}

	if s.Stats.TotalSubsystems != 4 {
		t.Errorf("Expected 4 total subsystems, got %d", s.Stats.TotalSubsystems)
	}
	if s.Stats.TotalFlows != 1 {
		t.Errorf("Expected 1 total flow, got %d", s.Stats.TotalFlows)
	}
	if s.Stats.Depth != 2 {
		t.Errorf("Expected depth 2, got %d", s.Stats.Depth)
	}
}

// -----------------------------------------------------------------------------

func TestBehaviorMerging(t *testing.T) {
	s, err := NewLoader("testdata/bitcoin_model.json").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	mining := s.Subsystems[0]
	if mining.Complexity != models.ComplexityEvolveable {
		t.Errorf("Expected Evolveable mining economy, got %s", mining.Complexity)
	}
	if mining.Behavior.DecisionStyle != "profit_maximizing" {
		t.Errorf("Expected Economy decision style, got %s", mining.Behavior.DecisionStyle)
	}
	if !mining.Behavior.CanEvolve || mining.Behavior.LearningRate != 0.3 {
		t.Errorf("Expected evolveable learning profile, got %+v", mining.Behavior)
	}
	if mining.Behavior.Color != "#f7931a" {
		t.Errorf("Expected Bitcoin orange, got %s", mining.Behavior.Color)
	}

	rules := s.Subsystems[1]
	if rules.Complexity != models.ComplexitySimple {
		t.Errorf("Expected Simple consensus rules, got %s", rules.Complexity)
	}
	if rules.Behavior.DecisionStyle != "consensus_seeking" {
		t.Errorf("Expected Governance decision style, got %s", rules.Behavior.DecisionStyle)
	}
	if rules.Behavior.CanAdapt || rules.Behavior.LearningRate != 0.0 {
		t.Errorf("Expected static learning profile, got %+v", rules.Behavior)
	}

	// No archetype falls back to rule following
	feeMarket := mining.Children[0]
	if feeMarket.Behavior.DecisionStyle != "rule_following" || feeMarket.Behavior.Color != "#888888" {
		t.Errorf("Expected default behavior for archetype-less node, got %+v", feeMarket.Behavior)
	}
	if feeMarket.Complexity != models.ComplexityAdaptable || feeMarket.Behavior.LearningRate != 0.1 {
		t.Errorf("Expected Adaptable profile, got %s %+v", feeMarket.Complexity, feeMarket.Behavior)
	}
}

// -----------------------------------------------------------------------------

func TestArchetypeLegend(t *testing.T) {
	s, err := NewLoader("testdata/bitcoin_model.json").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(s.ArchetypeLegend) != 3 {
		t.Fatalf("Expected 3 legend entries, got %d", len(s.ArchetypeLegend))
	}
	economy, ok := s.ArchetypeLegend["Economy"]
	if !ok || economy.Color != "#f7931a" || economy.DecisionStyle != "profit_maximizing" {
		t.Errorf("Unexpected Economy legend entry: %+v", economy)
	}
}

// -----------------------------------------------------------------------------

func TestDescriptionTruncation(t *testing.T) {
	long := strings.Repeat("a", 400)
	doc := `{
	  "systems": [
	    {"info": {"id": "S0", "name": "Root", "description": "` + long + `", "level": 0}, "parent": null},
	    {"info": {"id": "S1", "name": "Child", "description": "` + long + `", "level": 1}, "parent": "S0"}
	  ],
	  "interactions": []
	}`

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(s.Root.Description) != 300 {
		t.Errorf("Expected root blurb clipped to 300, got %d", len(s.Root.Description))
	}
	if strings.HasSuffix(s.Root.Description, "...") {
		t.Error("Root blurb must not carry an ellipsis")
	}

	child := s.Subsystems[0].Description
	if len(child) != 203 || !strings.HasSuffix(child, "...") {
		t.Errorf("Expected 200-char description plus ellipsis, got %d chars", len(child))
	}
}

// -----------------------------------------------------------------------------

func TestParseComplexityVariants(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		expected string
	}{
		{"missing", "", models.ComplexitySimple},
		{"null", "null", models.ComplexitySimple},
		{"atomic string", `"Atomic"`, models.ComplexitySimple},
		{"plain complex", `{"Complex": {"adaptable": false, "evolveable": false}}`, models.ComplexitySimple},
		{"adaptable", `{"Complex": {"adaptable": true, "evolveable": false}}`, models.ComplexityAdaptable},
		{"evolveable", `{"Complex": {"adaptable": false, "evolveable": true}}`, models.ComplexityEvolveable},
	}

	for _, tc := range cases {
		got := parseComplexity([]byte(tc.raw))
		if got != tc.expected {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}
