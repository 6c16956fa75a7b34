package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"bitcoin-abm/src/config"
	"bitcoin-abm/src/engine"
	"bitcoin-abm/src/scenarios"
	"bitcoin-abm/src/structure"
)

const testModelJSON = `{
  "systems": [
    {"info": {"id": "S0", "name": "Bitcoin Network", "description": "Root system.", "level": 0}, "parent": null},
    {"info": {"id": "S1", "name": "Mining Economy", "description": "Miners.", "level": 1}, "parent": "S0", "archetype": "Economy"}
  ],
  "interactions": []
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	modelPath := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(modelPath, []byte(testModelJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Structure.ModelPath = modelPath

	sim := engine.NewEngine(cfg.Engine)
	return NewServer(cfg.MConfig, sim, scenarios.NewRegistry(), structure.NewLoader(modelPath), nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	decoded := make(map[string]interface{})
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("Response is not JSON (%d): %s", rec.Code, rec.Body.String())
	}
	return rec.Code, decoded
}

// -----------------------------------------------------------------------------

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, body := doJSON(t, s, http.MethodGet, "/api/status", nil)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected ok envelope, got %v", body["status"])
	}
	if body["service"] != "bitcoin-abm" || body["version"] != "0.2.0" {
		t.Errorf("Unexpected service identity: %v %v", body["service"], body["version"])
	}

	state, ok := body["state"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected nested state, got %v", body["state"])
	}
	if state["step"] != float64(0) || state["running"] != false {
		t.Errorf("Unexpected initial state: %v", state)
	}
}

// -----------------------------------------------------------------------------

func TestStepCapAndHistory(t *testing.T) {
	s := newTestServer(t)

	code, body := doJSON(t, s, http.MethodPost, "/api/step", map[string]int{"count": 250})
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["steps_taken"] != float64(100) {
		t.Errorf("Expected cap at 100 steps, got %v", body["steps_taken"])
	}

	history, ok := body["history"].([]interface{})
	if !ok {
		t.Fatal("Expected history for multi-step request")
	}
	if len(history) != 100 {
		t.Errorf("Expected 100 history entries, got %d", len(history))
	}

	state := body["state"].(map[string]interface{})
	if state["step"] != float64(100) {
		t.Errorf("Expected final step 100, got %v", state["step"])
	}
}

// -----------------------------------------------------------------------------

func TestSingleStepOmitsHistory(t *testing.T) {
	s := newTestServer(t)

	code, body := doJSON(t, s, http.MethodPost, "/api/step", map[string]int{"count": 1})
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["steps_taken"] != float64(1) {
		t.Errorf("Expected 1 step, got %v", body["steps_taken"])
	}
	if _, present := body["history"]; present {
		t.Error("Single-step response must not carry history")
	}
}

// -----------------------------------------------------------------------------

func TestStepWithoutBodyDefaultsToOne(t *testing.T) {
	s := newTestServer(t)

	code, body := doJSON(t, s, http.MethodPost, "/api/step", nil)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["steps_taken"] != float64(1) {
		t.Errorf("Expected default single step, got %v", body["steps_taken"])
	}
}

// -----------------------------------------------------------------------------

func TestResetWithScenario(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/step", map[string]int{"count": 10})

	code, body := doJSON(t, s, http.MethodPost, "/api/reset", map[string]string{"scenario": "fee_spike"})
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	state := body["state"].(map[string]interface{})
	if state["step"] != float64(0) {
		t.Errorf("Expected step 0 after reset, got %v", state["step"])
	}

	active := s.ActiveScenario()
	if active == nil || active.ID != "fee_spike" {
		t.Errorf("Expected fee_spike active, got %+v", active)
	}
}

// -----------------------------------------------------------------------------

func TestResetUnknownScenario(t *testing.T) {
	s := newTestServer(t)

	code, body := doJSON(t, s, http.MethodPost, "/api/reset", map[string]string{"scenario": "moon_mode"})
	if code != 400 {
		t.Fatalf("Expected 400, got %d", code)
	}
	if body["status"] != "error" {
		t.Errorf("Expected error envelope, got %v", body)
	}
}

// -----------------------------------------------------------------------------

func TestBareResetReappliesActiveScenario(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/reset", map[string]string{"scenario": "fee_spike"})
	doJSON(t, s, http.MethodPost, "/api/step", map[string]int{"count": 5})

	code, body := doJSON(t, s, http.MethodPost, "/api/reset", nil)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	state := body["state"].(map[string]interface{})
	if state["step"] != float64(0) {
		t.Errorf("Expected step 0, got %v", state["step"])
	}

	active := s.ActiveScenario()
	if active == nil || active.ID != "fee_spike" {
		t.Errorf("Expected fee_spike to stay active across a bare reset, got %+v", active)
	}
}

// -----------------------------------------------------------------------------

func TestStateAndHistoryEndpoints(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/step", map[string]int{"count": 7})

	code, body := doJSON(t, s, http.MethodGet, "/api/state", nil)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	state := body["state"].(map[string]interface{})
	if state["step"] != float64(7) {
		t.Errorf("Expected step 7, got %v", state["step"])
	}

	code, body = doJSON(t, s, http.MethodGet, "/api/history?last_n=3", nil)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["count"] != float64(7) {
		t.Errorf("Expected 7 retained snapshots, got %v", body["count"])
	}
	history := body["history"].([]interface{})
	if len(history) != 3 {
		t.Errorf("Expected 3 history entries, got %d", len(history))
	}
}

// -----------------------------------------------------------------------------

func TestScenariosEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, body := doJSON(t, s, http.MethodGet, "/api/scenarios", nil)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}

	list, ok := body["scenarios"].([]interface{})
	if !ok || len(list) != 6 {
		t.Fatalf("Expected 6 scenarios, got %v", body["scenarios"])
	}
	first := list[0].(map[string]interface{})
	if first["id"] != "baseline" {
		t.Errorf("Expected baseline first, got %v", first["id"])
	}
	if _, present := first["hypothesis"]; present {
		t.Error("Baseline must not surface a hypothesis")
	}
}

// -----------------------------------------------------------------------------

func TestStructureEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, body := doJSON(t, s, http.MethodGet, "/api/structure", nil)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}

	st, ok := body["structure"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected structure payload, got %v", body)
	}
	root := st["root"].(map[string]interface{})
	if root["name"] != "Bitcoin Network" {
		t.Errorf("Unexpected root name: %v", root["name"])
	}
}

// -----------------------------------------------------------------------------

func TestStructureMissingModel(t *testing.T) {
	s := newTestServer(t)
	s.loader = structure.NewLoader(filepath.Join(t.TempDir(), "absent.json"))

	code, body := doJSON(t, s, http.MethodGet, "/api/structure", nil)
	if code != 404 {
		t.Fatalf("Expected 404 for missing model, got %d", code)
	}
	if body["status"] != "error" {
		t.Errorf("Expected error envelope, got %v", body)
	}
}
