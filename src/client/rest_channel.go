package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"
)

// -----------------------------------------------------------------------------
// RestChannel drives the same intents over plain HTTP. It is stateless per
// request, so it needs no reconnect handling; the session uses it whenever
// the websocket is down. Responses are fed to the sink exactly like the
// asynchronous websocket events so the session observes one behavior.
// -----------------------------------------------------------------------------

type RestChannel struct {
	Logger  *logger.Logger
	baseURL string
	client  *http.Client
	sink    EventSink
}

type restEnvelope struct {
	Status   string                 `json:"status"`
	Message  string                 `json:"message"`
	State    *models.MSnapshotPatch `json:"state"`
	Scenario *models.MScenario      `json:"scenario"`
}

type scenariosEnvelope struct {
	Status    string             `json:"status"`
	Message   string             `json:"message"`
	Scenarios []models.MScenario `json:"scenarios"`
}

// -----------------------------------------------------------------------------

func NewRestChannel(serverURL string, timeout time.Duration, sink EventSink) *RestChannel {
	return &RestChannel{
		Logger:  logger.NewLogger("RestChannel"),
		baseURL: strings.TrimSuffix(serverURL, "/"),
		client:  &http.Client{Timeout: timeout},
		sink:    sink,
	}
}

// -----------------------------------------------------------------------------
// Intent Channel Implementation
// -----------------------------------------------------------------------------

func (ch *RestChannel) SendStep(count int) error {
	env, err := ch.post("/api/step", map[string]interface{}{"count": count})
	if err != nil {
		return err
	}
	return ch.dispatch(env, nil)
}

func (ch *RestChannel) SendReset(params models.MParams) error {
	body := map[string]interface{}{}
	if params != nil {
		body["params"] = params
	}
	env, err := ch.post("/api/reset", body)
	if err != nil {
		return err
	}
	return ch.dispatch(env, nil)
}

func (ch *RestChannel) SendScenario(id string) error {
	env, err := ch.post("/api/reset", map[string]interface{}{"scenario": id})
	if err != nil {
		return err
	}
	// The REST body has no scenario payload, so announce the bare identity
	// and leave enrichment from the catalog to the session.
	return ch.dispatch(env, &models.MScenario{ID: id})
}

func (ch *RestChannel) Close() error {
	return nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// FetchState pulls the current committed snapshot and replays it through the
// sink. Used for the initial sync and after transport recovery.
func (ch *RestChannel) FetchState() error {
	env, err := ch.get("/api/state")
	if err != nil {
		return err
	}
	return ch.dispatch(env, nil)
}

// ListScenarios returns the server's scenario catalog.
func (ch *RestChannel) ListScenarios() ([]models.MScenario, error) {
	raw, err := ch.do(http.MethodGet, "/api/scenarios", nil)
	if err != nil {
		return nil, err
	}

	var env scenariosEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, helpers.NewTransportError("malformed scenarios response", err)
	}
	if env.Status != "ok" {
		return nil, helpers.NewIntentError(env.Message, nil)
	}
	return env.Scenarios, nil
}

// -----------------------------------------------------------------------------

// dispatch routes a decoded envelope to the sink. A rejected intent reaches
// the sink as an error event and does not fail the send itself, matching the
// websocket channel where rejections arrive asynchronously.
func (ch *RestChannel) dispatch(env *restEnvelope, scenario *models.MScenario) error {
	if env.Status != "ok" {
		ch.sink.HandleIntentError(env.Message)
		return nil
	}
	if env.Scenario != nil {
		scenario = env.Scenario
	}
	if scenario != nil {
		ch.sink.HandleScenario(scenario)
	}
	if env.State != nil {
		ch.sink.HandleState(env.State)
	}
	return nil
}

// -----------------------------------------------------------------------------
// HTTP plumbing
// -----------------------------------------------------------------------------

func (ch *RestChannel) post(path string, body interface{}) (*restEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, helpers.NewTransportError("failed to encode request", err)
	}
	raw, err := ch.do(http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(raw)
}

func (ch *RestChannel) get(path string) (*restEnvelope, error) {
	raw, err := ch.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(raw)
}

func (ch *RestChannel) do(method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ch.baseURL+path, reader)
	if err != nil {
		return nil, helpers.NewTransportError("failed to build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ch.client.Do(req)
	if err != nil {
		return nil, helpers.NewTransportError("request to "+path+" failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewTransportError("failed to read response from "+path, err)
	}
	return raw, nil
}

func decodeEnvelope(raw []byte) (*restEnvelope, error) {
	var env restEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, helpers.NewTransportError("malformed server response", err)
	}
	if env.Status == "" {
		return nil, helpers.NewTransportError("server response carries no status", nil)
	}
	return &env, nil
}
