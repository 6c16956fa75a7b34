package client

import (
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"
)

const wsWriteWait = 2 * time.Second

// -----------------------------------------------------------------------------
// EventSink receives everything a transport observes: applied snapshots,
// scenario announcements, rejected intents and the death of the connection
// itself. The Session implements it; tests may substitute their own.
// -----------------------------------------------------------------------------

type EventSink interface {
	HandleState(patch *models.MSnapshotPatch)
	HandleScenario(scn *models.MScenario)
	HandleIntentError(message string)
	HandleTransportDown(err error)
}

// wireEvent mirrors the server's websocket payload with the state kept in
// patch form so partial snapshots merge safely.
type wireEvent struct {
	Event    string                 `json:"event"`
	State    *models.MSnapshotPatch `json:"state"`
	Scenario *models.MScenario      `json:"scenario"`
	Message  string                 `json:"message"`
}

// -----------------------------------------------------------------------------
// WSChannel is the persistent intent channel. Intents go out as JSON events;
// snapshots come back asynchronously through the read loop.
// -----------------------------------------------------------------------------

type WSChannel struct {
	Logger *logger.Logger
	conn   *websocket.Conn
	sink   EventSink

	writeMu sync.Mutex
	closed  atomic.Bool
}

// -----------------------------------------------------------------------------

// DialWS connects to the server's websocket endpoint. serverURL is the plain
// http(s) base URL; the scheme is rewritten for the handshake.
func DialWS(serverURL string, sink EventSink) (*WSChannel, error) {
	wsURL, err := websocketURL(serverURL)
	if err != nil {
		return nil, helpers.NewTransportError("invalid server url: "+serverURL, err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, helpers.NewTransportError("websocket dial failed", err)
	}

	ch := &WSChannel{
		Logger: logger.NewLogger("WSChannel"),
		conn:   conn,
		sink:   sink,
	}
	go ch.readLoop()
	return ch, nil
}

// -----------------------------------------------------------------------------

func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// -----------------------------------------------------------------------------
// Intent Channel Implementation
// -----------------------------------------------------------------------------

func (ch *WSChannel) SendStep(count int) error {
	return ch.writeIntent(&models.MIntentMessage{
		Event: models.EventStep,
		Count: count,
	})
}

func (ch *WSChannel) SendReset(params models.MParams) error {
	return ch.writeIntent(&models.MIntentMessage{
		Event:  models.EventReset,
		Params: params,
	})
}

func (ch *WSChannel) SendScenario(id string) error {
	return ch.writeIntent(&models.MIntentMessage{
		Event:    models.EventReset,
		Scenario: id,
	})
}

// -----------------------------------------------------------------------------

func (ch *WSChannel) writeIntent(intent *models.MIntentMessage) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	ch.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ch.conn.WriteJSON(intent); err != nil {
		return helpers.NewTransportError("websocket write failed", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (ch *WSChannel) Close() error {
	ch.closed.Store(true)
	return ch.conn.Close()
}

// -----------------------------------------------------------------------------

// readLoop feeds incoming events to the sink until the connection dies.
// A read failure on a channel nobody closed is a transport loss.
func (ch *WSChannel) readLoop() {
	for {
		var event wireEvent
		if err := ch.conn.ReadJSON(&event); err != nil {
			if !ch.closed.Load() {
				ch.sink.HandleTransportDown(err)
			}
			return
		}

		switch event.Event {
		case models.EventStateUpdate:
			ch.sink.HandleState(event.State)
		case models.EventScenarioChanged:
			ch.sink.HandleScenario(event.Scenario)
		case models.EventError:
			ch.sink.HandleIntentError(event.Message)
		default:
			ch.Logger.Debug("Ignoring unknown event %q", event.Event)
		}
	}
}
