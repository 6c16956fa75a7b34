package client

import (
	"sync"
	"time"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/history"
	"bitcoin-abm/src/interfaces"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"
)

// -----------------------------------------------------------------------------
// Session Status
// -----------------------------------------------------------------------------

type Status string

// Connected means the websocket is live and intents flow through it.
// Disconnected covers both the idle state and the degraded mode where every
// intent falls back to a single request/response call.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// -----------------------------------------------------------------------------
// Session binds one client to the engine through whatever transport currently
// works. It owns the state projection, the rolling history window and the
// active scenario, and it implements EventSink so both channels feed it the
// same way.
// -----------------------------------------------------------------------------

type Session struct {
	Logger *logger.Logger
	cfg    models.MClientConfig

	rest      *RestChannel
	wsFactory func(sink EventSink) (interfaces.IIntentChannel, error)
	window    *history.Window

	mu             sync.Mutex
	status         Status
	ws             interfaces.IIntentChannel
	projection     models.MSnapshot
	activeScenario *models.MScenario
	catalog        []models.MScenario
	lastError      string
	errorTimer     *time.Timer
	reconnecting   bool
	closed         bool

	// UI notification hooks, set before Connect. All are invoked without
	// holding the session lock, so they may call back into the session.
	OnState    func(snapshot models.MSnapshot)
	OnScenario func(scenario models.MScenario)
	OnStatus   func(status Status)
	OnError    func(message string)
}

// -----------------------------------------------------------------------------

func NewSession(cfg *models.MConfig) *Session {
	s := &Session{
		Logger: logger.NewLogger("Session"),
		cfg:    cfg.Client,
		status: StatusDisconnected,
		window: history.NewWindow(cfg.History.WindowSize),
	}
	s.rest = NewRestChannel(cfg.Client.ServerURL, cfg.Client.RequestTimeout(), s)
	s.wsFactory = func(sink EventSink) (interfaces.IIntentChannel, error) {
		return DialWS(cfg.Client.ServerURL, sink)
	}
	return s
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Connect succeeds when the server answers on either transport. When only the
// request/response path works, the session comes up degraded and keeps
// retrying the websocket in the background.
func (s *Session) Connect() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return helpers.NewTransportError("session closed", nil)
	}
	if s.ws != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.transition(StatusConnecting)

	if catalog, err := s.rest.ListScenarios(); err != nil {
		s.Logger.Warning("Scenario catalog unavailable: %v", err)
	} else {
		s.mu.Lock()
		s.catalog = catalog
		s.mu.Unlock()
	}

	ch, err := s.wsFactory(s)
	if err == nil {
		s.adoptChannel(ch)
		return nil
	}
	s.Logger.Warning("Websocket dial failed, probing fallback: %v", err)

	if restErr := s.rest.FetchState(); restErr != nil {
		s.transition(StatusDisconnected)
		return helpers.NewTransportError("server unreachable", restErr)
	}

	s.transition(StatusDisconnected)
	s.beginReconnect()
	return nil
}

// -----------------------------------------------------------------------------

// Close tears the session down for good. A closed session rejects further
// intents; reconnect attempts in flight notice the flag and stop.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.errorTimer != nil {
		s.errorTimer.Stop()
		s.errorTimer = nil
	}
	ws := s.ws
	s.ws = nil
	cb, changed := s.setStatusLocked(StatusDisconnected)
	s.mu.Unlock()

	var err error
	if ws != nil {
		err = ws.Close()
	}
	if changed && cb != nil {
		cb(StatusDisconnected)
	}
	return err
}

// -----------------------------------------------------------------------------
// Intents
// -----------------------------------------------------------------------------

// Step advances the simulation by count ticks. Satisfies the stepping surface
// the continuous run driver expects.
func (s *Session) Step(count int) error {
	return s.sendIntent(func(ch interfaces.IIntentChannel) error {
		return ch.SendStep(count)
	})
}

// Reset reinitializes the simulation with explicit parameters. A nil bundle
// asks the server to re-apply whatever is currently active.
func (s *Session) Reset(params models.MParams) error {
	return s.sendIntent(func(ch interfaces.IIntentChannel) error {
		return ch.SendReset(params)
	})
}

// ResetScenario reinitializes the simulation from a named scenario.
func (s *Session) ResetScenario(id string) error {
	return s.sendIntent(func(ch interfaces.IIntentChannel) error {
		return ch.SendScenario(id)
	})
}

// Refresh pulls the committed state once over the request/response path and
// applies it to the projection. Useful for one-shot consumers that cannot
// wait for the next websocket push.
func (s *Session) Refresh() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return helpers.NewTransportError("session closed", nil)
	}
	s.mu.Unlock()
	return s.rest.FetchState()
}

// -----------------------------------------------------------------------------

// sendIntent prefers the live websocket and falls back to one
// request/response call. A websocket write failure counts as transport loss:
// the reconnect loop starts and this intent is retried over the fallback.
func (s *Session) sendIntent(send func(interfaces.IIntentChannel) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return helpers.NewTransportError("session closed", nil)
	}
	ws := s.ws
	s.mu.Unlock()

	if ws != nil {
		err := send(ws)
		if err == nil {
			return nil
		}
		if !helpers.IsTransport(err) {
			return err
		}
		s.HandleTransportDown(err)
	}
	return send(s.rest)
}

// SetRunning flips the run flag on the projection. The flag belongs to the
// continuous run driver and never arrives over the wire, so this is its only
// write path. No history entry results: the step did not change.
func (s *Session) SetRunning(running bool) {
	s.mu.Lock()
	if s.projection.Running == running {
		s.mu.Unlock()
		return
	}
	s.projection.Running = running
	snap := s.projection
	cb := s.OnState
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// -----------------------------------------------------------------------------
// Event Sink Implementation
// -----------------------------------------------------------------------------

func (s *Session) HandleState(patch *models.MSnapshotPatch) {
	s.mu.Lock()
	if !s.projection.Merge(patch) {
		s.mu.Unlock()
		s.Logger.Debug("Discarding stale snapshot")
		return
	}
	snap := s.projection
	cb := s.OnState
	s.mu.Unlock()

	s.window.Observe(&snap)
	if cb != nil {
		cb(snap)
	}
}

// HandleScenario records the scenario now driving the simulation. Bare
// announcements carrying only an id are enriched from the catalog fetched at
// connect time.
func (s *Session) HandleScenario(scn *models.MScenario) {
	if scn == nil {
		return
	}

	s.mu.Lock()
	resolved := *scn
	if resolved.Name == "" {
		for _, known := range s.catalog {
			if known.ID == resolved.ID {
				resolved = known
				break
			}
		}
	}
	s.activeScenario = &resolved
	cb := s.OnScenario
	s.mu.Unlock()

	s.Logger.Info("Active scenario: %s", resolved.ID)
	if cb != nil {
		cb(resolved)
	}
}

// HandleIntentError surfaces a rejected intent. The message clears itself
// after the configured TTL; subscribers see the empty string as the
// cleared signal.
func (s *Session) HandleIntentError(message string) {
	s.mu.Lock()
	s.lastError = message
	if s.errorTimer != nil {
		s.errorTimer.Stop()
		s.errorTimer = nil
	}
	if ttl := s.cfg.ErrorTTL(); ttl > 0 {
		s.errorTimer = time.AfterFunc(ttl, s.expireError)
	}
	cb := s.OnError
	s.mu.Unlock()

	s.Logger.Warning("Intent rejected: %s", message)
	if cb != nil {
		cb(message)
	}
}

func (s *Session) HandleTransportDown(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.ws != nil {
		s.ws.Close()
		s.ws = nil
	}
	cb, changed := s.setStatusLocked(StatusDisconnected)
	s.mu.Unlock()

	s.Logger.Warning("Transport lost: %v", err)
	if changed && cb != nil {
		cb(StatusDisconnected)
	}
	s.beginReconnect()
}

// -----------------------------------------------------------------------------
// Error lifetime
// -----------------------------------------------------------------------------

func (s *Session) expireError() {
	s.mu.Lock()
	if s.lastError == "" {
		s.mu.Unlock()
		return
	}
	s.lastError = ""
	s.errorTimer = nil
	cb := s.OnError
	s.mu.Unlock()

	if cb != nil {
		cb("")
	}
}

// Dismiss clears the visible intent error ahead of its TTL.
func (s *Session) Dismiss() {
	s.mu.Lock()
	if s.errorTimer != nil {
		s.errorTimer.Stop()
		s.errorTimer = nil
	}
	cleared := s.lastError != ""
	s.lastError = ""
	cb := s.OnError
	s.mu.Unlock()

	if cleared && cb != nil {
		cb("")
	}
}

// -----------------------------------------------------------------------------
// Reconnection
// -----------------------------------------------------------------------------

func (s *Session) beginReconnect() {
	s.mu.Lock()
	if s.closed || s.reconnecting {
		s.mu.Unlock()
		return
	}
	s.reconnecting = true
	s.mu.Unlock()

	go s.reconnectLoop()
}

// reconnectLoop redials the websocket a bounded number of times, then gives
// up until the next manual Connect. Intents keep working over the fallback
// the whole time.
func (s *Session) reconnectLoop() {
	attempts := s.cfg.ReconnectAttempts
	s.transition(StatusConnecting)

	for attempt := 1; attempt <= attempts; attempt++ {
		time.Sleep(s.cfg.ReconnectInterval())

		s.mu.Lock()
		if s.closed {
			s.reconnecting = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ch, err := s.wsFactory(s)
		if err != nil {
			s.Logger.Warning("Reconnect attempt %d/%d failed: %v", attempt, attempts, err)
			continue
		}

		s.mu.Lock()
		s.reconnecting = false
		s.mu.Unlock()
		s.adoptChannel(ch)
		s.Logger.Info("Websocket restored after %d attempt(s)", attempt)
		return
	}

	s.mu.Lock()
	s.reconnecting = false
	s.mu.Unlock()
	s.Logger.Error("Giving up after %d reconnect attempts", attempts)
	s.transition(StatusDisconnected)
}

// adoptChannel installs a freshly dialed websocket. The server pushes the
// current state on connect, so no explicit resync is needed here. When a
// channel is already installed the newcomer loses and is closed, so a manual
// Connect racing the reconnect loop cannot leak a connection.
func (s *Session) adoptChannel(ch interfaces.IIntentChannel) {
	s.mu.Lock()
	if s.closed || s.ws != nil {
		s.mu.Unlock()
		ch.Close()
		return
	}
	s.ws = ch
	cb, changed := s.setStatusLocked(StatusConnected)
	s.mu.Unlock()

	if changed && cb != nil {
		cb(StatusConnected)
	}
}

// -----------------------------------------------------------------------------
// Status plumbing
// -----------------------------------------------------------------------------

func (s *Session) transition(st Status) {
	s.mu.Lock()
	cb, changed := s.setStatusLocked(st)
	s.mu.Unlock()

	if changed && cb != nil {
		cb(st)
	}
}

func (s *Session) setStatusLocked(st Status) (func(Status), bool) {
	if s.status == st {
		return nil, false
	}
	s.status = st
	return s.OnStatus, true
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (s *Session) CurrentState() models.MSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projection
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Session) ActiveScenario() *models.MScenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeScenario == nil {
		return nil
	}
	scn := *s.activeScenario
	return &scn
}

func (s *Session) Scenarios() []models.MScenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MScenario, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Window exposes the rolling history of snapshots this session has observed.
func (s *Session) Window() *history.Window {
	return s.window
}
