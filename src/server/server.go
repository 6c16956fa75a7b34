package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/interfaces"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"
	"bitcoin-abm/src/scenarios"
	"bitcoin-abm/src/structure"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type Server struct {
	Config *models.MConfig
	Logger *logger.Logger
	router *gin.Engine

	sim      interfaces.IEngine
	registry *scenarios.Registry
	loader   *structure.Loader
	store    interfaces.IRunStore // nil when persistence is disabled

	startedAt time.Time

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MServerEvent // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client

	// Active scenario and persistence bookkeeping
	stateMutex     sync.RWMutex
	activeScenario *models.MScenario
	activeParams   models.MParams
	activeRunID    string
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *models.MConfig, sim interfaces.IEngine, registry *scenarios.Registry, loader *structure.Loader, store interfaces.IRunStore) *Server {
	// Set Gin mode
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:   cfg,
		Logger:   logger.NewLogger("Server"),
		router:   gin.Default(),
		sim:      sim,
		registry: registry,
		loader:   loader,
		store:    store,
		clients:  make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		// Queue size of 256 ensures we can handle bursts of updates
		broadcast:  make(chan *models.MServerEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	// Add CORS Middleware
	s.router.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// REST API endpoints
	s.router.GET("/api/status", s.getStatus)
	s.router.GET("/api/state", s.getState)
	s.router.GET("/api/history", s.getHistory)
	s.router.GET("/api/scenarios", s.getScenarios)
	s.router.GET("/api/structure", s.getStructure)
	s.router.POST("/api/step", s.postStep)
	s.router.POST("/api/reset", s.postReset)

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.startedAt = time.Now()
	s.beginRun(nil, nil)

	go s.runHub()

	return s.router.Run(addr)
}

// -----------------------------------------------------------------------------

// Handler exposes the HTTP handler for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// -----------------------------------------------------------------------------

func (s *Server) Stop() error {
	// Clean shutdown
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Shared Mutation Path (REST and WebSocket intents)
// -----------------------------------------------------------------------------

// doStep advances the engine tick by tick, collecting the per-tick snapshots.
// The request count is capped; committed ticks stand even when a later tick
// fails, but a failed call neither persists nor broadcasts.
func (s *Server) doStep(count int) (int, []models.MSnapshot, error) {
	if count > s.Config.Engine.MaxStepsPerCall {
		count = s.Config.Engine.MaxStepsPerCall
	}
	if count < 0 {
		count = 0
	}

	states := make([]models.MSnapshot, 0, count)
	for i := 0; i < count; i++ {
		snap, err := s.sim.Step(1)
		if err != nil {
			return len(states), states, err
		}
		states = append(states, snap)
	}

	if len(states) > 0 {
		s.persistSnapshots(states)
		s.BroadcastState(states[len(states)-1])
	}
	return len(states), states, nil
}

// -----------------------------------------------------------------------------

// doReset reinitializes the engine. A scenario id wins over raw params; a
// bare reset re-applies the previous bundle so repeated resets replay the
// same experiment.
func (s *Server) doReset(scenarioID string, params models.MParams) (models.MSnapshot, *models.MScenario, error) {
	var scn *models.MScenario
	scenarioDriven := false

	switch {
	case scenarioID != "":
		sc, ok := s.registry.Get(scenarioID)
		if !ok {
			return models.MSnapshot{}, nil, helpers.NewIntentError("unknown scenario: "+scenarioID, nil)
		}
		scn = &sc
		params = sc.Params
		scenarioDriven = true

	case params != nil:
		// Custom params detach the run from any named scenario

	default:
		s.stateMutex.RLock()
		scn = s.activeScenario
		params = s.activeParams
		s.stateMutex.RUnlock()
	}

	snap := s.sim.Reset(params)

	s.stateMutex.Lock()
	s.activeScenario = scn
	s.activeParams = params
	s.stateMutex.Unlock()

	s.beginRun(scn, params)

	s.BroadcastState(snap)
	if scenarioDriven {
		s.BroadcastScenario(scn)
	}
	return snap, scn, nil
}

// -----------------------------------------------------------------------------

// ActiveScenario returns the scenario the current run was reset to, if any.
func (s *Server) ActiveScenario() *models.MScenario {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.activeScenario
}

// -----------------------------------------------------------------------------
// Run Persistence (optional)
// -----------------------------------------------------------------------------

func (s *Server) beginRun(scn *models.MScenario, params models.MParams) {
	if s.store == nil {
		return
	}

	scenarioID := "custom"
	if scn != nil {
		scenarioID = scn.ID
	}

	runID, err := s.store.BeginRun(scenarioID, params)
	if err != nil {
		// Without a fresh run row, appending would attribute the new
		// run's snapshots to the previous one
		s.Logger.Error("Failed to begin run: %v", err)
		runID = ""
	}

	s.stateMutex.Lock()
	s.activeRunID = runID
	s.stateMutex.Unlock()

	if err := s.store.PruneRuns(s.Config.Storage.MaxRuns); err != nil {
		s.Logger.Warning("Failed to prune runs: %v", err)
	}
}

// -----------------------------------------------------------------------------

func (s *Server) persistSnapshots(snaps []models.MSnapshot) {
	if s.store == nil {
		return
	}

	s.stateMutex.RLock()
	runID := s.activeRunID
	s.stateMutex.RUnlock()
	if runID == "" {
		return
	}

	if err := s.store.AppendSnapshots(runID, snaps); err != nil {
		s.Logger.Error("Failed to persist %d snapshots: %v", len(snaps), err)
	}
}
