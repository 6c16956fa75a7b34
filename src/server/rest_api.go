package server

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Request Bodies
// -----------------------------------------------------------------------------

type stepRequest struct {
	Count int `json:"count"`
}

type resetRequest struct {
	Scenario string         `json:"scenario"`
	Params   models.MParams `json:"params"`
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getStatus(c *gin.Context) {
	snap := s.sim.CurrentState()

	c.JSON(200, gin.H{
		"status":         "ok",
		"service":        s.Config.Name,
		"version":        s.Config.Version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"state": gin.H{
			"step":    snap.Step,
			"running": snap.Running,
		},
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getState(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "ok",
		"state":  s.sim.CurrentState(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getHistory(c *gin.Context) {
	lastN := 0
	if raw := c.Query("last_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(400, gin.H{"status": "error", "message": "last_n must be an integer"})
			return
		}
		lastN = n
	}

	// count is the full retained backlog, history the requested slice
	c.JSON(200, gin.H{
		"status":  "ok",
		"count":   s.sim.HistoryCount(),
		"history": s.sim.History(lastN),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getScenarios(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"scenarios": s.registry.List(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getStructure(c *gin.Context) {
	st, err := s.loader.Load()
	if err != nil {
		code := 500
		if errors.Is(err, fs.ErrNotExist) {
			code = 404
		}
		c.JSON(code, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"status":    "ok",
		"structure": st,
	})
}

// -----------------------------------------------------------------------------

func (s *Server) postStep(c *gin.Context) {
	req := stepRequest{Count: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"status": "error", "message": "invalid step request: " + err.Error()})
			return
		}
	}

	taken, states, err := s.doStep(req.Count)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "message": err.Error()})
		return
	}

	state := s.sim.CurrentState()
	if len(states) > 0 {
		state = states[len(states)-1]
	}

	response := gin.H{
		"status":      "ok",
		"steps_taken": taken,
		"state":       state,
	}
	if req.Count > 1 {
		response["history"] = states
	}
	c.JSON(200, response)
}

// -----------------------------------------------------------------------------

func (s *Server) postReset(c *gin.Context) {
	var req resetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"status": "error", "message": "invalid reset request: " + err.Error()})
			return
		}
	}

	snap, _, err := s.doReset(req.Scenario, req.Params)
	if err != nil {
		code := 500
		if helpers.IsIntent(err) {
			code = 400
		}
		c.JSON(code, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"status":  "ok",
		"message": "Simulation reset",
		"state":   snap,
	})
}
