package server

import (
	"encoding/json"
	"net/http"

	"bitcoin-abm/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main Hub loop. Stop closes the command channels, which
// shuts the loop down.
func (s *Server) runHub() {
	for {
		select {
		case client, ok := <-s.register:
			if !ok {
				return
			}
			s.clients[client] = struct{}{}
			// Send initial state on connect
			snap := s.sim.CurrentState()
			client.send <- &models.MServerEvent{
				Event: models.EventStateUpdate,
				State: &snap,
			}
			s.Logger.Debug("Client %s connected (%d total)", client.id, len(s.clients))

		case client, ok := <-s.unregister:
			if !ok {
				return
			}
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case event, ok := <-s.broadcast:
			if !ok {
				return
			}
			// Broadcast to all clients
			for client := range s.clients {
				select {
				case client.send <- event:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Broadcast Helpers
// -----------------------------------------------------------------------------

// BroadcastState queues a state_update for every connected client.
func (s *Server) BroadcastState(snap models.MSnapshot) {
	s.broadcast <- &models.MServerEvent{
		Event: models.EventStateUpdate,
		State: &snap,
	}
}

// -----------------------------------------------------------------------------

// BroadcastScenario announces a scenario-driven reset.
func (s *Server) BroadcastScenario(scn *models.MScenario) {
	s.broadcast <- &models.MServerEvent{
		Event:    models.EventScenarioChanged,
		Scenario: scn,
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MServerEvent, 256),
	}

	s.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Intent Handling
// -----------------------------------------------------------------------------

// HandleClientMessage routes one websocket intent. Mutations broadcast to
// every client; failures go back to the offending client only.
func (s *Server) HandleClientMessage(client *Client, message []byte) {
	var intent models.MIntentMessage
	if err := json.Unmarshal(message, &intent); err != nil {
		s.Logger.Info("Failed to parse client intent: %v", err)
		client.trySend(&models.MServerEvent{
			Event:   models.EventError,
			Message: "malformed intent",
		})
		return
	}

	switch intent.Event {
	case models.EventStep:
		count := intent.Count
		if count == 0 {
			count = 1
		}
		if _, _, err := s.doStep(count); err != nil {
			client.trySend(&models.MServerEvent{
				Event:   models.EventError,
				Message: err.Error(),
			})
		}

	case models.EventReset:
		if _, _, err := s.doReset(intent.Scenario, intent.Params); err != nil {
			client.trySend(&models.MServerEvent{
				Event:   models.EventError,
				Message: err.Error(),
			})
		}

	default:
		client.trySend(&models.MServerEvent{
			Event:   models.EventError,
			Message: "unknown event: " + intent.Event,
		})
	}
}
