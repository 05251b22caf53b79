// Package ws upgrades HTTP requests to WebSocket connections and runs
// their read loops.
package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spck/arcade-backend/internal/hub"
	"github.com/spck/arcade-backend/internal/matchmaking"
	"github.com/spck/arcade-backend/internal/presence"
	"github.com/spck/arcade-backend/internal/registry"
	"github.com/spck/arcade-backend/internal/room"
	"github.com/spck/arcade-backend/pkg/auth"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Handler manages WebSocket dependencies
type Handler struct {
	Registry   *registry.Registry
	Queue      *matchmaking.Queue
	Rooms      *room.Manager
	Presence   *presence.Notifier
	Dispatcher *hub.Dispatcher
	Upgrader   websocket.Upgrader
}

func NewHandler(reg *registry.Registry, queue *matchmaking.Queue, rooms *room.Manager, presence *presence.Notifier, dispatcher *hub.Dispatcher, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &Handler{
		Registry:   reg,
		Queue:      queue,
		Rooms:      rooms,
		Presence:   presence,
		Dispatcher: dispatcher,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket authenticates the ?token= query parameter and upgrades
// the connection. Identity comes exclusively from the token; clients
// never name themselves in messages.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateAccessToken(tokenString)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	h.handleConnection(conn, claims.Username)
}

// handleConnection manages the lifecycle of a single WebSocket connection
func (h *Handler) handleConnection(conn *websocket.Conn, username string) {
	log.Printf("[WS] Connection established for user: %s", username)

	// A newer connection for the same identity wins; the old one keeps
	// running until its read loop fails but can no longer be reached.
	h.Registry.Register(username, conn)

	ctx := context.Background()
	h.Presence.HandleConnect(ctx, username)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	// Keep-alive pinger
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	defer func() {
		log.Printf("[WS] Connection closed for user %s", username)
		conn.Close()
		h.Registry.UnregisterIfMatching(username, conn)

		// A replacement connection means the user is still here: no
		// forfeit, no offline fan-out.
		if h.Registry.IsOnline(username) {
			return
		}

		h.Queue.RemoveAll(username)
		h.Rooms.HandleDisconnect(username)
		h.Presence.HandleDisconnect(ctx, username)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] User %s disconnected unexpectedly: %v", username, err)
			}
			return
		}

		h.Dispatcher.Dispatch(ctx, username, data)
	}
}
