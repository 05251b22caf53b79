// Package room owns active and just-finished matches and everything
// that happens inside them.
package room

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
	"github.com/spck/arcade-backend/pkg/uid"
)

// Sender pushes events to connected identities (the connection
// registry satisfies this).
type Sender interface {
	Send(username string, event domain.Event) error
}

// Reporter receives exactly one call per completed game, normal finish
// or forfeit. Implementations must be best-effort: a failed history
// write never blocks or reverses the in-memory outcome.
type Reporter interface {
	ReportResult(eng engine.Engine, winner, loser string, draw bool)
}

type chatPayload struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Manager maps room ids and occupants to live rooms. It is the only
// entry point for room mutation, so the per-room single-writer rule is
// enforced by construction.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	userRoom map[string]string // username → roomID

	engines  *engine.Registry
	sender   Sender
	reporter Reporter
}

func NewManager(engines *engine.Registry, sender Sender, reporter Reporter) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		userRoom: make(map[string]string),
		engines:  engines,
		sender:   sender,
		reporter: reporter,
	}
}

// Create atomically forms a room for two identities, first-mover first.
// Both get a "<game>:game_start" event. Fails if either identity is
// already occupying a room (a stale invite accept, for example).
func (m *Manager) Create(gameType, first, second string) (*Room, error) {
	if first == second {
		return nil, domain.ErrSelfMatch
	}

	eng, err := m.engines.Lookup(gameType)
	if err != nil {
		return nil, domain.ErrUnknownGameType
	}

	m.mu.Lock()
	if _, busy := m.userRoom[first]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", first, domain.ErrAlreadyInRoom)
	}
	if _, busy := m.userRoom[second]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", second, domain.ErrAlreadyInRoom)
	}

	// The id keeps the legacy <gameType>_<token> shape for clients, but
	// the game type is always read from the room itself.
	r := newRoom(gameType+"_"+uid.NewToken(), eng, first, second)
	m.rooms[r.ID] = r
	m.userRoom[first] = r.ID
	m.userRoom[second] = r.ID
	m.mu.Unlock()

	log.Printf("[ROOM] Created %s", r)

	_ = m.sender.Send(first, r.startEventFor(first))
	_ = m.sender.Send(second, r.startEventFor(second))
	return r, nil
}

// RoomOf returns the room currently holding username, if any.
func (m *Manager) RoomOf(username string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.userRoom[username]
	if !ok {
		return nil, false
	}
	r, ok := m.rooms[id]
	return r, ok
}

// InRoom reports whether username occupies a live room.
func (m *Manager) InRoom(username string) bool {
	_, ok := m.RoomOf(username)
	return ok
}

// HandleMove routes one move envelope into username's room. Rejections
// go back to the sender only; accepted moves are broadcast to both
// occupants as a full room snapshot. A terminal move reports the
// outcome pair before the final snapshot goes out. Returns false when
// the sender has no live room, so the caller can answer the stale move.
func (m *Manager) HandleMove(username string, payload json.RawMessage) bool {
	r, ok := m.RoomOf(username)
	if !ok {
		return false
	}

	outcome, err := r.applyMove(username, payload)
	if err != nil {
		_ = m.sender.Send(username, r.errorEvent(err))
		return true
	}

	if outcome.finished {
		m.reporter.ReportResult(r.eng, outcome.winner, outcome.loser, outcome.draw)
	}

	for _, p := range r.Players() {
		_ = m.sender.Send(p.Username, domain.NewEvent(r.GameType+":update", r.snapshotFor(p.Username)))
	}
	return true
}

// HandleLeave processes an explicit "game:leave" from an occupant.
// Mid-game it is a forfeit; post-game it declines the implicit rematch.
// Either way the room is destroyed.
func (m *Manager) HandleLeave(username string) {
	m.tearDown(username, "Your opponent has left the game.")
}

// HandleDisconnect processes a dropped connection. Identical to leave:
// a mid-game disconnect is an immediate forfeit with no grace window.
func (m *Manager) HandleDisconnect(username string) {
	m.tearDown(username, "Your opponent has disconnected.")
}

func (m *Manager) tearDown(leaver, disconnectMessage string) {
	r, ok := m.RoomOf(leaver)
	if !ok {
		return
	}

	opponent := r.Opponent(leaver)

	if outcome, forfeited := r.forfeit(leaver); forfeited {
		log.Printf("[ROOM] %s forfeited by %s", r.ID, leaver)
		m.reporter.ReportResult(r.eng, outcome.winner, outcome.loser, false)

		snapshot := r.snapshotFor(opponent)
		snapshot.DisconnectMessage = disconnectMessage
		_ = m.sender.Send(opponent, domain.NewEvent(r.GameType+":update", snapshot))
		_ = m.sender.Send(leaver, domain.NewEvent(r.GameType+":update", r.snapshotFor(leaver)))
	} else {
		// Post-game exit: no outcome side effects, just tell the other
		// side their opponent is gone from the rematch screen.
		_ = m.sender.Send(opponent, domain.NewEvent(r.GameType+":rematch_declined", map[string]string{"from": leaver}))
	}

	m.remove(r.ID)
}

// HandleRematchRequest records one occupant's rematch wish; when both
// have asked, the same room restarts with a fresh board and both get a
// new "<game>:game_start". Returns false when the sender has no live
// room, such as a rematch request after a forfeit destroyed it.
func (m *Manager) HandleRematchRequest(username string) bool {
	r, ok := m.RoomOf(username)
	if !ok {
		return false
	}

	bothAgreed, err := r.requestRematch(username)
	if err != nil {
		_ = m.sender.Send(username, r.errorEvent(err))
		return true
	}

	if !bothAgreed {
		log.Printf("[REMATCH] %s wants a rematch in %s", username, r.ID)
		_ = m.sender.Send(username, domain.NewEvent(r.GameType+":waiting_rematch", nil))
		_ = m.sender.Send(r.Opponent(username), domain.NewEvent(r.GameType+":rematch_requested", nil))
		return true
	}

	log.Printf("[REMATCH] Restarting %s", r.ID)
	for _, p := range r.Players() {
		_ = m.sender.Send(p.Username, r.startEventFor(p.Username))
	}
	return true
}

// HandleChat relays a free-text message to both occupants.
func (m *Manager) HandleChat(username, message string) {
	r, ok := m.RoomOf(username)
	if !ok || message == "" {
		return
	}

	event := domain.NewEvent("chat:new_room_message", chatPayload{
		Sender:    username,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	for _, p := range r.Players() {
		_ = m.sender.Send(p.Username, event)
	}
}

func (m *Manager) remove(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return
	}

	log.Printf("[ROOM] Removing %s", roomID)
	for _, p := range r.players {
		if m.userRoom[p.Username] == roomID {
			delete(m.userRoom, p.Username)
		}
	}
	delete(m.rooms, roomID)
}
