// Package registry tracks the single live connection per identity.
package registry

import (
	"sync"

	"github.com/spck/arcade-backend/internal/domain"
)

// Conn is the subset of *websocket.Conn the registry needs. Narrowed to
// an interface so tests can register fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Registry maps a username to its live connection. A newer connection
// for the same username replaces the older one (last write wins); the
// replaced handle is evicted from lookup but not force-closed here.
type Registry struct {
	connections map[string]Conn

	// writeMu ensures only one goroutine writes to a specific socket at
	// a time; gorilla's WriteJSON is not safe for concurrent writers.
	writeMu map[string]*sync.Mutex

	mu sync.RWMutex // protects the maps themselves
}

func New() *Registry {
	return &Registry{
		connections: make(map[string]Conn),
		writeMu:     make(map[string]*sync.Mutex),
	}
}

// Register maps username to conn, replacing any previous mapping.
func (r *Registry) Register(username string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[username] = conn
	r.writeMu[username] = &sync.Mutex{}
}

// Unregister removes the mapping; no-op if absent.
func (r *Registry) Unregister(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.connections, username)
	delete(r.writeMu, username)
}

// UnregisterIfMatching removes the mapping only when it still points at
// conn, so tearing down an old connection never evicts its replacement.
func (r *Registry) UnregisterIfMatching(username string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, exists := r.connections[username]; exists && current == conn {
		delete(r.connections, username)
		delete(r.writeMu, username)
	}
}

// Lookup returns the live connection for username, if any.
func (r *Registry) Lookup(username string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[username]
	return conn, exists
}

// IsOnline reports whether username has a live connection.
func (r *Registry) IsOnline(username string) bool {
	_, online := r.Lookup(username)
	return online
}

// Send delivers an event to one username. Absent or broken connections
// are not an error for the caller's game logic; the returned error is
// informational only.
func (r *Registry) Send(username string, event domain.Event) error {
	r.mu.RLock()
	conn, exists := r.connections[username]
	mu, muExists := r.writeMu[username]
	r.mu.RUnlock()

	if !exists || !muExists {
		return nil // user offline, best effort
	}

	mu.Lock()
	defer mu.Unlock()
	return conn.WriteJSON(event)
}

// Broadcast best-effort delivers an event to each listed username,
// silently skipping anyone without a live connection.
func (r *Registry) Broadcast(usernames []string, event domain.Event) {
	for _, username := range usernames {
		_ = r.Send(username, event)
	}
}

// Online filters usernames down to those with a live connection.
func (r *Registry) Online(usernames []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	online := make([]string, 0, len(usernames))
	for _, username := range usernames {
		if _, exists := r.connections[username]; exists {
			online = append(online, username)
		}
	}
	return online
}
