// Package matchmaking pairs waiting players per game type.
package matchmaking

import (
	"log"
	"sync"
)

// Ticket is one outstanding matchmaking request.
type Ticket struct {
	Username string
	GameType string
	TicketID string
}

// Pairing is the result of two tickets meeting. First waited longest and
// is assigned the first move.
type Pairing struct {
	GameType string
	First    Ticket
	Second   Ticket
}

// Queue holds per-gameType FIFO pools of waiting tickets. All pairing
// decisions happen under one mutex so two concurrent FindMatch calls can
// never pop the same ticket or double-match an identity.
type Queue struct {
	mu      sync.Mutex
	waiting map[string][]Ticket // gameType → FIFO of tickets
}

func NewQueue() *Queue {
	return &Queue{waiting: make(map[string][]Ticket)}
}

// FindMatch either pairs the requester with the head of the pool or
// enqueues a new ticket. Returns the pairing when a match was formed, or
// the queued ticket otherwise. A duplicate request from an identity that
// is already waiting leaves the original ticket in place (idempotent)
// and returns it.
func (q *Queue) FindMatch(username, gameType, ticketID string) (*Pairing, Ticket) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pool := q.waiting[gameType]

	for _, t := range pool {
		if t.Username == username {
			return nil, t // already waiting, keep the original ticket
		}
	}

	if len(pool) > 0 {
		head := pool[0]
		q.waiting[gameType] = pool[1:]

		log.Printf("[QUEUE] Paired %s with %s for %s", head.Username, username, gameType)
		return &Pairing{
			GameType: gameType,
			First:    head,
			Second:   Ticket{Username: username, GameType: gameType, TicketID: ticketID},
		}, Ticket{}
	}

	ticket := Ticket{Username: username, GameType: gameType, TicketID: ticketID}
	q.waiting[gameType] = append(pool, ticket)
	log.Printf("[QUEUE] %s waiting for %s match", username, gameType)
	return nil, ticket
}

// Leave removes any outstanding ticket for username in gameType; no
// error if none exists.
func (q *Queue) Leave(username, gameType string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(username, gameType)
}

// Requeue puts a ticket back at the head of its pool, ahead of later
// arrivals. Used when a pairing could not start a room and the side
// that was not at fault should not lose its place in line.
func (q *Queue) Requeue(t Ticket) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(t.Username, t.GameType)
	q.waiting[t.GameType] = append([]Ticket{t}, q.waiting[t.GameType]...)
	log.Printf("[QUEUE] %s back at the head of the %s pool", t.Username, t.GameType)
}

// RemoveAll clears username's tickets from every pool (disconnect path).
func (q *Queue) RemoveAll(username string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for gameType := range q.waiting {
		q.removeLocked(username, gameType)
	}
}

// Waiting reports how many tickets are pooled for a game type.
func (q *Queue) Waiting(gameType string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.waiting[gameType])
}

func (q *Queue) removeLocked(username, gameType string) {
	pool := q.waiting[gameType]
	for i, t := range pool {
		if t.Username == username {
			q.waiting[gameType] = append(pool[:i], pool[i+1:]...)
			log.Printf("[QUEUE] %s left the %s pool", username, gameType)
			return
		}
	}
}
