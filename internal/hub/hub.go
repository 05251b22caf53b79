// Package hub routes inbound WebSocket envelopes to the right handler.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
	"github.com/spck/arcade-backend/internal/matchmaking"
	"github.com/spck/arcade-backend/internal/presence"
	"github.com/spck/arcade-backend/internal/registry"
	"github.com/spck/arcade-backend/internal/room"
)

// ChatStore persists direct messages so they survive the recipient being
// offline.
type ChatStore interface {
	SaveDirectMessage(ctx context.Context, sender, recipient, message string) error
}

// Dispatcher fans "domain:action" envelopes out to matchmaking, rooms,
// presence and chat. One Dispatch call per inbound message, invoked from
// the connection's read loop.
type Dispatcher struct {
	registry *registry.Registry
	queue    *matchmaking.Queue
	rooms    *room.Manager
	presence *presence.Notifier
	engines  *engine.Registry
	chat     ChatStore
}

func NewDispatcher(reg *registry.Registry, queue *matchmaking.Queue, rooms *room.Manager, presence *presence.Notifier, engines *engine.Registry, chat ChatStore) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		queue:    queue,
		rooms:    rooms,
		presence: presence,
		engines:  engines,
		chat:     chat,
	}
}

type findMatchPayload struct {
	MatchmakingID string `json:"matchmakingId"`
}

type waitingPayload struct {
	MatchmakingID string `json:"matchmakingId"`
}

type invitePayload struct {
	To       string `json:"to"`
	GameType string `json:"gameType"`
}

type inviteReceivedPayload struct {
	From     string `json:"from"`
	GameType string `json:"gameType"`
}

type inviteReplyPayload struct {
	InviterUsername string `json:"inviterUsername"`
	GameType        string `json:"gameType"`
}

type dmPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type dmReceivedPayload struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type roomMessagePayload struct {
	Message string `json:"message"`
}

// Dispatch parses one raw envelope from username's connection and routes
// it. Malformed or unknown messages are logged and dropped; they never
// kill the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, username string, raw []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[HUB] Malformed message from %s: %v", username, err)
		return
	}

	prefix, action, ok := strings.Cut(env.Type, ":")
	if !ok {
		log.Printf("[HUB] Unroutable message type %q from %s", env.Type, username)
		_ = d.registry.Send(username, domain.ErrorEvent("error", fmt.Errorf("unroutable message type %q", env.Type)))
		return
	}

	// Game-scoped actions carry the game type as the prefix
	// ("caro:move", "tictac:find_match", ...).
	if d.engines.Has(prefix) {
		d.dispatchGame(username, prefix, action, env.Payload)
		return
	}

	switch env.Type {
	case "friend:get_online_list":
		d.presence.HandleOnlineListRequest(ctx, username)
	case "game:leave":
		d.rooms.HandleLeave(username)
	case "game:invite":
		d.handleInvite(username, env.Payload)
	case "game:invite_accepted":
		d.handleInviteAccepted(username, env.Payload)
	case "game:invite_declined":
		d.handleInviteDeclined(username, env.Payload)
	case "chat:dm":
		d.handleDirectMessage(ctx, username, env.Payload)
	case "chat:room_message":
		d.handleRoomMessage(username, env.Payload)
	default:
		log.Printf("[HUB] Unknown message type %q from %s", env.Type, username)
		_ = d.registry.Send(username, domain.ErrorEvent("error", fmt.Errorf("unknown message type %q", env.Type)))
	}
}

func (d *Dispatcher) dispatchGame(username, gameType, action string, payload json.RawMessage) {
	switch action {
	case "find_match":
		d.handleFindMatch(username, gameType, payload)
	case "leave_lobby":
		d.queue.Leave(username, gameType)
	case "move":
		if !d.rooms.HandleMove(username, payload) {
			_ = d.registry.Send(username, domain.ErrorEvent(gameType+":error", domain.ErrNotInRoom))
		}
	case "request_rematch":
		if !d.rooms.HandleRematchRequest(username) {
			_ = d.registry.Send(username, domain.ErrorEvent(gameType+":error", domain.ErrNotInRoom))
		}
	default:
		log.Printf("[HUB] Unknown %s action %q from %s", gameType, action, username)
		_ = d.registry.Send(username, domain.ErrorEvent(gameType+":error", fmt.Errorf("unknown action %q", action)))
	}
}

func (d *Dispatcher) handleFindMatch(username, gameType string, payload json.RawMessage) {
	if d.rooms.InRoom(username) {
		_ = d.registry.Send(username, domain.ErrorEvent(gameType+":error", domain.ErrAlreadyInRoom))
		return
	}

	var body findMatchPayload
	_ = json.Unmarshal(payload, &body)

	pairing, ticket := d.queue.FindMatch(username, gameType, body.MatchmakingID)
	if pairing == nil {
		_ = d.registry.Send(username, domain.NewEvent(gameType+":waiting", waitingPayload{MatchmakingID: ticket.TicketID}))
		return
	}

	// The head of the pool waited longest and gets the first move.
	if _, err := d.rooms.Create(pairing.GameType, pairing.First.Username, pairing.Second.Username); err != nil {
		log.Printf("[HUB] Failed to start %s match: %v", gameType, err)
		// Whoever lost the race keeps their place; the busy side gets
		// the error.
		for _, t := range []matchmaking.Ticket{pairing.First, pairing.Second} {
			if d.rooms.InRoom(t.Username) {
				_ = d.registry.Send(t.Username, domain.ErrorEvent(gameType+":error", err))
				continue
			}
			d.queue.Requeue(t)
			_ = d.registry.Send(t.Username, domain.NewEvent(gameType+":waiting", waitingPayload{MatchmakingID: t.TicketID}))
		}
		return
	}

	// A ticket is done once its owner is in a room, including tickets
	// they left in other game pools.
	d.queue.RemoveAll(pairing.First.Username)
	d.queue.RemoveAll(pairing.Second.Username)
}

func (d *Dispatcher) handleInvite(username string, payload json.RawMessage) {
	var body invitePayload
	if err := json.Unmarshal(payload, &body); err != nil || body.To == "" {
		return
	}

	switch {
	case body.To == username:
		_ = d.registry.Send(username, domain.ErrorEvent("game:error", domain.ErrSelfMatch))
	case !d.engines.Has(body.GameType):
		_ = d.registry.Send(username, domain.ErrorEvent("game:error", domain.ErrUnknownGameType))
	case d.rooms.InRoom(username):
		_ = d.registry.Send(username, domain.ErrorEvent("game:error", domain.ErrAlreadyInRoom))
	case !d.registry.IsOnline(body.To):
		_ = d.registry.Send(username, domain.ErrorEvent("game:error", domain.ErrTargetOffline))
	default:
		_ = d.registry.Send(body.To, domain.NewEvent("game:invite_received", inviteReceivedPayload{
			From:     username,
			GameType: body.GameType,
		}))
	}
}

// handleInviteAccepted starts the game with the inviter moving first. An
// invite can go stale between send and accept (inviter disconnected or
// started another game); the accepter gets an error instead of a room.
func (d *Dispatcher) handleInviteAccepted(username string, payload json.RawMessage) {
	var body inviteReplyPayload
	if err := json.Unmarshal(payload, &body); err != nil || body.InviterUsername == "" {
		return
	}

	if !d.registry.IsOnline(body.InviterUsername) {
		_ = d.registry.Send(username, domain.ErrorEvent("game:error", domain.ErrTargetOffline))
		return
	}

	if _, err := d.rooms.Create(body.GameType, body.InviterUsername, username); err != nil {
		log.Printf("[HUB] Stale invite accept from %s: %v", username, err)
		_ = d.registry.Send(username, domain.ErrorEvent("game:error", err))
		return
	}

	d.queue.RemoveAll(body.InviterUsername)
	d.queue.RemoveAll(username)
}

func (d *Dispatcher) handleInviteDeclined(username string, payload json.RawMessage) {
	var body inviteReplyPayload
	if err := json.Unmarshal(payload, &body); err != nil || body.InviterUsername == "" {
		return
	}

	_ = d.registry.Send(body.InviterUsername, domain.NewEvent("game:invite_declined", map[string]string{"from": username}))
}

// handleDirectMessage persists the message and relays it to the
// recipient if they are online. Persistence failure is logged but the
// live relay still happens.
func (d *Dispatcher) handleDirectMessage(ctx context.Context, username string, payload json.RawMessage) {
	var body dmPayload
	if err := json.Unmarshal(payload, &body); err != nil || body.To == "" || body.Message == "" {
		return
	}

	if err := d.chat.SaveDirectMessage(ctx, username, body.To, body.Message); err != nil {
		log.Printf("[HUB] Failed to persist DM %s -> %s: %v", username, body.To, err)
	}

	_ = d.registry.Send(body.To, domain.NewEvent("chat:new_dm", dmReceivedPayload{
		From:      username,
		Message:   body.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}

func (d *Dispatcher) handleRoomMessage(username string, payload json.RawMessage) {
	var body roomMessagePayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return
	}

	d.rooms.HandleChat(username, body.Message)
}
