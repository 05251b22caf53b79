package room

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
)

// Player binds an identity to its side inside a room.
type Player struct {
	Username string
	Side     engine.Side
}

// Room owns the lifecycle of one match between two identities. All
// mutation goes through its handler methods under mu, so simultaneous
// messages from the two occupants are serialized and exactly one wins.
type Room struct {
	ID       string
	GameType string

	eng     engine.Engine
	players [2]Player // index 0 is the first-mover (SideX)

	mu          sync.Mutex
	board       engine.Board
	turn        string // username allowed to move next
	status      domain.RoomStatus
	winner      engine.Side // side that won; SideNone for draw or ongoing
	winningLine []int
	rematch     map[string]bool // usernames that asked for a rematch
}

func newRoom(id string, eng engine.Engine, first, second string) *Room {
	return &Room{
		ID:       id,
		GameType: eng.GameType(),
		eng:      eng,
		players: [2]Player{
			{Username: first, Side: engine.SideX},
			{Username: second, Side: engine.SideO},
		},
		board:   eng.InitialBoard(),
		turn:    first,
		status:  domain.StatusActive,
		rematch: make(map[string]bool),
	}
}

// Players returns both occupants, first-mover first.
func (r *Room) Players() [2]Player {
	return r.players
}

// Opponent returns the other occupant's username.
func (r *Room) Opponent(username string) string {
	if r.players[0].Username == username {
		return r.players[1].Username
	}
	return r.players[0].Username
}

func (r *Room) player(username string) (Player, bool) {
	for _, p := range r.players {
		if p.Username == username {
			return p, true
		}
	}
	return Player{}, false
}

// Status returns the room's lifecycle state.
func (r *Room) Status() domain.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Turn returns the username allowed to move next.
func (r *Room) Turn() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

// Winner returns the winning username, or "" for a draw or an
// unfinished game.
func (r *Room) Winner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winnerUsernameLocked()
}

// Board returns the current board state.
func (r *Room) Board() engine.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board
}

func (r *Room) winnerUsernameLocked() string {
	for _, p := range r.players {
		if p.Side == r.winner {
			return p.Username
		}
	}
	return ""
}

// moveOutcome captures the results of an accepted move so side effects
// (broadcast, history) can run after the room lock is dropped.
type moveOutcome struct {
	finished bool
	draw     bool
	winner   string // username
	loser    string // username
}

// applyMove validates and applies one move. On rejection the board,
// turn and status are untouched and the error goes back to the sender
// only; nothing is broadcast.
func (r *Room) applyMove(username string, payload json.RawMessage) (moveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.player(username)
	if !ok {
		return moveOutcome{}, domain.ErrNotInRoom
	}
	if r.status != domain.StatusActive {
		return moveOutcome{}, domain.ErrRoomFinished
	}
	if r.turn != username {
		return moveOutcome{}, domain.ErrNotYourTurn
	}

	board, verdict, err := r.eng.ApplyMove(r.board, p.Side, payload)
	if err != nil {
		return moveOutcome{}, err
	}

	r.board = board
	r.turn = r.Opponent(username)

	if !verdict.Terminal {
		return moveOutcome{}, nil
	}

	r.status = domain.StatusFinished
	r.winner = verdict.Winner
	r.winningLine = verdict.WinningLine

	if verdict.Draw {
		return moveOutcome{finished: true, draw: true, winner: r.players[0].Username, loser: r.players[1].Username}, nil
	}
	return moveOutcome{finished: true, winner: username, loser: r.Opponent(username)}, nil
}

// forfeit declares the departing occupant's opponent winner. Returns
// false when the game was already finished, in which case no outcome
// side effects may fire (the invariant is one outcome pair per
// completed game).
func (r *Room) forfeit(leaver string) (moveOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != domain.StatusActive {
		return moveOutcome{}, false
	}

	p, ok := r.player(leaver)
	if !ok {
		return moveOutcome{}, false
	}

	winner := r.Opponent(leaver)
	r.status = domain.StatusFinished
	r.winner = p.Side.Opponent()

	return moveOutcome{finished: true, winner: winner, loser: leaver}, true
}

// requestRematch records one occupant's wish to play again. The room
// returns to a fresh active game only once both occupants have asked;
// the requester cannot confirm their own request.
func (r *Room) requestRematch(username string) (bothAgreed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.player(username); !ok {
		return false, domain.ErrNotInRoom
	}
	if r.status != domain.StatusFinished {
		return false, domain.ErrRoomActive
	}
	if r.rematch[username] {
		return false, domain.ErrRematchPending
	}

	r.rematch[username] = true
	if !r.rematch[r.Opponent(username)] {
		return false, nil
	}

	// Both sides confirmed: same identities, same sides, fresh game.
	r.board = r.eng.InitialBoard()
	r.turn = r.players[0].Username
	r.status = domain.StatusActive
	r.winner = engine.SideNone
	r.winningLine = nil
	r.rematch = make(map[string]bool)
	return true, nil
}

// snapshotFor renders the full room state as one occupant sees it.
func (r *Room) snapshotFor(username string) updatePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotForLocked(username)
}

func (r *Room) snapshotForLocked(username string) updatePayload {
	winner := ""
	if r.status == domain.StatusFinished && r.winner != engine.SideNone {
		winner = string(r.winner)
	}
	return updatePayload{
		Board:       r.board,
		IsMyTurn:    r.status == domain.StatusActive && r.turn == username,
		Status:      r.status,
		Winner:      winner,
		WinningLine: r.winningLine,
	}
}

type startPayload struct {
	RoomID   string       `json:"roomId"`
	Board    engine.Board `json:"board"`
	IsMyTurn bool         `json:"isMyTurn"`
	MySymbol string       `json:"mySymbol"`
	Opponent string       `json:"opponent"`
}

type updatePayload struct {
	Board             engine.Board      `json:"board"`
	IsMyTurn          bool              `json:"isMyTurn"`
	Status            domain.RoomStatus `json:"status"`
	Winner            string            `json:"winner,omitempty"`
	WinningLine       []int             `json:"winningLine,omitempty"`
	DisconnectMessage string            `json:"disconnectMessage,omitempty"`
}

func (r *Room) startEventFor(username string) domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, _ := r.player(username)
	return domain.NewEvent(r.GameType+":game_start", startPayload{
		RoomID:   r.ID,
		Board:    r.board,
		IsMyTurn: r.turn == username,
		MySymbol: string(p.Side),
		Opponent: r.Opponent(username),
	})
}

func (r *Room) errorEvent(err error) domain.Event {
	return domain.ErrorEvent(r.GameType+":error", err)
}

func (r *Room) String() string {
	return fmt.Sprintf("%s[%s vs %s]", r.ID, r.players[0].Username, r.players[1].Username)
}
