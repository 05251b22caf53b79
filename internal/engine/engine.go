// Package engine defines the pluggable game-engine adapter: given a board
// and a move by one side it produces the next board and a verdict. The
// session core never knows any game's rules.
package engine

import (
	"encoding/json"
	"fmt"
)

// Side identifies one of the two players inside a board. The first-mover
// is always SideX.
type Side string

const (
	SideNone Side = ""
	SideX    Side = "X"
	SideO    Side = "O"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideX {
		return SideO
	}
	return SideX
}

// Board is opaque state owned by the engine that produced it. It must be
// JSON-marshallable because room snapshots carry it to clients.
type Board any

// Verdict is the engine's judgement after an accepted move.
type Verdict struct {
	Terminal    bool
	Winner      Side  // SideNone for draw or ongoing
	Draw        bool
	WinningLine []int // cell indices of the winning run, if any
}

// Engine validates moves and advances board state for one game type.
type Engine interface {
	// GameType is the wire identifier ("caro") used as event prefix and
	// room id prefix.
	GameType() string
	// GameName is the display name recorded in history entries.
	GameName() string
	// ImageSrc is the thumbnail recorded in history entries.
	ImageSrc() string
	// InitialBoard returns a fresh board for a new game.
	InitialBoard() Board
	// ApplyMove validates and applies a move. The returned board is the
	// updated state; on rejection the original board is unchanged and an
	// error describes why.
	ApplyMove(board Board, side Side, move json.RawMessage) (Board, Verdict, error)
}

// Registry maps gameType to its engine. Populated once at startup.
type Registry struct {
	engines map[string]Engine
}

func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine)}
	for _, e := range engines {
		r.engines[e.GameType()] = e
	}
	return r
}

// Lookup returns the engine for a game type.
func (r *Registry) Lookup(gameType string) (Engine, error) {
	e, ok := r.engines[gameType]
	if !ok {
		return nil, fmt.Errorf("unknown game type %q", gameType)
	}
	return e, nil
}

// Has reports whether a game type is registered.
func (r *Registry) Has(gameType string) bool {
	_, ok := r.engines[gameType]
	return ok
}
