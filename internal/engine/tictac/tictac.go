// Package tictac implements the classic 3x3 tic-tac-toe engine.
package tictac

import (
	"encoding/json"
	"fmt"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
)

const (
	Size  = 3
	Cells = Size * Size
)

// Board is a flat 3x3 grid; each cell holds "X", "O" or "".
type Board []string

type move struct {
	Index int `json:"index"`
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) GameType() string { return "tictac" }
func (e *Engine) GameName() string { return "Tic Tac Toe" }
func (e *Engine) ImageSrc() string { return "/img/tictac.jpg" }

func (e *Engine) InitialBoard() engine.Board {
	return make(Board, Cells)
}

func (e *Engine) ApplyMove(board engine.Board, side engine.Side, raw json.RawMessage) (engine.Board, engine.Verdict, error) {
	b, ok := board.(Board)
	if !ok {
		return board, engine.Verdict{}, fmt.Errorf("tictac: unexpected board type %T", board)
	}

	var m move
	if err := json.Unmarshal(raw, &m); err != nil {
		return board, engine.Verdict{}, domain.ErrInvalidMove
	}
	if m.Index < 0 || m.Index >= Cells {
		return board, engine.Verdict{}, domain.ErrInvalidMove
	}
	if b[m.Index] != "" {
		return board, engine.Verdict{}, domain.ErrCellOccupied
	}

	next := make(Board, Cells)
	copy(next, b)
	next[m.Index] = string(side)

	for _, line := range lines {
		if next[line[0]] != "" && next[line[0]] == next[line[1]] && next[line[1]] == next[line[2]] {
			return next, engine.Verdict{Terminal: true, Winner: side, WinningLine: line[:]}, nil
		}
	}

	full := true
	for _, cell := range next {
		if cell == "" {
			full = false
			break
		}
	}
	if full {
		return next, engine.Verdict{Terminal: true, Draw: true}, nil
	}

	return next, engine.Verdict{}, nil
}
