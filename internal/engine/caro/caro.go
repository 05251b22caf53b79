// Package caro implements the five-in-a-row engine on a 10x10 grid.
package caro

import (
	"encoding/json"
	"fmt"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
)

const (
	Size  = 10
	Cells = Size * Size
	ToWin = 5
)

// Board is a flat 10x10 grid; each cell holds "X", "O" or "".
type Board []string

type move struct {
	Index int `json:"index"`
}

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) GameType() string { return "caro" }
func (e *Engine) GameName() string { return "Caro" }
func (e *Engine) ImageSrc() string { return "/img/caro.jpg" }

func (e *Engine) InitialBoard() engine.Board {
	return make(Board, Cells)
}

func (e *Engine) ApplyMove(board engine.Board, side engine.Side, raw json.RawMessage) (engine.Board, engine.Verdict, error) {
	b, ok := board.(Board)
	if !ok {
		return board, engine.Verdict{}, fmt.Errorf("caro: unexpected board type %T", board)
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

	if line := winningLine(next, m.Index, string(side)); line != nil {
		return next, engine.Verdict{Terminal: true, Winner: side, WinningLine: line}, nil
	}
	if isFull(next) {
		return next, engine.Verdict{Terminal: true, Draw: true}, nil
	}
	return next, engine.Verdict{}, nil
}

func isFull(b Board) bool {
	for _, cell := range b {
		if cell == "" {
			return false
		}
	}
	return true
}

// winningLine checks only the four lines passing through the last move,
// returning the ToWin cell indices when the run is long enough.
func winningLine(b Board, index int, symbol string) []int {
	row, col := index/Size, index%Size

	directions := [4][2]int{
		{0, 1},  // horizontal
		{1, 0},  // vertical
		{1, 1},  // diagonal down-right
		{1, -1}, // diagonal down-left
	}

	for _, d := range directions {
		// walk to the far end of the run, then collect it in order so the
		// returned cells are contiguous.
		r, c := row, col
		for {
			pr, pc := r-d[0], c-d[1]
			if pr < 0 || pr >= Size || pc < 0 || pc >= Size || b[pr*Size+pc] != symbol {
				break
			}
			r, c = pr, pc
		}

		var line []int
		for r >= 0 && r < Size && c >= 0 && c < Size && b[r*Size+c] == symbol {
			line = append(line, r*Size+c)
			r += d[0]
			c += d[1]
		}

		if len(line) >= ToWin {
			return line[:ToWin]
		}
	}
	return nil
}
