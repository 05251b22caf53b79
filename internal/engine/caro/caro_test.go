package caro_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
	"github.com/spck/arcade-backend/internal/engine/caro"
)

func moveAt(index int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"index":%d}`, index))
}

func TestApplyMoveRejections(t *testing.T) {
	e := caro.New()
	board := e.InitialBoard()

	_, _, err := e.ApplyMove(board, engine.SideX, moveAt(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	_, _, err = e.ApplyMove(board, engine.SideX, moveAt(caro.Cells))
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	_, _, err = e.ApplyMove(board, engine.SideX, json.RawMessage(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	board, _, err = e.ApplyMove(board, engine.SideX, moveAt(0))
	require.NoError(t, err)

	_, _, err = e.ApplyMove(board, engine.SideO, moveAt(0))
	assert.ErrorIs(t, err, domain.ErrCellOccupied)
}

func TestApplyMoveDoesNotMutateInput(t *testing.T) {
	e := caro.New()
	board := e.InitialBoard()

	next, _, err := e.ApplyMove(board, engine.SideX, moveAt(5))
	require.NoError(t, err)

	assert.Equal(t, "", board.(caro.Board)[5])
	assert.Equal(t, "X", next.(caro.Board)[5])
}

func TestHorizontalWin(t *testing.T) {
	e := caro.New()
	board := e.InitialBoard()

	// X plays 0..4 on row 0, O fills row 5.
	var verdict engine.Verdict
	var err error
	for i := 0; i < 5; i++ {
		board, verdict, err = e.ApplyMove(board, engine.SideX, moveAt(i))
		require.NoError(t, err)
		if i < 4 {
			require.False(t, verdict.Terminal)
			board, _, err = e.ApplyMove(board, engine.SideO, moveAt(50+i))
			require.NoError(t, err)
		}
	}

	assert.True(t, verdict.Terminal)
	assert.Equal(t, engine.SideX, verdict.Winner)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, verdict.WinningLine)
}

func TestDiagonalWinWithMiddleMoveLast(t *testing.T) {
	e := caro.New()
	board := e.InitialBoard()

	// Diagonal cells 0, 11, 33, 44 first, 22 last: the run must still be
	// detected and reported in order.
	for _, i := range []int{0, 11, 33, 44} {
		var err error
		board, _, err = e.ApplyMove(board, engine.SideX, moveAt(i))
		require.NoError(t, err)
	}

	_, verdict, err := e.ApplyMove(board, engine.SideX, moveAt(22))
	require.NoError(t, err)
	assert.True(t, verdict.Terminal)
	assert.Equal(t, engine.SideX, verdict.Winner)
	assert.Equal(t, []int{0, 11, 22, 33, 44}, verdict.WinningLine)
}

func TestVerticalWin(t *testing.T) {
	e := caro.New()
	board := e.InitialBoard()

	for _, i := range []int{3, 13, 23, 33} {
		var err error
		board, _, err = e.ApplyMove(board, engine.SideO, moveAt(i))
		require.NoError(t, err)
	}

	_, verdict, err := e.ApplyMove(board, engine.SideO, moveAt(43))
	require.NoError(t, err)
	assert.True(t, verdict.Terminal)
	assert.Equal(t, engine.SideO, verdict.Winner)
	assert.Equal(t, []int{3, 13, 23, 33, 43}, verdict.WinningLine)
}

func TestFourInARowIsNotTerminal(t *testing.T) {
	e := caro.New()
	board := e.InitialBoard()

	var verdict engine.Verdict
	for _, i := range []int{0, 1, 2, 3} {
		var err error
		board, verdict, err = e.ApplyMove(board, engine.SideX, moveAt(i))
		require.NoError(t, err)
	}
	assert.False(t, verdict.Terminal)
}
