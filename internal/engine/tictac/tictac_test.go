package tictac_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
	"github.com/spck/arcade-backend/internal/engine/tictac"
)

func moveAt(index int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"index":%d}`, index))
}

func playAll(t *testing.T, e *tictac.Engine, moves []struct {
	side  engine.Side
	index int
}) (engine.Board, engine.Verdict) {
	t.Helper()
	board := e.InitialBoard()
	var verdict engine.Verdict
	var err error
	for _, m := range moves {
		board, verdict, err = e.ApplyMove(board, m.side, moveAt(m.index))
		require.NoError(t, err)
	}
	return board, verdict
}

func TestRowWin(t *testing.T) {
	e := tictac.New()
	_, verdict := playAll(t, e, []struct {
		side  engine.Side
		index int
	}{
		{engine.SideX, 0}, {engine.SideO, 3},
		{engine.SideX, 1}, {engine.SideO, 4},
		{engine.SideX, 2},
	})

	assert.True(t, verdict.Terminal)
	assert.Equal(t, engine.SideX, verdict.Winner)
	assert.Equal(t, []int{0, 1, 2}, verdict.WinningLine)
}

func TestDiagonalWin(t *testing.T) {
	e := tictac.New()
	_, verdict := playAll(t, e, []struct {
		side  engine.Side
		index int
	}{
		{engine.SideO, 0}, {engine.SideX, 1},
		{engine.SideO, 4}, {engine.SideX, 2},
		{engine.SideO, 8},
	})

	assert.True(t, verdict.Terminal)
	assert.Equal(t, engine.SideO, verdict.Winner)
	assert.Equal(t, []int{0, 4, 8}, verdict.WinningLine)
}

func TestDraw(t *testing.T) {
	e := tictac.New()
	// X O X / X O O / O X X — no three in a row anywhere.
	_, verdict := playAll(t, e, []struct {
		side  engine.Side
		index int
	}{
		{engine.SideX, 0}, {engine.SideO, 1},
		{engine.SideX, 2}, {engine.SideO, 4},
		{engine.SideX, 3}, {engine.SideO, 5},
		{engine.SideX, 7}, {engine.SideO, 6},
		{engine.SideX, 8},
	})

	assert.True(t, verdict.Terminal)
	assert.True(t, verdict.Draw)
	assert.Equal(t, engine.SideNone, verdict.Winner)
}

func TestOccupiedCell(t *testing.T) {
	e := tictac.New()
	board, _, err := e.ApplyMove(e.InitialBoard(), engine.SideX, moveAt(4))
	require.NoError(t, err)

	_, _, err = e.ApplyMove(board, engine.SideO, moveAt(4))
	assert.ErrorIs(t, err, domain.ErrCellOccupied)
}
