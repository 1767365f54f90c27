package search

import (
	"testing"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) *board.Position {
	t.Helper()
	pos, _, _, _, err := fen.Decode(s)
	require.NoError(t, err)
	return pos
}

func TestSeeUndefendedCapture(t *testing.T) {
	// White rook takes an undefended knight: wins a full knight, nothing to recapture with.
	pos := mustDecode(t, "4k3/8/8/8/3n4/8/8/3RK3 w - - 0 1")
	m := board.Move{Type: board.Capture, From: board.D1, To: board.D4, Piece: board.Rook, Capture: board.Knight}

	assert.Equal(t, seeValues[board.Knight], see(pos, board.White, m, board.Knight))
}

func TestSeeLosingCapture(t *testing.T) {
	// White rook takes a pawn defended by a black pawn: loses the rook for a pawn.
	pos := mustDecode(t, "4k3/8/2p1p3/3p4/8/8/8/3RK3 w - - 0 1")
	m := board.Move{Type: board.Capture, From: board.D1, To: board.D5, Piece: board.Rook, Capture: board.Pawn}

	assert.Equal(t, seeValues[board.Pawn]-seeValues[board.Rook], see(pos, board.White, m, board.Pawn))
}

func TestSeeGEThreshold(t *testing.T) {
	pos := mustDecode(t, "4k3/8/2p1p3/3p4/8/8/8/3RK3 w - - 0 1")
	m := board.Move{Type: board.Capture, From: board.D1, To: board.D5, Piece: board.Rook, Capture: board.Pawn}

	assert.False(t, seeGE(pos, board.White, m, board.Pawn, 0))
	assert.True(t, seeGE(pos, board.White, m, board.Pawn, seeValues[board.Pawn]-seeValues[board.Rook]))
}

func TestSeeEqualTrade(t *testing.T) {
	// White pawn takes black pawn, recaptured in kind by a second black pawn: an even trade.
	pos := mustDecode(t, "4k3/8/2p5/3p4/4P3/8/8/4K3 w - - 0 1")
	m := board.Move{Type: board.Capture, From: board.E4, To: board.D5, Piece: board.Pawn, Capture: board.Pawn}

	assert.Equal(t, 0, see(pos, board.White, m, board.Pawn))
}

func TestSeeMultipleRecaptures(t *testing.T) {
	// White rook takes a knight defended by a pawn, which is in turn defended by a
	// second white rook: white nets knight+pawn for one rook.
	pos := mustDecode(t, "4k3/8/2p5/3n4/8/8/3R4/3RK3 w - - 0 1")
	m := board.Move{Type: board.Capture, From: board.D2, To: board.D5, Piece: board.Rook, Capture: board.Knight}

	expected := seeValues[board.Knight] + seeValues[board.Pawn] - seeValues[board.Rook]
	assert.Equal(t, expected, see(pos, board.White, m, board.Knight))
}
