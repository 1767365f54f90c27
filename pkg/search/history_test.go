package search

import (
	"testing"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/stretchr/testify/assert"
)

func TestHistoryTableGravity(t *testing.T) {
	tbl := newHistoryTable()
	mv := board.Move{From: board.E2, To: board.E4}

	tbl.update(board.White, mv, 1000)
	first := tbl.get(board.White, mv)
	assert.Equal(t, int32(1000), first)

	// A second positive bonus grows the score, but by less than the raw bonus due to
	// the gravity term pulling it back toward zero.
	tbl.update(board.White, mv, 1000)
	second := tbl.get(board.White, mv)
	assert.Greater(t, second, first)
	assert.Less(t, second-first, int32(1000))
}

func TestHistoryTableClampsExtremes(t *testing.T) {
	tbl := newHistoryTable()
	mv := board.Move{From: board.E2, To: board.E4}

	for i := 0; i < 1000; i++ {
		tbl.update(board.White, mv, 1_000_000)
	}
	assert.LessOrEqual(t, tbl.get(board.White, mv), int32(historyGravityMax))
}

func TestHistoryTableUpdateOnCutoff(t *testing.T) {
	tbl := newHistoryTable()
	best := board.Move{From: board.E2, To: board.E4}
	other := board.Move{From: board.D2, To: board.D4}

	tbl.updateOnCutoff(board.White, best, 4, []board.Move{best, other})

	assert.Positive(t, tbl.get(board.White, best))
	assert.Negative(t, tbl.get(board.White, other))
}

func TestHistoryTableAge(t *testing.T) {
	tbl := newHistoryTable()
	mv := board.Move{From: board.E2, To: board.E4}

	tbl.update(board.White, mv, 1000)
	before := tbl.get(board.White, mv)

	tbl.age()
	assert.Equal(t, before/2, tbl.get(board.White, mv))
}
