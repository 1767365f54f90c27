package search

import (
	"testing"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/stretchr/testify/assert"
)

func TestKillerTableStoreAndGet(t *testing.T) {
	tbl := newKillerTable()
	ply := 5

	mv1 := board.Move{From: board.E2, To: board.E4}
	mv2 := board.Move{From: board.D2, To: board.D4}
	mv3 := board.Move{From: board.G1, To: board.F3}

	tbl.store(ply, mv1)
	k := tbl.get(ply)
	assert.True(t, k[0].Equals(mv1))
	assert.False(t, k[1].Equals(mv1))

	tbl.store(ply, mv2)
	k = tbl.get(ply)
	assert.True(t, k[0].Equals(mv2))
	assert.True(t, k[1].Equals(mv1))

	tbl.store(ply, mv3)
	k = tbl.get(ply)
	assert.True(t, k[0].Equals(mv3))
	assert.True(t, k[1].Equals(mv2))

	// Storing the same top killer again should not shift anything.
	tbl.store(ply, mv3)
	k = tbl.get(ply)
	assert.True(t, k[0].Equals(mv3))
	assert.True(t, k[1].Equals(mv2))
}

func TestKillerTableClear(t *testing.T) {
	tbl := newKillerTable()
	tbl.store(3, board.Move{From: board.E2, To: board.E4})
	tbl.clear()

	k := tbl.get(3)
	assert.True(t, k[0].Equals(board.Move{}))
}
