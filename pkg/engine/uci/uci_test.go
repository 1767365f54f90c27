package uci

import (
	"testing"
	"time"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/score"
	"github.com/corvidchess/corvid/pkg/search"
	"github.com/stretchr/testify/assert"
)

func TestPrintMoveIsLowercase(t *testing.T) {
	m := board.Move{From: board.E2, To: board.E4}
	assert.Equal(t, "e2e4", printMove(m))
}

func TestPrintMoveIncludesPromotion(t *testing.T) {
	m := board.Move{From: board.A7, To: board.A8, Promotion: board.Queen}
	assert.Equal(t, "a7a8q", printMove(m))
}

func TestPrintPVScoreCp(t *testing.T) {
	pv := search.PV{Depth: 4, Score: score.CP(214), Nodes: 2124, Time: 1242 * time.Millisecond}
	assert.Contains(t, printPV(pv), "score cp 214")
	assert.Contains(t, printPV(pv), "depth 4")
	assert.Contains(t, printPV(pv), "nodes 2124")
}

func TestPrintPVScoreMate(t *testing.T) {
	pv := search.PV{Depth: 3, Score: score.MateIn(1)}
	assert.Contains(t, printPV(pv), "score mate 1")
}

func TestHandleSetOptionIgnoredOptions(t *testing.T) {
	d := &Driver{out: make(chan string, 1)}
	// SetHash/SetBook require a live *engine.Engine; verify name/value splitting alone by
	// exercising the no-op branches that don't touch d.e.
	d.handleSetOption([]string{"name", "Move", "Overhead", "value", "100"})
	d.handleSetOption([]string{"name", "UCI_ShowWDL", "value", "true"})
}
