package search

import "github.com/corvidchess/corvid/pkg/board"

// maxPly bounds the killer table (and any other per-ply state) to a depth no real game
// tree search, including quiescence extension, is expected to exceed.
const maxPly = 128

// numKillers is the number of killer-move slots kept per ply.
const numKillers = 2

// killerTable stores, per ply, the most recent quiet moves that caused a beta cutoff --
// they are likely good again in sibling nodes at the same ply, so move ordering tries
// them early even before the history heuristic is consulted.
type killerTable struct {
	killers [maxPly][numKillers]board.Move
}

func newKillerTable() *killerTable {
	return &killerTable{}
}

// store records mv as the newest killer at ply, shifting the previous top killer down to
// the second slot. A no-op if mv is already the top killer.
func (t *killerTable) store(ply int, mv board.Move) {
	if ply >= maxPly {
		return
	}
	if t.killers[ply][0].Equals(mv) {
		return
	}
	t.killers[ply][1] = t.killers[ply][0]
	t.killers[ply][0] = mv
}

// get returns the two killer moves for ply, zero-valued (and never matching a real move)
// where no killer has been stored yet.
func (t *killerTable) get(ply int) [2]board.Move {
	if ply >= maxPly {
		return [2]board.Move{}
	}
	return t.killers[ply]
}

// clear resets every ply's killers, called at the start of every depth iteration.
func (t *killerTable) clear() {
	for i := range t.killers {
		t.killers[i] = [numKillers]board.Move{}
	}
}
