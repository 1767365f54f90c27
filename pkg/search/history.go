package search

import "github.com/corvidchess/corvid/pkg/board"

// historyGravityMax bounds the history heuristic's gravity formula, keeping scores from
// growing unbounded over a long search.
const historyGravityMax = 16384

// historyTable tracks which quiet moves, by color/from/to, have caused beta cutoffs in
// the past, as a move-ordering signal cheaper than re-deriving it from scratch: a move
// that has cut off search before is likely to again, even away from the exact position
// it was first seen in.
type historyTable struct {
	table [board.NumColors][64][64]int32
}

func newHistoryTable() *historyTable {
	return &historyTable{}
}

func (t *historyTable) get(c board.Color, m board.Move) int32 {
	return t.table[c][m.From][m.To]
}

// update applies the gravity formula to the from/to cell: the new score moves toward
// bonus but decays proportionally to its current magnitude, so repeated positive bonuses
// saturate instead of overflowing, and a single large bonus/penalty doesn't dominate
// forever.
func (t *historyTable) update(c board.Color, m board.Move, bonus int32) {
	if bonus > historyGravityMax {
		bonus = historyGravityMax
	} else if bonus < -historyGravityMax {
		bonus = -historyGravityMax
	}

	old := t.table[c][m.From][m.To]
	abs := bonus
	if abs < 0 {
		abs = -abs
	}
	t.table[c][m.From][m.To] = old + bonus - old*abs/historyGravityMax
}

// updateOnCutoff rewards the move that caused a beta cutoff and penalizes the other
// quiet moves already tried at this node, so the heuristic separates "good" quiets from
// "tried and failed" ones rather than only ever reinforcing winners.
func (t *historyTable) updateOnCutoff(c board.Color, best board.Move, depth int, otherQuiets []board.Move) {
	bonus := int32(depth * depth)

	t.update(c, best, bonus)
	for _, m := range otherQuiets {
		if !m.Equals(best) {
			t.update(c, m, -bonus)
		}
	}
}

// age halves every entry, called at the start of a new search so recent games' history
// carries more weight than older ones without being discarded outright.
func (t *historyTable) age() {
	for c := range t.table {
		for f := range t.table[c] {
			for to := range t.table[c][f] {
				t.table[c][f][to] /= 2
			}
		}
	}
}
