package search

import (
	"math"

	"github.com/corvidchess/corvid/pkg/board"
)

// Move score bonuses used to build a board.MovePriorityFn for the main search and for
// quiescence. Higher sorts first. Scaled to stay well within board.MovePriority's int16
// range: the transposition-table move itself is not scored here at all -- callers wrap
// the returned function with board.First, which always ranks it above every bucket
// below by returning math.MaxInt16.
const (
	promotionBonus board.MovePriority = 20_000
	captureBonus   board.MovePriority = 10_000
	killer0Bonus   board.MovePriority = 9_000
	killer1Bonus   board.MovePriority = 8_500
	// historyClamp bounds the history heuristic's contribution so it can never be
	// mistaken for a killer or capture bucket.
	historyClamp board.MovePriority = 8_000
)

// mvvLVA scores a capture by Most-Valuable-Victim/Least-Valuable-Attacker: prefer
// capturing the richest piece with the cheapest one. For every attacker but the king the
// range (at most 8,900) stays inside the capture bucket without spilling into the
// promotion bucket above it; the king's value of 20,000 puts king captures below it.
func mvvLVA(victim, attacker board.Piece) board.MovePriority {
	return board.MovePriority(victim.Value()*10 - attacker.Value())
}

// orderingFn builds the priority function used to sort a position's pseudo-legal move
// list for the main search: promotions and captures by MVV-LVA (capture-promotions earn
// both bonuses, capped just below math.MaxInt16), then this ply's killer moves, then everything else by clamped history
// score. Wrap the result in board.First to additionally prioritize the transposition
// table's suggested move.
func orderingFn(killers [2]board.Move, hist *historyTable, turn board.Color) board.MovePriorityFn {
	return func(m board.Move) board.MovePriority {
		var p board.MovePriority
		if m.IsPromotion() {
			p += board.MovePriority(m.Promotion.Value()) + promotionBonus
		}
		if m.IsCapture() {
			// Summed in int: a capture-promotion's two bonuses exceed int16.
			sum := int(p) + int(captureBonus) + int(mvvLVA(m.Capture, m.Piece))
			if sum > math.MaxInt16-1 {
				sum = math.MaxInt16 - 1
			}
			return board.MovePriority(sum)
		}

		switch {
		case killers[0].Equals(m):
			return p + killer0Bonus
		case killers[1].Equals(m):
			return p + killer1Bonus
		default:
			return p + clampHistory(hist.get(turn, m))
		}
	}
}

func clampHistory(v int32) board.MovePriority {
	switch {
	case v > int32(historyClamp):
		return historyClamp
	case v < -int32(historyClamp):
		return -historyClamp
	default:
		return board.MovePriority(v)
	}
}

// captureOrderingFn orders quiescence search's capture-only move lists by MVV-LVA.
func captureOrderingFn() board.MovePriorityFn {
	return func(m board.Move) board.MovePriority {
		return mvvLVA(m.Capture, m.Piece)
	}
}
