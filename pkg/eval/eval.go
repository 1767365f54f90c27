// Package eval contains static position evaluation: a classical hand-crafted evaluator
// (HCE) and an NNUE evaluator, behind a common Evaluator interface so the search tree
// never needs to know which one it is driving.
package eval

import (
	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/score"
)

// Evaluator is a static position evaluator with optional incremental state. Evaluate
// returns the score from the perspective of the side to move: positive favors the mover.
//
// Search drives the incremental methods directly from make/unmake: before descending into
// a child node it clones the evaluator (so sibling subtrees never share state) and calls
// UpdateMove with the board as it stood before the move. If UpdateMove reports false, the
// caller must call Refresh against the board as it stands after the move before the next
// Evaluate. A stateless evaluator (HCE) implements all three as no-ops.
type Evaluator interface {
	Evaluate(b *board.Board) score.Score

	// UpdateMove mutates the evaluator's state by the feature-delta of m, played against
	// before. Returns false if the delta cannot be applied incrementally and a Refresh
	// against the resulting position is required first.
	UpdateMove(before *board.Board, m board.Move) bool

	// Refresh rebuilds the evaluator's state from scratch for b.
	Refresh(b *board.Board)

	// Clone returns an independent copy, so a child search node's updates never affect
	// its parent's or siblings' state.
	Clone() Evaluator
}

// Relative converts a white-relative centipawn evaluation into a side-to-move-relative
// Score, the convention negamax search requires throughout the tree.
func Relative(turn board.Color, whiteCP int) score.Score {
	return score.CP(whiteCP * turn.Unit())
}
