package eval

import (
	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/eval/nnue"
	"github.com/corvidchess/corvid/pkg/score"
)

// NNUE adapts a loaded network and its incremental accumulator into the Evaluator
// interface. Search clones one NNUE per node and drives Acc incrementally through
// UpdateMove as it makes/unmakes moves, matching the reference engine's nnue.rs
// update_state_for_move/refresh split: non-king moves are cheap Add/Sub feature
// deltas, king moves force a full Refresh since every HalfKP feature index for that
// perspective is keyed off its own king square.
type NNUE struct {
	Net *nnue.Network
	Acc *nnue.Accumulator
}

// NewNNUEEvaluator returns an NNUE evaluator with a freshly built accumulator for pos.
func NewNNUEEvaluator(net *nnue.Network, pos *board.Position) *NNUE {
	return &NNUE{Net: net, Acc: nnue.NewAccumulator(net, pos)}
}

func (e *NNUE) Evaluate(b *board.Board) score.Score {
	cp := nnue.Evaluate(e.Net, e.Acc, b.Turn())
	return score.CP(cp)
}

// Refresh rebuilds the accumulator from scratch for b, required after UpdateMove
// reports false.
func (e *NNUE) Refresh(b *board.Board) {
	e.Acc = nnue.NewAccumulator(e.Net, b.Position())
}

// Clone returns an independent copy with its own accumulator, so a child search node's
// incremental updates never leak into its parent's or siblings' state.
func (e *NNUE) Clone() Evaluator {
	return &NNUE{Net: e.Net, Acc: e.Acc.Clone()}
}

// UpdateMove mutates the accumulator by the feature-delta of m, played by before.Turn()
// against the position as it stood in before (i.e. prior to the move being applied).
// Returns false when mover's own perspective requires a full Refresh -- whenever the
// mover's king moves, since every one of that perspective's feature indices is relative
// to its own king square.
func (e *NNUE) UpdateMove(before *board.Board, m board.Move) bool {
	mover := before.Turn()
	opp := mover.Opponent()

	if m.Piece == board.King {
		// Kings aren't features themselves (see nnue.Accumulator.Refresh), so the only
		// consequence of the king moving is that the mover's own perspective needs a
		// full rebuild. A castling rook still moves as a real feature, visible from the
		// opponent's perspective; the mover's perspective picks it up for free on Refresh.
		if rookFrom, rookTo, ok := m.CastlingRookMove(); ok {
			e.move(opp, board.Rook, mover, rookFrom, rookTo)
		}
		return false
	}

	e.move(board.White, m.Piece, mover, m.From, m.To)
	e.move(board.Black, m.Piece, mover, m.From, m.To)

	switch {
	case m.Type == board.EnPassant:
		if epSq, ok := m.EnPassantCapture(); ok {
			e.sub(board.White, board.Pawn, opp, epSq)
			e.sub(board.Black, board.Pawn, opp, epSq)
		}
	case m.IsCapture():
		e.sub(board.White, m.Capture, opp, m.To)
		e.sub(board.Black, m.Capture, opp, m.To)
	}

	if m.IsPromotion() {
		// The plain-move delta above added a pawn on m.To; replace it with the
		// promoted piece.
		e.sub(board.White, board.Pawn, mover, m.To)
		e.sub(board.Black, board.Pawn, mover, m.To)
		e.add(board.White, m.Promotion, mover, m.To)
		e.add(board.Black, m.Promotion, mover, m.To)
	}

	return true
}

// move applies one piece's from->to delta to perspective's accumulator: sub at from,
// add at to.
func (e *NNUE) move(perspective board.Color, p board.Piece, c board.Color, from, to board.Square) {
	e.Acc.Sub(e.Net, perspective, c, p, from)
	e.Acc.Add(e.Net, perspective, c, p, to)
}

func (e *NNUE) sub(perspective board.Color, p board.Piece, c board.Color, sq board.Square) {
	e.Acc.Sub(e.Net, perspective, c, p, sq)
}

func (e *NNUE) add(perspective board.Color, p board.Piece, c board.Color, sq board.Square) {
	e.Acc.Add(e.Net, perspective, c, p, sq)
}
