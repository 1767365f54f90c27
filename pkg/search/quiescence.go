package search

import (
	"context"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/eval"
	"github.com/corvidchess/corvid/pkg/score"
)

const (
	// qsearchDeltaMargin bounds "big delta" pruning: if even a 600-centipawn gain couldn't
	// bring the stand-pat score within reach of alpha, there is no point generating moves.
	qsearchDeltaMargin = 600
	// qsearchDeltaSafety is the additional per-move margin applied on top of the
	// captured piece's value before a specific capture is pruned.
	qsearchDeltaSafety = 100
	// maxQSearchDepth bounds quiescence search beyond the main search horizon; past it,
	// only check evasions are searched further.
	maxQSearchDepth = 8
)

// quietPieceValues mirrors seeValues but keyed for delta pruning against captured
// material rather than exchange simulation; kept as a separate table since a future
// tuning pass may want these to diverge (e.g. to price queens differently for pruning
// than for the exchange itself).
var quietPieceValues = seeValues

// quiescence searches captures (and all moves while in check, at any qply) until the position is "quiet", to avoid misjudging a position in the
// middle of a tactical exchange. qply counts plies within quiescence, separately from
// ply's absolute count from the root, since the qsearch depth limit is relative to where
// quiescence began. e is this node's evaluator; see negamax for the clone/update
// contract children use before descending.
func (s *searcher) quiescence(ctx context.Context, e eval.Evaluator, ply, qply int, alpha, beta score.Score) (score.Score, error) {
	if err := ctx.Err(); err != nil {
		return score.None, ErrHalted
	}
	s.nodes++

	pos := s.b.Position()
	turn := s.b.Turn()

	standPat := e.Evaluate(s.b)
	if standPat >= beta {
		return beta, nil
	}

	inCheck := pos.IsChecked(turn)

	if qply >= maxQSearchDepth && !inCheck {
		return standPat, nil
	}
	if !inCheck && standPat.Raw()+qsearchDeltaMargin < alpha.Raw() {
		return alpha, nil
	}
	if standPat > alpha {
		alpha = standPat
	}

	var moves []board.Move
	if inCheck {
		moves = pos.PseudoLegalMoves(turn)
	} else {
		moves = captures(pos.PseudoLegalMoves(turn))
	}
	if len(moves) == 0 {
		return alpha, nil
	}

	list := board.NewMoveList(moves, captureOrderingFn())

	best := standPat
	for {
		m, ok := list.Next()
		if !ok {
			break
		}

		if m.IsCapture() {
			capturedValue := quietPieceValues[m.Capture]
			if !inCheck && !m.IsPromotion() && standPat.Raw()+capturedValue+qsearchDeltaSafety < alpha.Raw() {
				continue
			}
			if !inCheck && !seeGE(pos, turn, m, m.Capture, 0) {
				continue
			}
		}

		childEval := e.Clone()
		refreshNeeded := !childEval.UpdateMove(s.b, m)
		if !s.b.PushMove(m) {
			continue
		}
		if refreshNeeded {
			childEval.Refresh(s.b)
		}
		childScore, err := s.quiescence(ctx, childEval, ply+1, qply+1, -beta, -alpha)
		s.b.PopMove()
		if err != nil {
			return score.None, err
		}
		sc := -childScore

		if sc > best {
			best = sc
			if sc > alpha {
				alpha = sc
				if sc >= beta {
					break
				}
			}
		}
	}

	return best, nil
}

// captures filters moves down to captures (including en passant and capture-promotions).
func captures(moves []board.Move) []board.Move {
	out := moves[:0]
	for _, m := range moves {
		if m.IsCapture() {
			out = append(out, m)
		}
	}
	return out
}
