package search

import (
	"context"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/eval"
	"github.com/corvidchess/corvid/pkg/score"
)

// searcher holds the state shared across one depth iteration's negamax tree: move-
// ordering heuristics, the transposition table, node accounting and the evaluator.
// killers are rebuilt fresh for every Launch (they are specific to one search's move
// ordering); hist is supplied by the caller so it can persist and age across the whole
// game rather than being thrown away between moves.
type searcher struct {
	b    *board.Board
	eval eval.Evaluator
	tt   TranspositionTable

	killers *killerTable
	hist    *historyTable

	nodes uint64
}

func newSearcher(b *board.Board, e eval.Evaluator, tt TranspositionTable, hist *historyTable) *searcher {
	return &searcher{b: b, eval: e, tt: tt, killers: newKillerTable(), hist: hist}
}

// search runs a full-width negamax search to depth from the current root position and
// returns the node count, score and principal variation. Aborts with ErrHalted if ctx is
// cancelled before the search completes.
func (s *searcher) search(ctx context.Context, depth int) (uint64, score.Score, []board.Move, error) {
	s.killers.clear()
	sc, pv, err := s.negamax(ctx, s.eval, 0, depth, -score.Infinity, score.Infinity)
	return s.nodes, sc, pv, err
}

// negamax searches the current position (as reflected by s.b, which is pushed/popped in
// place rather than copied) to the given remaining depth, at absolute ply plies from the
// root. e is this node's evaluator, already holding accumulator state (if any) for the
// current position; children clone it and update it incrementally across their move
// before descending, so sibling subtrees never share state. Mate scores are encoded
// relative to ply (via score.MateIn/MatedIn), so plain negation correctly propagates them
// up the tree; score.ToTT/FromTT re-anchor them when crossing the transposition table,
// where the same position may be reached at a different ply.
func (s *searcher) negamax(ctx context.Context, e eval.Evaluator, ply, depth int, alpha, beta score.Score) (score.Score, []board.Move, error) {
	if err := ctx.Err(); err != nil {
		return score.None, nil, ErrHalted
	}

	pos := s.b.Position()
	turn := s.b.Turn()

	if res := s.b.Result(); res.IsTerminal() {
		s.nodes++
		return terminalScore(res, turn, ply), nil, nil
	}

	if depth <= 0 {
		sc, err := s.quiescence(ctx, e, ply, 0, alpha, beta)
		return sc, nil, err
	}
	s.nodes++

	hash := uint64(s.b.Hash())
	alphaOrig := alpha

	var ttFrom, ttTo board.Square
	var ttPromo board.Piece
	var ttHasMove bool

	if e, ok := s.tt.Probe(hash); ok {
		ttFrom, ttTo, ttPromo, ttHasMove = e.BestFrom, e.BestTo, e.BestPromo, e.HasMove
		if e.Depth >= depth {
			sc := e.Score.FromTT(ply)
			switch e.Bound {
			case BoundExact:
				return sc, nil, nil
			case BoundLower:
				if sc > alpha {
					alpha = sc
				}
			case BoundUpper:
				if sc < beta {
					beta = sc
				}
			}
			if alpha >= beta {
				return sc, nil, nil
			}
		}
	}

	moves := pos.PseudoLegalMoves(turn)
	if len(moves) == 0 {
		res := s.b.AdjudicateNoLegalMoves()
		return terminalScore(res, turn, ply), nil, nil
	}

	fn := orderingFn(s.killers.get(ply), s.hist, turn)
	if ttHasMove {
		fn = board.First(board.Move{From: ttFrom, To: ttTo, Promotion: ttPromo}, fn)
	}
	list := board.NewMoveList(moves, fn)

	var (
		best     = -score.Infinity
		bestMove board.Move
		bestPV   []board.Move
		hasMove  bool
		legal    int
		quiets   []board.Move
	)

	for {
		m, ok := list.Next()
		if !ok {
			break
		}
		childEval := e.Clone()
		refreshNeeded := !childEval.UpdateMove(s.b, m)
		if !s.b.PushMove(m) {
			continue
		}
		legal++
		if refreshNeeded {
			childEval.Refresh(s.b)
		}

		var (
			childScore score.Score
			childPV    []board.Move
			err        error
		)
		if legal == 1 {
			childScore, childPV, err = s.negamax(ctx, childEval, ply+1, depth-1, -beta, -alpha)
		} else {
			childScore, childPV, err = s.negamax(ctx, childEval, ply+1, depth-1, -alpha-1, -alpha)
			if err == nil && -childScore > alpha && -childScore < beta {
				childScore, childPV, err = s.negamax(ctx, childEval, ply+1, depth-1, -beta, -alpha)
			}
		}
		s.b.PopMove()

		if err != nil {
			return score.None, nil, err
		}
		sc := -childScore

		if m.IsQuiet() {
			quiets = append(quiets, m)
		}

		if sc > best || !hasMove {
			best = sc
			bestMove = m
			bestPV = append([]board.Move{m}, childPV...)
			hasMove = true
		}
		if sc > alpha {
			alpha = sc
		}
		if alpha >= beta {
			if m.IsQuiet() {
				s.killers.store(ply, m)
				s.hist.updateOnCutoff(turn, m, depth, quiets)
			}
			break
		}
	}

	if legal == 0 {
		res := s.b.AdjudicateNoLegalMoves()
		return terminalScore(res, turn, ply), nil, nil
	}

	bound := BoundExact
	switch {
	case best <= alphaOrig:
		bound = BoundUpper
	case best >= beta:
		bound = BoundLower
	}
	s.tt.Store(hash, bestMove, hasMove, best.ToTT(ply), depth, bound)

	return best, bestPV, nil
}

// terminalScore converts a Board.Result adjudicated for turn's perspective into a score
// relative to the current ply: a loss for turn is encoded as being mated at this ply, a
// win as delivering mate, and anything else (including draws) as score.Draw.
func terminalScore(res board.Result, turn board.Color, ply int) score.Score {
	switch {
	case res.Outcome == board.Loss(turn):
		return score.MatedIn(ply)
	case res.Outcome == board.Loss(turn.Opponent()):
		return score.MateIn(ply)
	default:
		return score.Draw
	}
}
