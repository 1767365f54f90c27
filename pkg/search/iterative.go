package search

import (
	"context"
	"sync"
	"time"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/eval"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// Iterative is the standard Launcher: iterative deepening over the negamax searcher,
// reporting a PV after every completed depth and stopping on a depth limit, a forced
// mate found within the current full-width search, the soft time limit, or an explicit
// Halt. Its history table persists across searches for the lifetime of the engine (aged,
// not cleared, at the start of each one); one Iterative should be reused for a whole
// game rather than constructed per move.
type Iterative struct {
	hist *historyTable
}

// NewIterative returns a Launcher with a fresh history table, suitable for a new game.
func NewIterative() *Iterative {
	return &Iterative{hist: newHistoryTable()}
}

func (l *Iterative) Launch(ctx context.Context, b *board.Board, e eval.Evaluator, tt TranspositionTable, opt Options) (Handle, <-chan PV) {
	out := make(chan PV, 1)
	h := &handle{
		init: iox.NewAsyncCloser(),
		quit: iox.NewAsyncCloser(),
	}
	l.hist.age()
	go h.process(ctx, b, e, tt, l.hist, opt, out)

	return h, out
}

type handle struct {
	init, quit iox.AsyncCloser

	pv PV
	mu sync.Mutex
}

func (h *handle) process(ctx context.Context, b *board.Board, e eval.Evaluator, tt TranspositionTable, hist *historyTable, opt Options, out chan PV) {
	defer h.init.Close()
	defer close(out)

	if tt != nil {
		tt.NewSearch()
	}

	soft, useSoft := enforceTimeControl(ctx, h, opt.TimeControl, b.Turn())

	wctx, cancel := contextx.WithQuitCancel(ctx, h.quit.Closed())
	defer cancel()

	s := newSearcher(b, e, tt, hist)

	depth := 1
	searchStart := time.Now()
	for !h.quit.IsClosed() {
		start := time.Now()

		nodes, sc, moves, err := s.search(wctx, depth)
		if err != nil {
			if err == ErrHalted {
				return
			}
			logw.Errorf(ctx, "Search failed on %v at depth=%v: %v", b, depth, err)
			return
		}

		pv := PV{
			Depth: depth,
			Nodes: nodes,
			Score: sc,
			Moves: moves,
			Time:  time.Since(start),
		}
		if tt != nil {
			pv.Hash = tt.Used()
		}

		logw.Debugf(ctx, "Searched %v: %v", b.Position(), pv)

		h.mu.Lock()
		h.pv = pv
		h.mu.Unlock()

		select {
		case <-out:
		default:
		}
		out <- pv

		h.init.Close()
		if limit, ok := opt.DepthLimit.V(); ok && depth == limit {
			return // halt: reached requested depth
		}
		if md, ok := sc.MateDistance(); ok && md <= depth {
			return // halt: forced mate found within full-width search. Exact result.
		}
		if useSoft && soft < time.Since(searchStart) {
			return // halt: exceeded soft time limit, don't start a new iteration
		}
		depth++
	}
}

func (h *handle) Halt() PV {
	<-h.init.Closed()
	h.quit.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pv
}
