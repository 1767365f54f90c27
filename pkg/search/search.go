// Package search implements iterative-deepening negamax with alpha-beta pruning,
// quiescence search, a transposition table and move-ordering heuristics.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/eval"
	"github.com/corvidchess/corvid/pkg/score"
	"github.com/seekerror/stdlib/pkg/lang"
)

// ErrHalted indicates that a search was stopped before it completed a depth, either by
// Handle.Halt or by the context being cancelled.
var ErrHalted = errors.New("search halted")

// PV represents the principal variation found at some search depth.
type PV struct {
	Depth int
	Moves []board.Move
	Score score.Score
	Nodes uint64
	Time  time.Duration
	Hash  float64 // transposition table utilization, [0;1]
}

func (p PV) String() string {
	pv := board.FormatMoves(p.Moves, board.Move.String)
	return fmt.Sprintf("depth=%v score=%v nodes=%v time=%v hash=%v%% pv=%v", p.Depth, p.Score, p.Nodes, p.Time, int(100*p.Hash), pv)
}

// Options hold dynamic per-search options, set fresh for every "go" command.
type Options struct {
	// DepthLimit, if set, limits the search to the given ply depth.
	DepthLimit lang.Optional[int]
	// TimeControl, if set, limits the search by the time manager's soft/hard budget.
	TimeControl lang.Optional[TimeControl]
	// Ponder moves, if any. The search does not read this field: these moves get no
	// special ordering.
	Ponder []board.Move
}

func (o Options) String() string {
	var parts []string
	if v, ok := o.DepthLimit.V(); ok {
		parts = append(parts, fmt.Sprintf("depth=%v", v))
	}
	if v, ok := o.TimeControl.V(); ok {
		parts = append(parts, fmt.Sprintf("time=%v", v))
	}
	return fmt.Sprintf("[%v]", strings.Join(parts, ", "))
}

// Launcher starts iterative-deepening searches.
type Launcher interface {
	// Launch begins a new search from the given position. It expects an exclusive (forked)
	// board and returns a PV channel fed with progressively deeper results; the channel is
	// closed when the search stops, for any reason. The search can be stopped at any time
	// via the returned Handle.
	Launch(ctx context.Context, b *board.Board, eval eval.Evaluator, tt TranspositionTable, opt Options) (Handle, <-chan PV)
}

// Handle lets the engine manage an in-flight search: stop it and retrieve its best result
// so far. The engine is expected to spin off searches with forked boards and halt/abandon
// them when no longer needed.
type Handle interface {
	// Halt stops the search, if running, and returns the last reported PV. Idempotent.
	Halt() PV
}
