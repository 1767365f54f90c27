package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/board/fen"
	"github.com/corvidchess/corvid/pkg/eval"
	"github.com/corvidchess/corvid/pkg/search"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

var version = build.NewVersion(0, 89, 3)

// Options are search creation options.
type Options struct {
	// Depth is the search depth limit. If zero, there is no limit. Overridden by search
	// options if provided.
	Depth uint
	// Hash is the transposition table size in MB.
	Hash uint
	// Book enables opening book probing at the root, if a book was configured.
	Book bool
	// BookWeighted selects weighted-random book move selection instead of best-weight.
	BookWeighted bool
}

func (o Options) String() string {
	return fmt.Sprintf("{depth=%v, hash=%v, book=%v}", o.Depth, o.Hash, o.Book)
}

// Engine encapsulates game-playing logic, search and evaluation.
type Engine struct {
	name, author string

	launcher search.Launcher
	zt       *board.ZobristTable
	seed     int64
	opts     Options
	book     *Book

	b      *board.Board
	tt     search.TranspositionTable
	eval   eval.Evaluator
	active search.Handle
	mu     sync.Mutex
}

// Option is an engine creation option.
type Option func(*Engine)

// WithOptions sets default runtime options.
func WithOptions(opts Options) Option {
	return func(e *Engine) {
		e.opts = opts
	}
}

// WithZobrist configures the engine to use the given random seed instead of the
// default seed of zero.
func WithZobrist(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithBook configures the engine's opening book. NoBook (the default) never produces a
// move, so the engine falls straight through to search.
func WithBook(book *Book) Option {
	return func(e *Engine) {
		e.book = book
	}
}

// New creates an engine around the given search launcher and evaluator. The evaluator is
// cloned for the root position on every Analyze call, so the instance passed in here is
// never itself searched with directly.
func New(ctx context.Context, name, author string, launcher search.Launcher, e0 eval.Evaluator, opts ...Option) *Engine {
	e := &Engine{
		name:     name,
		author:   author,
		launcher: launcher,
		eval:     e0,
		book:     NoBook,
	}
	for _, fn := range opts {
		fn(e)
	}
	e.zt = board.NewZobristTable(e.seed)

	_ = e.Reset(ctx, fen.Initial)

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.opts
}

func (e *Engine) SetDepth(depth uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Depth = depth
}

func (e *Engine) SetHash(size uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Hash = size
	if e.tt != nil {
		e.tt.Resize(int(size))
	}
}

func (e *Engine) SetBook(use bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Book = use
}

// Board returns a forked board.
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.b.Fork()
}

// Position returns the current position in FEN format. Convenience function.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.position()
}

func (e *Engine) position() string {
	return fen.Encode(e.b.Position(), e.b.Turn(), e.b.NoProgress(), e.b.FullMoves())
}

// Reset resets the engine to a new starting position in FEN format.
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Reset %v, depth=%v, hash=%vMB", position, e.opts.Depth, e.opts.Hash)

	_, _ = e.haltSearchIfActive(ctx)

	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	if err != nil {
		return err
	}
	e.b = board.NewBoard(e.zt, pos, turn, noprogress, fullmoves)

	if e.tt == nil {
		e.tt = search.NewTranspositionTable(int(e.opts.Hash))
	} else {
		e.tt.Resize(int(e.opts.Hash))
	}
	e.eval.Refresh(e.b)

	logw.Infof(ctx, "New board: %v", e.b)
	return nil
}

// Move selects the given move, usually an opponent move.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Move %v", move)

	candidate, err := board.ParseMove(move)
	if err != nil {
		return fmt.Errorf("invalid move: %v", err)
	}

	_, _ = e.haltSearchIfActive(ctx)

	moves := e.b.Position().PseudoLegalMoves(e.b.Turn())
	for _, m := range moves {
		if !candidate.Equals(m) {
			continue
		}

		// Candidate is at least pseudo-legal.

		refreshNeeded := !e.eval.UpdateMove(e.b, m)
		if !e.b.PushMove(m) {
			return fmt.Errorf("illegal move: %v", m)
		}
		if refreshNeeded {
			e.eval.Refresh(e.b)
		}

		logw.Infof(ctx, "Move %v: %v", m, e.b)
		return nil
	}
	return fmt.Errorf("invalid move: %v", candidate)
}

// TakeBack undoes the latest move. The evaluator has no incremental "unmake"; it is simply
// rebuilt from scratch for the restored position.
func (e *Engine) TakeBack(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, _ = e.haltSearchIfActive(ctx)

	m, ok := e.b.PopMove()
	if !ok {
		return fmt.Errorf("no move to take back")
	}
	e.eval.Refresh(e.b)

	logw.Infof(ctx, "Takeback %v", m)
	return nil
}

// BookMove probes the opening book for the current position, if one is configured and
// enabled. Returns false if the book is disabled, exhausted, or holds no entry for this
// position.
func (e *Engine) BookMove(ctx context.Context) (board.Move, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.opts.Book {
		return board.Move{}, false
	}

	m, ok, err := e.book.Find(e.position(), e.opts.BookWeighted)
	if err != nil {
		logw.Errorf(ctx, "Book probe failed for %v: %v", e.b, err)
		return board.Move{}, false
	}
	return m, ok
}

// Analyze analyzes the current position.
func (e *Engine) Analyze(ctx context.Context, opt search.Options) (<-chan search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := opt.DepthLimit.V(); !ok && e.opts.Depth > 0 {
		opt.DepthLimit = lang.Some(int(e.opts.Depth))
	}

	logw.Infof(ctx, "Analyze %v, opt=%v", e.b, opt)

	if e.active != nil {
		return nil, fmt.Errorf("search already active")
	}

	handle, out := e.launcher.Launch(ctx, e.b.Fork(), e.eval.Clone(), e.tt, opt)
	e.active = handle
	return out, nil
}

// Halt halts the active search and returns the principal variation, if any.
func (e *Engine) Halt(ctx context.Context) (search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Halt")

	pv, ok := e.haltSearchIfActive(ctx)
	if !ok {
		return search.PV{}, fmt.Errorf("no active search")
	}
	return pv, nil
}

func (e *Engine) haltSearchIfActive(ctx context.Context) (search.PV, bool) {
	if e.active != nil {
		pv := e.active.Halt()
		logw.Infof(ctx, "Search %v halted: %v", e.b, pv)

		e.active = nil
		return pv, true
	}
	return search.PV{}, false
}
