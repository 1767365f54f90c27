// Package uci contains a driver for using the engine under the UCI protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
// See: https://en.wikipedia.org/wiki/Universal_Chess_Interface
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/board/fen"
	"github.com/corvidchess/corvid/pkg/engine"
	"github.com/corvidchess/corvid/pkg/search"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"go.uber.org/atomic"
)

const ProtocolName = "uci"

// Driver implements a UCI driver for an engine. It is activated if sent "uci".
type Driver struct {
	e *engine.Engine

	out chan<- string

	active       atomic.Bool    // user is waiting for engine to move
	ponder       chan search.PV // chan for intermediate search information
	lastPosition string         // last position line (empty if no last position)

	quit   chan struct{}
	closed atomic.Bool
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		e:      e,
		out:    out,
		ponder: make(chan search.PV, 400),
		quit:   make(chan struct{}),
	}
	go d.process(ctx, in)

	return d, out
}

func (d *Driver) Close() {
	if d.closed.CAS(false, true) {
		close(d.quit)
	}
}

func (d *Driver) Closed() <-chan struct{} {
	return d.quit
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	// * uci
	//
	//	tell engine to use the uci (universal chess interface), this will be sent once as
	//	a first command after program boot. The engine must identify itself with "id" and
	//	list any "option"s, then send "uciok".

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())

	d.out <- "option name Hash type spin default 64 min 1 max 65536"
	d.out <- "option name Move Overhead type spin default 50 min 0 max 5000"
	d.out <- "option name UCI_ShowWDL type check default false"
	d.out <- fmt.Sprintf("option name OwnBook type check default %v", d.e.Options().Book)

	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream broken. Exiting")
				return
			}
			d.handle(ctx, line)

		case pv := <-d.ponder:
			if d.active.Load() {
				d.out <- printPV(pv)
			}

		case <-d.quit:
			d.ensureInactive(ctx)

			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

func (d *Driver) handle(ctx context.Context, line string) {
	parts := strings.Split(strings.TrimSpace(line), " ")
	if len(parts) == 0 {
		return
	}

	cmd, args := parts[0], parts[1:]

	switch strings.ToLower(cmd) {
	case "isready":
		// Synchronizes the engine with the GUI; always answered with "readyok", even
		// mid-search.
		d.out <- "readyok"

	case "debug":
		// Debug on/off is not surfaced: the engine's verbosity is controlled by logw's
		// own configuration, not a UCI toggle.

	case "setoption":
		d.handleSetOption(args)

	case "register":
		// No registration scheme; silently accepted.

	case "ucinewgame":
		d.ensureInactive(ctx)
		d.lastPosition = ""

	case "position":
		d.handlePosition(ctx, line, args)

	case "go":
		d.handleGo(ctx, line, args)

	case "stop":
		// Stop calculating as soon as possible; "bestmove" follows via searchCompleted.
		pv, err := d.e.Halt(ctx)
		if err == nil {
			d.searchCompleted(ctx, pv)
		}

	case "ponderhit":
		// Pondering (searching the opponent's expected reply ahead of time) is a Non-goal;
		// acknowledged and ignored, matching the specification's explicit scope.

	case "quit":
		return

	default:
		logw.Warningf(ctx, "Unknown command '%v': %v", cmd, args)
	}
}

// handleSetOption processes "setoption name <id> [value <x>]". The name and value may
// themselves contain spaces (e.g. "Move Overhead"), so both are reconstructed by splitting
// the full argument list on the literal "value" token rather than by fixed position.
func (d *Driver) handleSetOption(args []string) {
	if len(args) == 0 || args[0] != "name" {
		return
	}

	rest := args[1:]
	name, value := rest, []string(nil)
	for i, a := range rest {
		if a == "value" {
			name, value = rest[:i], rest[i+1:]
			break
		}
	}

	switch strings.Join(name, " ") {
	case "Hash":
		if n, err := strconv.Atoi(strings.Join(value, " ")); err == nil {
			d.e.SetHash(uint(n))
		}
	case "OwnBook":
		if b, err := strconv.ParseBool(strings.Join(value, " ")); err == nil {
			d.e.SetBook(b)
		}
	case "Move Overhead", "UCI_ShowWDL":
		// Accepted and ignored. The Move Overhead value is not stored: handleGo leaves
		// TimeControl.MoveOverhead at zero, so the time manager's default overhead applies.
		// UCI_ShowWDL has no WDL model to report in this evaluator stack.
	}
}

func (d *Driver) handlePosition(ctx context.Context, line string, args []string) {
	d.ensureInactive(ctx)

	if d.lastPosition != "" && strings.HasPrefix(line, d.lastPosition) {
		// Continuation of the same game: apply only the newly appended moves.

		moves := strings.TrimSpace(strings.TrimPrefix(line, d.lastPosition))
		for _, arg := range strings.Fields(moves) {
			if arg == "moves" {
				continue
			}
			if err := d.e.Move(ctx, arg); err != nil {
				logw.Errorf(ctx, "Invalid position move '%v': %v: %v", arg, line, err)
				return
			}
		}
		d.lastPosition = line
		return
	}

	position := fen.Initial
	if len(args) >= 7 && args[0] == "fen" {
		position = strings.Join(args[1:7], " ")
	}

	if err := d.e.Reset(ctx, position); err != nil {
		logw.Errorf(ctx, "Invalid position: %v", line)
		return
	}

	apply := false
	for _, arg := range args {
		if arg == "moves" {
			apply = true
			continue
		}
		if !apply {
			continue
		}
		if err := d.e.Move(ctx, arg); err != nil {
			logw.Errorf(ctx, "Invalid position move '%v': %v: %v", arg, line, err)
			return
		}
	}
	d.lastPosition = line
}

func (d *Driver) handleGo(ctx context.Context, line string, args []string) {
	d.ensureInactive(ctx)

	var opt search.Options
	var tc search.TimeControl
	hasTC := false
	infinite := false

	for i := 0; i < len(args); i++ {
		cmd := args[i]
		switch cmd {
		case "wtime", "btime", "winc", "binc", "movestogo", "depth", "movetime":
			i++
			if i == len(args) {
				logw.Errorf(ctx, "No argument for %v: %v", cmd, line)
				return
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				logw.Errorf(ctx, "Invalid argument for %v: %v", line, err)
				return
			}

			switch cmd {
			case "depth":
				opt.DepthLimit = lang.Some(n)
			case "wtime":
				tc.White, hasTC = time.Millisecond*time.Duration(n), true
			case "btime":
				tc.Black, hasTC = time.Millisecond*time.Duration(n), true
			case "winc":
				tc.WhiteInc, hasTC = time.Millisecond*time.Duration(n), true
			case "binc":
				tc.BlackInc, hasTC = time.Millisecond*time.Duration(n), true
			case "movestogo":
				tc.Moves, hasTC = n, true
			case "movetime":
				tc.MoveTime, hasTC = lang.Some(time.Millisecond*time.Duration(n)), true
			}

		case "infinite":
			infinite = true

		default:
			// searchmoves, ponder, mate: silently ignored (searchmoves restriction and
			// ponder-move hints are not part of the search driver's public Options).
		}
	}
	if hasTC {
		opt.TimeControl = lang.Some(tc)
	}

	if m, ok := d.e.BookMove(ctx); ok {
		pv := search.PV{Moves: []board.Move{m}}
		d.active.Store(true)
		d.searchCompleted(ctx, pv)
		return
	}

	out, err := d.e.Analyze(ctx, opt)
	if err != nil {
		logw.Errorf(ctx, "Analyze failed: %v", err)
		return
	}
	d.active.Store(true)

	go func() {
		var last search.PV
		for pv := range out {
			last = pv
			d.ponder <- pv
		}
		if !infinite {
			d.searchCompleted(ctx, last)
		}
	}()
}

func (d *Driver) ensureInactive(ctx context.Context) {
	d.active.Store(false)
	_, _ = d.e.Halt(ctx)
}

func (d *Driver) searchCompleted(ctx context.Context, pv search.PV) {
	if d.active.CAS(true, false) {
		if len(pv.Moves) > 0 {
			d.out <- printPV(pv)
			d.out <- fmt.Sprintf("bestmove %v", printMove(pv.Moves[0]))
		} else {
			// No PV: position is checkmate or stalemate.
			d.out <- "bestmove 0000"
		}
	} // else: stale or duplicate result
}

func printPV(pv search.PV) string {
	// "info depth 2 score cp 214 nodes 2124 time 1242 nps 1710 hashfull 0 pv e2e4 e7e5 g1f3"

	parts := []string{"info"}
	parts = append(parts, fmt.Sprintf("depth %v", pv.Depth))
	parts = append(parts, fmt.Sprintf("score %v", pv.Score))
	if pv.Nodes > 0 {
		parts = append(parts, fmt.Sprintf("nodes %v", pv.Nodes))
	}
	if pv.Time > 0 {
		parts = append(parts, fmt.Sprintf("time %v", pv.Time.Milliseconds()))
	}
	if pv.Nodes > 0 && pv.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %v", uint64(time.Second)*pv.Nodes/uint64(pv.Time)))
	}
	parts = append(parts, fmt.Sprintf("hashfull %v", int(1000*pv.Hash)))
	if len(pv.Moves) > 0 {
		parts = append(parts, "pv")
		parts = append(parts, board.FormatMoves(pv.Moves, printMove))
	}

	return strings.Join(parts, " ")
}

func printMove(m board.Move) string {
	return strings.ToLower(m.String())
}
