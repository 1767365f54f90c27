// Package nnue implements a small HalfKP-style efficiently-updatable neural network
// evaluator, structured after the incremental accumulator design used by Stockfish-family
// engines: a per-king-perspective linear feature transformer, updated by add/sub as pieces
// move, followed by a tiny fully-connected output network.
package nnue

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/corvidchess/corvid/pkg/board"
)

const (
	// halfDimensions is the width of each perspective's accumulator.
	halfDimensions = 256
	// numFeatures is the HalfKP feature count: 64 king squares * 64 piece squares * 10 piece
	// types (5 non-king pieces * 2 colors), following the classical HalfKP definition.
	numFeatures = 64 * 64 * 10
)

// Network holds the weights for one NNUE model: a feature transformer (per HalfKP feature,
// a halfDimensions-wide row) and a single-layer output network over the concatenated
// perspectives.
type Network struct {
	featureWeights []int16 // [numFeatures][halfDimensions]
	featureBias    []int16 // [halfDimensions]
	outputWeights  []int32 // [2*halfDimensions]
	outputBias     int32
}

// Load reads a Network from the given reader in the package's own compact binary format:
// a little-endian sequence of feature weights, feature biases, output weights and bias.
// Unlike Stockfish's .nnue format, no attempt is made to parse third-party network files;
// this keeps the loader small at the cost of network portability.
func Load(r io.Reader) (*Network, error) {
	br := bufio.NewReader(r)

	n := &Network{
		featureWeights: make([]int16, numFeatures*halfDimensions),
		featureBias:    make([]int16, halfDimensions),
		outputWeights:  make([]int32, 2*halfDimensions),
	}

	if err := binary.Read(br, binary.LittleEndian, n.featureWeights); err != nil {
		return nil, fmt.Errorf("nnue: reading feature weights: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, n.featureBias); err != nil {
		return nil, fmt.Errorf("nnue: reading feature bias: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, n.outputWeights); err != nil {
		return nil, fmt.Errorf("nnue: reading output weights: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &n.outputBias); err != nil {
		return nil, fmt.Errorf("nnue: reading output bias: %w", err)
	}
	return n, nil
}

// Accumulator is the incremental feature-transformer state for both perspectives (White's
// view and Black's view of the same position). It is cheap to Clone when pushing a move and
// cheap to update in place via Add/Sub for that move, which is why search clones one
// Accumulator per node rather than recomputing from scratch.
type Accumulator struct {
	values  [2][]int16 // [perspective][halfDimensions]
	kingSq  [2]board.Square
	fresh   [2]bool
}

// NewAccumulator returns an accumulator refreshed from scratch for the given position.
func NewAccumulator(n *Network, pos *board.Position) *Accumulator {
	a := &Accumulator{
		values: [2][]int16{
			make([]int16, halfDimensions),
			make([]int16, halfDimensions),
		},
	}
	a.Refresh(n, pos, board.White)
	a.Refresh(n, pos, board.Black)
	return a
}

// Clone returns an independent copy, used before speculatively making a move in search.
func (a *Accumulator) Clone() *Accumulator {
	out := &Accumulator{kingSq: a.kingSq, fresh: a.fresh}
	out.values[board.White] = append([]int16(nil), a.values[board.White]...)
	out.values[board.Black] = append([]int16(nil), a.values[board.Black]...)
	return out
}

// Refresh fully recomputes one perspective's accumulator from the position. Required
// whenever that perspective's king moves, since every HalfKP feature index is king-relative.
func (a *Accumulator) Refresh(n *Network, pos *board.Position, perspective board.Color) {
	copy(a.values[perspective], n.featureBias)

	ksq := board.PieceBitboard(pos, perspective, board.King).LastPopSquare()
	a.kingSq[perspective] = ksq
	a.fresh[perspective] = true

	for c := board.White; c <= board.Black; c++ {
		for p := board.Pawn; p < board.King; p++ {
			for bb := board.PieceBitboard(pos, c, p); bb != 0; bb &= bb - 1 {
				sq := bb.LastPopSquare()
				a.add(n, perspective, featureIndex(ksq, perspective, c, p, sq))
			}
		}
	}
}

// Add and Sub apply a single HalfKP feature's weight row to one perspective's accumulator,
// the incremental counterpart to Refresh used when a non-king piece moves, is captured, or
// is created by promotion.
func (a *Accumulator) Add(n *Network, perspective board.Color, c board.Color, p board.Piece, sq board.Square) {
	a.add(n, perspective, featureIndex(a.kingSq[perspective], perspective, c, p, sq))
}

func (a *Accumulator) Sub(n *Network, perspective board.Color, c board.Color, p board.Piece, sq board.Square) {
	a.sub(n, perspective, featureIndex(a.kingSq[perspective], perspective, c, p, sq))
}

func (a *Accumulator) add(n *Network, perspective board.Color, feature int) {
	row := n.featureWeights[feature*halfDimensions : (feature+1)*halfDimensions]
	for i, w := range row {
		a.values[perspective][i] += w
	}
}

func (a *Accumulator) sub(n *Network, perspective board.Color, feature int) {
	row := n.featureWeights[feature*halfDimensions : (feature+1)*halfDimensions]
	for i, w := range row {
		a.values[perspective][i] -= w
	}
}

// KingMoved reports whether the given perspective's king square has changed since the
// accumulator was last refreshed for it -- the trigger for a full Refresh rather than an
// incremental Add/Sub.
func (a *Accumulator) KingMoved(perspective board.Color, pos *board.Position) bool {
	cur := board.PieceBitboard(pos, perspective, board.King).LastPopSquare()
	return !a.fresh[perspective] || cur != a.kingSq[perspective]
}

// featureIndex computes the HalfKP feature index for a piece of color c/type p on sq, as
// seen from the given perspective's king square. Own/opponent pieces are distinguished so
// the network can learn asymmetric relationships (e.g. a defended vs. undefended piece).
func featureIndex(ksq board.Square, perspective, c board.Color, p board.Piece, sq board.Square) int {
	own := 0
	if c != perspective {
		own = 1
	}
	pieceIdx := int(p-board.Pawn)*2 + own
	return int(ksq)*640 + pieceIdx*64 + int(sq)
}

// clippedReLU is the activation used between the feature transformer and the output layer,
// matching the [0;127] clamp of a typical quantized NNUE network.
func clippedReLU(v int16) int32 {
	switch {
	case v < 0:
		return 0
	case v > 127:
		return 127
	default:
		return int32(v)
	}
}

// Evaluate runs the output network over both perspectives' accumulators and returns a
// centipawn score from the perspective of turn.
func Evaluate(n *Network, acc *Accumulator, turn board.Color) int {
	var sum int32
	us, them := acc.values[turn], acc.values[turn.Opponent()]

	for i := 0; i < halfDimensions; i++ {
		sum += clippedReLU(us[i]) * n.outputWeights[i]
		sum += clippedReLU(them[i]) * n.outputWeights[halfDimensions+i]
	}
	sum += n.outputBias

	// The quantized network operates on a fixed-point scale; rescale down to centipawns.
	return int(sum / 64)
}
