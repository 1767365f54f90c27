package eval

import (
	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/score"
)

// HCE is a classical hand-crafted evaluator: material, piece-square tables, bishop pair,
// passed pawns and king activity, tapered between a middlegame and an endgame table by
// remaining non-pawn material. Grounded on the tapered evaluation of the reference engine's
// hce.rs and endgame.rs, folded into one evaluator per the project's endgame-handling design.
type HCE struct{}

const (
	bishopPairBonus = 30
	// phaseMax is the sum of piece weights with a full set of officers on the board, used
	// to normalize the middlegame/endgame taper into [0;1].
	phaseMax = 4*knightPhase + 4*bishopPhase + 4*rookPhase + 2*queenPhase
)

const (
	knightPhase = 1
	bishopPhase = 1
	rookPhase   = 2
	queenPhase  = 4
)

func (HCE) Evaluate(b *board.Board) score.Score {
	pos := b.Position()

	var mg, eg, phase int
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for p := board.Pawn; p <= board.King; p++ {
			for bb := pieceBB(pos, c, p); bb != 0; bb &= bb - 1 {
				sq := bb.LastPopSquare()
				idx := pstIndex(c, sq)

				mg += sign * (p.Value() + pstMG[p][idx])
				eg += sign * (p.Value() + pstEG[p][idx])
				phase += phaseWeight(p)
			}
		}

		if pieceBB(pos, c, board.Bishop).PopCount() >= 2 {
			mg += sign * bishopPairBonus
			eg += sign * bishopPairBonus
		}
	}

	mg += passedPawnBonus(pos, board.White) - passedPawnBonus(pos, board.Black)
	eg += passedPawnBonus(pos, board.White) - passedPawnBonus(pos, board.Black)
	eg += kingActivity(pos, board.White) - kingActivity(pos, board.Black)

	if phase > phaseMax {
		phase = phaseMax
	}
	whiteCP := (mg*phase + eg*(phaseMax-phase)) / phaseMax

	return Relative(b.Turn(), whiteCP)
}

// UpdateMove is a no-op: HCE holds no incremental state, so every Evaluate recomputes
// from the board directly.
func (HCE) UpdateMove(before *board.Board, m board.Move) bool { return true }

// Refresh is a no-op for the same reason.
func (HCE) Refresh(b *board.Board) {}

// Clone returns the receiver: HCE is stateless, so there is nothing to copy.
func (h HCE) Clone() Evaluator { return h }

func pieceBB(pos *board.Position, c board.Color, p board.Piece) board.Bitboard {
	// Position keeps piece bitboards unexported; Piece(c, p) is the package-level accessor.
	return board.PieceBitboard(pos, c, p)
}

func phaseWeight(p board.Piece) int {
	switch p {
	case board.Knight:
		return knightPhase
	case board.Bishop:
		return bishopPhase
	case board.Rook:
		return rookPhase
	case board.Queen:
		return queenPhase
	default:
		return 0
	}
}

// pstIndex mirrors the piece-square table vertically for Black, so both tables are
// written from White's point of view (rank 1 at the start of the array).
func pstIndex(c board.Color, sq board.Square) int {
	rank := int(sq.Rank())
	file := int(sq.File())
	if c == board.Black {
		rank = 7 - rank
	}
	return rank*8 + file
}

// passedPawnBonus sums the bonus for passed pawns of the given color, keyed by distance
// (in ranks) to the promotion square: 1 square away scores highest.
func passedPawnBonus(pos *board.Position, c board.Color) int {
	pawns := board.PieceBitboard(pos, c, board.Pawn)
	opp := board.PieceBitboard(pos, c.Opponent(), board.Pawn)

	var total int
	for bb := pawns; bb != 0; bb &= bb - 1 {
		sq := bb.LastPopSquare()
		if !isPassed(sq, c, opp) {
			continue
		}

		dist := 7 - int(sq.Rank())
		if c == board.Black {
			dist = int(sq.Rank())
		}
		total += passedPawnTable[dist]
	}
	return total
}

// passedPawnTable is indexed by ranks remaining to promotion (1 = one square away).
var passedPawnTable = [8]int{0, 200, 120, 60, 30, 15, 5, 5}

func isPassed(sq board.Square, c board.Color, oppPawns board.Bitboard) bool {
	file := int(sq.File())
	rank := int(sq.Rank())

	for bb := oppPawns; bb != 0; bb &= bb - 1 {
		osq := bb.LastPopSquare()
		of := int(osq.File())
		if of < file-1 || of > file+1 {
			continue
		}
		if c == board.White && int(osq.Rank()) > rank {
			return false
		}
		if c == board.Black && int(osq.Rank()) < rank {
			return false
		}
	}
	return true
}

// kingActivity rewards a centralized king in the endgame: it is the center-distance bonus
// of the color's king square. The material balance and the opposing king's position are
// not taken into account.
func kingActivity(pos *board.Position, c board.Color) int {
	ksq := board.PieceBitboard(pos, c, board.King).LastPopSquare()
	return centerDistanceBonus(ksq)
}

// centerDistanceBonus scores squares closer to the center of the board higher, using
// Manhattan distance (file distance plus rank distance) to the nearest of the four center
// squares.
func centerDistanceBonus(sq board.Square) int {
	f, r := int(sq.File()), int(sq.Rank())
	df := min4(abs(f-3), abs(f-4))
	dr := min4(abs(r-3), abs(r-4))
	dist := df + dr
	return (6 - dist) * 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min4(a, b int) int {
	if a < b {
		return a
	}
	return b
}
