package search

import "github.com/corvidchess/corvid/pkg/board"

// seeValues are piece values used only for static exchange evaluation, deliberately
// simpler/rounder than Piece.Value's general-purpose numbers (SEE cares about fast,
// consistent cutoffs more than PST-matching precision).
var seeValues = [board.NumPieces]int{
	board.NoPiece: 0,
	board.Pawn:    100,
	board.Knight:  300,
	board.Bishop:  300,
	board.Rook:    500,
	board.Queen:   900,
	board.King:    20000,
}

func occupied(pos *board.Position) board.Bitboard {
	return board.PieceBitboard(pos, board.White, board.NoPiece) | board.PieceBitboard(pos, board.Black, board.NoPiece)
}

func rotatedOccupied(pos *board.Position) board.RotatedBitboard {
	return board.NewRotatedBitboard(occupied(pos))
}

// see returns the static exchange evaluation of turn playing m, a capture landing on
// m.To: the material balance, in centipawns, after both sides have exchanged the
// minimum-value attackers/defenders of that square in sequence. victim is the piece
// initially standing on m.To (NoPiece for an en passant capture, whose victim sits
// elsewhere but is still worth a pawn).
func see(pos *board.Position, turn board.Color, m board.Move, victim board.Piece) int {
	attacker := m.Piece

	var gain int
	switch {
	case victim != board.NoPiece:
		gain = seeValues[victim]
	case attacker == board.Pawn:
		gain = seeValues[board.Pawn] // en passant
	default:
		return 0
	}
	if m.IsPromotion() {
		gain += seeValues[m.Promotion] - seeValues[board.Pawn]
	}

	var gains [32]int
	depth := 0
	gains[depth] = gain
	depth++

	rot := rotatedOccupied(pos).Xor(m.From)
	side := turn.Opponent()
	lastValue := seeValues[attacker]

	for depth < len(gains) {
		sq, piece, ok := getLVA(pos, m.To, side, rot)
		if !ok {
			break
		}
		rot = rot.Xor(sq)
		gains[depth] = lastValue - gains[depth-1]
		lastValue = seeValues[piece]
		depth++
		side = side.Opponent()

		if piece == board.King {
			break
		}
	}

	// Fold backward: at each ply, the side to move takes the better of stopping the
	// exchange here or letting the opponent's subsequent reply stand.
	for depth > 1 {
		depth--
		if v := -gains[depth]; v < gains[depth-1] {
			gains[depth-1] = v
		}
	}
	return gains[0]
}

// seeGE reports whether the static exchange evaluation of turn playing m (capturing
// victim) is at least threshold. Used to prune losing captures from quiescence search;
// it computes the full exchange via see and compares the result with threshold.
func seeGE(pos *board.Position, turn board.Color, m board.Move, victim board.Piece, threshold int) bool {
	return see(pos, turn, m, victim) >= threshold
}

// getLVA returns the least valuable attacker of sq belonging to side, restricted to
// pieces still present in rot (so pieces removed earlier in the exchange no longer
// count).
func getLVA(pos *board.Position, sq board.Square, side board.Color, rot board.RotatedBitboard) (board.Square, board.Piece, bool) {
	for _, p := range [...]board.Piece{board.Pawn, board.Knight, board.Bishop, board.Rook, board.Queen, board.King} {
		attackers := pieceAttacksTo(pos, sq, p, side, rot)
		if attackers != 0 {
			return attackers.LastPopSquare(), p, true
		}
	}
	return 0, board.NoPiece, false
}

// pieceAttacksTo returns the subset of side's pieces of type p, still present in rot,
// that attack sq -- i.e. candidate next attackers in the SEE exchange.
func pieceAttacksTo(pos *board.Position, sq board.Square, p board.Piece, side board.Color, rot board.RotatedBitboard) board.Bitboard {
	ours := board.PieceBitboard(pos, side, p) & rot.Mask()

	switch p {
	case board.Pawn:
		return ours & board.PawnCaptureboard(side.Opponent(), board.BitMask(sq))
	case board.Knight:
		return ours & board.KnightAttackboard(sq)
	case board.Bishop:
		return ours & board.BishopAttackboard(rot, sq)
	case board.Rook:
		return ours & board.RookAttackboard(rot, sq)
	case board.Queen:
		return ours & board.QueenAttackboard(rot, sq)
	case board.King:
		return ours & board.KingAttackboard(sq)
	default:
		return 0
	}
}
