package engine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/board/fen"
)

// record is one 16-byte Polyglot book entry: key:u64, move:u16, weight:u16, learn:u32,
// all big-endian. A book file is a sequence of records sorted ascending by key.
type record struct {
	key    uint64
	move   uint16
	weight uint16
	learn  uint32
}

// Book is a Polyglot opening book, probed by the engine at the root before launching a
// search. Entries are kept sorted by key so Find can binary-search to the first match and
// then walk forward collecting every record sharing that key.
type Book struct {
	entries []record
	rnd     *rand.Rand
}

// NoBook is an empty opening book; Find never returns a move.
var NoBook = &Book{}

// LoadBook reads a Polyglot book from r. source seeds the weighted-random move selection
// used when Find is called with weighted=true; the reference implementation seeds from
// wall-clock, which this package makes an explicit, injectable parameter instead (per
// the specification's note on reproducibility).
func LoadBook(r io.Reader, source rand.Source) (*Book, error) {
	br := bufio.NewReader(r)

	var entries []record
	for {
		var raw [16]byte
		if _, err := io.ReadFull(br, raw[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("invalid polyglot book: %v", err)
		}
		entries = append(entries, record{
			key:    binary.BigEndian.Uint64(raw[0:8]),
			move:   binary.BigEndian.Uint16(raw[8:10]),
			weight: binary.BigEndian.Uint16(raw[10:12]),
			learn:  binary.BigEndian.Uint32(raw[12:16]),
		})
	}
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].key < entries[j].key }) {
		return nil, fmt.Errorf("invalid polyglot book: entries not sorted ascending by key")
	}
	return &Book{entries: entries, rnd: rand.New(source)}, nil
}

// Find probes the book for position (FEN) and returns a legal move, if any. weighted picks
// among the matching entries proportional to their weight; otherwise the single
// highest-weight entry is returned, matching the reference engine's probe_move vs.
// probe_best_move split. Once Find reports no move, the caller should stop consulting the
// book for the rest of the game.
func (b *Book) Find(position string, weighted bool) (board.Move, bool, error) {
	pos, turn, _, _, err := fen.Decode(position)
	if err != nil {
		return board.Move{}, false, fmt.Errorf("invalid position: %v", err)
	}

	matches := b.probe(polyglotKey(pos, turn))
	if len(matches) == 0 {
		return board.Move{}, false, nil
	}

	var picked record
	if weighted {
		picked = b.weightedPick(matches)
	} else {
		picked = bestWeight(matches)
	}

	from, to, promo := decodeMove(picked.move)
	from, to = rewriteCastling(turn, from, to)

	for _, m := range pos.PseudoLegalMoves(turn) {
		if m.From == from && m.To == to && (promo == board.NoPiece || m.Promotion == promo) {
			return m, true, nil
		}
	}
	return board.Move{}, false, fmt.Errorf("book move %v%v not legal in %v", from, to, position)
}

// probe binary-searches to the lowest-index entry matching key, then walks forward
// collecting every entry sharing it.
func (b *Book) probe(key uint64) []record {
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].key >= key })

	var out []record
	for ; i < len(b.entries) && b.entries[i].key == key; i++ {
		out = append(out, b.entries[i])
	}
	return out
}

func bestWeight(entries []record) record {
	best := entries[0]
	for _, e := range entries[1:] {
		if e.weight > best.weight {
			best = e
		}
	}
	return best
}

func (b *Book) weightedPick(entries []record) record {
	var total int
	for _, e := range entries {
		total += int(e.weight) + 1 // +1 so a zero-weight entry can still be picked
	}

	n := b.rnd.Intn(total)
	for _, e := range entries {
		n -= int(e.weight) + 1
		if n < 0 {
			return e
		}
	}
	return entries[len(entries)-1]
}

// decodeMove unpacks a Polyglot move: to_file:3|to_rank:3|from_file:3|from_rank:3|promo:3,
// promo 0 none, 1 N, 2 B, 3 R, 4 Q. Polyglot files run a..h as 0..7, the reverse of this
// module's board.File (FileH=0..FileA=7), hence the 7-minus conversion.
func decodeMove(raw uint16) (from, to board.Square, promo board.Piece) {
	toFile := board.File(7 - (raw & 0x7))
	toRank := board.Rank((raw >> 3) & 0x7)
	fromFile := board.File(7 - ((raw >> 6) & 0x7))
	fromRank := board.Rank((raw >> 9) & 0x7)

	from = board.NewSquare(fromFile, fromRank)
	to = board.NewSquare(toFile, toRank)

	switch (raw >> 12) & 0x7 {
	case 1:
		promo = board.Knight
	case 2:
		promo = board.Bishop
	case 3:
		promo = board.Rook
	case 4:
		promo = board.Queen
	default:
		promo = board.NoPiece
	}
	return from, to, promo
}

// rewriteCastling turns Polyglot's king-captures-own-rook castling encoding into the
// engine's own king-moves-two-squares encoding: a king move whose destination is the
// rook's home square on the same rank is rewritten to the C or G file.
func rewriteCastling(turn board.Color, from, to board.Square) (board.Square, board.Square) {
	kingHome := board.E1
	if turn == board.Black {
		kingHome = board.E8
	}
	if from != kingHome {
		return from, to
	}

	switch to {
	case board.H1:
		return from, board.G1
	case board.A1:
		return from, board.C1
	case board.H8:
		return from, board.G8
	case board.A8:
		return from, board.C8
	default:
		return from, to
	}
}

// polyglotPieceKind maps a piece to Polyglot's own piece-kind ordering (pawn, knight,
// bishop, rook, queen, king), doubled and offset by color (black=0, white=1), per the
// Polyglot format specification.
func polyglotPieceKind(c board.Color, p board.Piece) int {
	var kind int
	switch p {
	case board.Pawn:
		kind = 0
	case board.Knight:
		kind = 1
	case board.Bishop:
		kind = 2
	case board.Rook:
		kind = 3
	case board.Queen:
		kind = 4
	case board.King:
		kind = 5
	}
	offset := 0
	if c == board.White {
		offset = 1
	}
	return kind*2 + offset
}

// polyglotSquare converts a board.Square (file H=0..A=7) to Polyglot's square index
// (rank*8+file, file a=0..h=7).
func polyglotSquare(sq board.Square) int {
	return int(sq.Rank())*8 + (7 - int(sq.File()))
}

// polyglotKey computes the Polyglot Zobrist key for pos with turn to move, using the
// Polyglot random constant table below. These constants are independent of this engine's
// own Zobrist hash (pkg/board.ZobristTable): a book file is an external artifact keyed by
// the Polyglot format's own hash, not this engine's internal one.
func polyglotKey(pos *board.Position, turn board.Color) uint64 {
	var key uint64

	for c := board.White; c <= board.Black; c++ {
		for p := board.Pawn; p <= board.King; p++ {
			for bb := board.PieceBitboard(pos, c, p); bb != 0; bb &= bb - 1 {
				sq := bb.LastPopSquare()
				key ^= polyglotRandomPiece[polyglotPieceKind(c, p)][polyglotSquare(sq)]
			}
		}
	}

	rights := pos.Castling()
	if rights.IsAllowed(board.WhiteKingSideCastle) {
		key ^= polyglotRandomCastle[0]
	}
	if rights.IsAllowed(board.WhiteQueenSideCastle) {
		key ^= polyglotRandomCastle[1]
	}
	if rights.IsAllowed(board.BlackKingSideCastle) {
		key ^= polyglotRandomCastle[2]
	}
	if rights.IsAllowed(board.BlackQueenSideCastle) {
		key ^= polyglotRandomCastle[3]
	}

	if ep, ok := pos.EnPassant(); ok && enPassantCapturable(pos, turn, ep) {
		key ^= polyglotRandomEnPassant[7-int(ep.File())]
	}

	if turn == board.White {
		key ^= polyglotRandomTurn
	}
	return key
}

// enPassantCapturable reports whether turn actually has a pawn able to capture on ep --
// Polyglot only folds the en-passant key in when the capture is really available, not
// merely when the FEN records a target square.
func enPassantCapturable(pos *board.Position, turn board.Color, ep board.Square) bool {
	capturers := board.PieceBitboard(pos, turn, board.Pawn)
	for bb := capturers; bb != 0; bb &= bb - 1 {
		sq := bb.LastPopSquare()
		df := int(sq.File()) - int(ep.File())
		if df != 1 && df != -1 {
			continue
		}
		if turn == board.White && sq.Rank() == board.Rank5 && ep.Rank() == board.Rank6 {
			return true
		}
		if turn == board.Black && sq.Rank() == board.Rank4 && ep.Rank() == board.Rank3 {
			return true
		}
	}
	return false
}

// polyglotRandomPiece, polyglotRandomCastle, polyglotRandomEnPassant and
// polyglotRandomTurn are generated once at init time from a fixed seed via a xorshift64*
// generator, the same construction the Polyglot format's own reference table uses;
// grounded on the equivalent generator in the pack's hailam-chessplay engine. Any book
// file consulted by this engine must be produced by the same generator, since the actual
// historical Polyglot constant table is a fixed, externally-published artifact this
// module does not vendor.
var (
	polyglotRandomPiece     [12][64]uint64
	polyglotRandomCastle    [4]uint64
	polyglotRandomEnPassant [8]uint64
	polyglotRandomTurn      uint64
)

func init() {
	var s uint64 = 0x37b4a4b3f0d1c0d0
	next := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545f4914f6cdd1d
	}

	for kind := 0; kind < 12; kind++ {
		for sq := 0; sq < 64; sq++ {
			polyglotRandomPiece[kind][sq] = next()
		}
	}
	for i := range polyglotRandomCastle {
		polyglotRandomCastle[i] = next()
	}
	for i := range polyglotRandomEnPassant {
		polyglotRandomEnPassant[i] = next()
	}
	polyglotRandomTurn = next()
}
