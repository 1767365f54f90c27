package engine

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeRecord packs one 16-byte Polyglot record, mirroring LoadBook's decode.
func encodeRecord(key uint64, move, weight uint16) []byte {
	var raw [16]byte
	binary.BigEndian.PutUint64(raw[0:8], key)
	binary.BigEndian.PutUint16(raw[8:10], move)
	binary.BigEndian.PutUint16(raw[10:12], weight)
	binary.BigEndian.PutUint32(raw[12:16], 0)
	return raw[:]
}

// encodeMove is decodeMove's inverse, used to build test fixtures.
func encodeMove(from, to board.Square, promo board.Piece) uint16 {
	fromFile := 7 - uint16(from.File())
	fromRank := uint16(from.Rank())
	toFile := 7 - uint16(to.File())
	toRank := uint16(to.Rank())

	var promoBits uint16
	switch promo {
	case board.Knight:
		promoBits = 1
	case board.Bishop:
		promoBits = 2
	case board.Rook:
		promoBits = 3
	case board.Queen:
		promoBits = 4
	}
	return toFile | toRank<<3 | fromFile<<6 | fromRank<<9 | promoBits<<12
}

func TestBookFindBestWeight(t *testing.T) {
	pos, turn, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	key := polyglotKey(pos, turn)

	var buf bytes.Buffer
	buf.Write(encodeRecord(key, encodeMove(board.D2, board.D4, board.NoPiece), 10))
	buf.Write(encodeRecord(key, encodeMove(board.E2, board.E4, board.NoPiece), 50))

	book, err := LoadBook(&buf, rand.NewSource(1))
	require.NoError(t, err)

	m, ok, err := book.Find(fen.Initial, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, board.Move{From: board.E2, To: board.E4}, board.Move{From: m.From, To: m.To})
}

func TestBookFindWeightedStaysWithinCandidates(t *testing.T) {
	pos, turn, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	key := polyglotKey(pos, turn)

	var buf bytes.Buffer
	buf.Write(encodeRecord(key, encodeMove(board.D2, board.D4, board.NoPiece), 10))
	buf.Write(encodeRecord(key, encodeMove(board.E2, board.E4, board.NoPiece), 10))

	book, err := LoadBook(&buf, rand.NewSource(42))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		m, ok, err := book.Find(fen.Initial, true)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Contains(t, []board.Square{board.D2, board.E2}, m.From)
	}
}

func TestBookFindNoMatchReturnsFalse(t *testing.T) {
	book, err := LoadBook(&bytes.Buffer{}, rand.NewSource(1))
	require.NoError(t, err)

	_, ok, err := book.Find(fen.Initial, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBookCastlingRewrite(t *testing.T) {
	from, to := rewriteCastling(board.White, board.E1, board.H1)
	assert.Equal(t, board.E1, from)
	assert.Equal(t, board.G1, to)

	from, to = rewriteCastling(board.White, board.E1, board.A1)
	assert.Equal(t, board.C1, to)

	from, to = rewriteCastling(board.Black, board.E8, board.A8)
	assert.Equal(t, board.C8, to)
}
