package search

import (
	"sync"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/score"
)

// Bound records whether a stored score is exact or only one side of the alpha-beta window.
type Bound uint8

const (
	// BoundNone marks an empty table slot.
	BoundNone Bound = iota
	// BoundExact is a PV-node score: neither side failed.
	BoundExact
	// BoundLower is a fail-high score: the true value is at least this.
	BoundLower
	// BoundUpper is a fail-low score: the true value is at most this.
	BoundUpper
)

// Entry is one transposition table lookup result. BestMove carries only a from/to/promotion
// hint -- search resolves it against the position's legal moves rather than trusting a raw
// decoded Move, since the table never stores full move metadata (see encodeMove).
type Entry struct {
	Score    score.Score
	BestFrom board.Square
	BestTo   board.Square
	BestPromo board.Piece
	HasMove  bool
	Depth    int
	Bound    Bound
}

// TranspositionTable caches search results keyed by Zobrist hash, to avoid re-searching
// transposed move orders that reach the same position.
type TranspositionTable interface {
	// Probe looks up a hash and reports whether a usable entry was found.
	Probe(hash uint64) (Entry, bool)
	// Store records a search result, subject to the table's replacement policy.
	Store(hash uint64, best board.Move, hasMove bool, s score.Score, depth int, bound Bound)
	// NewSearch bumps the table's generation, so entries from the previous search age out.
	NewSearch()
	// Used returns the fraction, in [0;1], of a fixed initial sample that holds current-
	// generation entries -- the basis for UCI's "hashfull" info field.
	Used() float64
	// Clear empties the table entirely.
	Clear()
	// Resize replaces the table with a freshly sized one, discarding all entries.
	Resize(sizeMB int)
	// Prefetch hints that hash will be probed soon. A no-op in this pure-Go implementation;
	// kept so callers can prefetch on the hot path without a build tag, mirroring the
	// target-specific intrinsic the original engine stubs out for the same reason.
	Prefetch(hash uint64)
}

// entry is the table's packed in-memory representation: 8 bytes of fields (sizing in
// NewTranspositionTable budgets 16 bytes per entry), modelled on the packed layout of a cache-conscious native transposition table entry (key/move/score/depth/bound
// fields chosen to fit one cache line's worth of entries) even though Go gives up none of
// the memory-safety this buys a language with manual layout control.
type entry struct {
	key         uint16 // upper bits of the hash, for collision detection
	bestMove    uint16 // encoded from(6)|to(6)|promo(4)
	score       int16
	depth       int8
	boundAndAge uint8 // bound in low 2 bits, generation in high 6 bits
}

func (e entry) isEmpty() bool {
	return Bound(e.boundAndAge&0x3) == BoundNone
}

func (e entry) matches(hash uint64) bool {
	return e.key == uint16(hash>>48)
}

func (e entry) bound() Bound {
	return Bound(e.boundAndAge & 0x3)
}

func (e entry) generation() uint8 {
	return e.boundAndAge >> 2
}

func encodeMove(m board.Move) uint16 {
	var promo uint16
	switch m.Promotion {
	case board.Knight:
		promo = 1
	case board.Bishop:
		promo = 2
	case board.Rook:
		promo = 3
	case board.Queen:
		promo = 4
	}
	return uint16(m.From) | uint16(m.To)<<6 | promo<<12
}

func decodeMove(encoded uint16) (from, to board.Square, promo board.Piece, ok bool) {
	if encoded == 0 {
		return 0, 0, board.NoPiece, false
	}
	from = board.Square(encoded & 0x3f)
	to = board.Square((encoded >> 6) & 0x3f)
	switch (encoded >> 12) & 0xf {
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
	return from, to, promo, true
}

const minTTEntries = 1024

// table is the standard TranspositionTable implementation: a flat power-of-two-sized slice,
// depth-preferred replacement with generation-based aging, and a single mutex guarding every
// operation.
type table struct {
	mu         sync.Mutex
	entries    []entry
	generation uint8
	sizeMB     int
}

// NewTranspositionTable allocates a table sized to approximately sizeMB megabytes, rounded
// down to a power of two entry count with a floor of minTTEntries.
func NewTranspositionTable(sizeMB int) TranspositionTable {
	const entrySize = 16 // bytes budgeted per entry; the entry struct itself occupies 8

	num := (sizeMB * 1024 * 1024) / entrySize
	n := 1
	for n*2 <= num {
		n *= 2
	}
	if n < minTTEntries {
		n = minTTEntries
	}
	return &table{entries: make([]entry, n), sizeMB: sizeMB}
}

func (t *table) index(hash uint64) int {
	return int(hash) & (len(t.entries) - 1)
}

func (t *table) Probe(hash uint64) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[t.index(hash)]
	if !e.matches(hash) || e.isEmpty() {
		return Entry{}, false
	}

	from, to, promo, hasMove := decodeMove(e.bestMove)
	return Entry{
		Score:     score.Score(e.score),
		BestFrom:  from,
		BestTo:    to,
		BestPromo: promo,
		HasMove:   hasMove,
		Depth:     int(e.depth),
		Bound:     e.bound(),
	}, true
}

func (t *table) Store(hash uint64, best board.Move, hasMove bool, s score.Score, depth int, bound Bound) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.index(hash)
	existing := t.entries[idx]

	replace := existing.isEmpty() || existing.generation() != t.generation || depth >= int(existing.depth)
	if !replace {
		return
	}

	var encoded uint16
	if hasMove {
		encoded = encodeMove(best)
	}
	t.entries[idx] = entry{
		key:         uint16(hash >> 48),
		bestMove:    encoded,
		score:       int16(s),
		depth:       int8(depth),
		boundAndAge: uint8(bound) | (t.generation&0x3f)<<2,
	}
}

func (t *table) NewSearch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation = (t.generation + 1) & 0x3f
}

func (t *table) Used() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	sample := len(t.entries)
	if sample > 1000 {
		sample = 1000
	}
	var used int
	for _, e := range t.entries[:sample] {
		if !e.isEmpty() && e.generation() == t.generation {
			used++
		}
	}
	return float64(used) / float64(sample)
}

func (t *table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		t.entries[i] = entry{}
	}
	t.generation = 0
}

func (t *table) Resize(sizeMB int) {
	fresh := NewTranspositionTable(sizeMB).(*table)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = fresh.entries
	t.sizeMB = fresh.sizeMB
	t.generation = 0
}

func (t *table) Prefetch(hash uint64) {
	_ = t.index(hash)
}
