// Package score contains the Score type used throughout search and evaluation.
package score

import "fmt"

// Score is a search/evaluation value: either a centipawn score or a mate
// distance encoded around the Mate constant. Stored as an int16 for packing
// into transposition table entries.
type Score int16

const (
	// None represents an absent/uninitialized score.
	None Score = -32001
	// Infinity is used as the initial alpha-beta window bound.
	Infinity Score = 32000
	// Mate is the base mate score. Mate in N plies is encoded as Mate-N.
	Mate Score = 31000
	// Draw is the score of a known draw.
	Draw Score = 0

	// mateInMax and matedInMax bound the range recognized as a mate score,
	// leaving headroom so that to_tt/from_tt ply adjustment never overflows
	// into the Infinity/None range.
	mateInMax  Score = Mate - 1000
	matedInMax Score = -Mate + 1000
)

// CP returns a centipawn score.
func CP(cp int) Score {
	return Score(cp)
}

// MateIn returns a score representing mate in the given number of plies
// (not moves) from the current search root.
func MateIn(ply int) Score {
	return Mate - Score(ply)
}

// MatedIn returns a score representing being mated in the given number of
// plies from the current search root.
func MatedIn(ply int) Score {
	return -Mate + Score(ply)
}

// Raw returns the underlying int value.
func (s Score) Raw() int {
	return int(s)
}

// IsMate returns true iff the score represents a winning mate.
func (s Score) IsMate() bool {
	return s >= mateInMax
}

// IsMated returns true iff the score represents a losing mate.
func (s Score) IsMated() bool {
	return s <= matedInMax
}

// IsMateScore returns true iff the score represents either side of a mate.
func (s Score) IsMateScore() bool {
	return s.IsMate() || s.IsMated()
}

// MateDistance returns the number of plies to mate and true, if the score is
// a mate score.
func (s Score) MateDistance() (int, bool) {
	switch {
	case s.IsMate():
		return int(Mate - s), true
	case s.IsMated():
		return int(s + Mate), true
	default:
		return 0, false
	}
}

// ToTT adjusts a mate score to be relative to the given ply for storage in
// the transposition table, where scores must be position-relative rather
// than root-relative.
func (s Score) ToTT(ply int) Score {
	switch {
	case s.IsMate():
		return s + Score(ply)
	case s.IsMated():
		return s - Score(ply)
	default:
		return s
	}
}

// FromTT reverses ToTT when reading a score back out of the transposition
// table at the given ply.
func (s Score) FromTT(ply int) Score {
	switch {
	case s.IsMate():
		return s - Score(ply)
	case s.IsMated():
		return s + Score(ply)
	default:
		return s
	}
}

func (s Score) String() string {
	if moves, ok := s.MateDistance(); ok {
		if s.IsMate() {
			return fmt.Sprintf("mate %v", (moves+1)/2)
		}
		return fmt.Sprintf("mate -%v", (moves+1)/2)
	}
	return fmt.Sprintf("cp %v", int(s))
}
