package search

import (
	"context"
	"fmt"
	"time"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// defaultMoveOverhead is subtracted from the available budget before any limit is
// computed, as a safety margin against GUI/network transmission delay.
const defaultMoveOverhead = 50 * time.Millisecond

// TimeControl represents a UCI "go" command's time budget: either a per-move fixed time,
// or a clock/increment pair with an optional moves-to-go count.
type TimeControl struct {
	// MoveTime, if set, fixes the budget for this move directly, ignoring White/Black/Moves.
	MoveTime lang.Optional[time.Duration]
	// White and Black are the remaining clock time for each side.
	White, Black time.Duration
	// WhiteInc and BlackInc are the per-move increments, if any.
	WhiteInc, BlackInc time.Duration
	// Moves is the number of moves remaining until the next time control, 0 meaning unknown
	// (rest of game / sudden death).
	Moves int
	// MoveOverhead, if positive, overrides defaultMoveOverhead. The UCI driver leaves it zero.
	MoveOverhead time.Duration
}

func (t TimeControl) overhead() time.Duration {
	if t.MoveOverhead > 0 {
		return t.MoveOverhead
	}
	return defaultMoveOverhead
}

// Limits returns the soft and hard time limits for the side to move: the search should
// stop starting new iterations past the soft limit, and must not still be running past
// the hard limit.
func (t TimeControl) Limits(c board.Color) (soft, hard time.Duration) {
	if mt, ok := t.MoveTime.V(); ok {
		available := mt - t.overhead()
		if available < 0 {
			available = 0
		}
		soft = available * 92 / 100
		hard = available * 98 / 100
		return max1(soft), max1(hard)
	}

	remainder, inc := t.White, t.WhiteInc
	if c == board.Black {
		remainder, inc = t.Black, t.BlackInc
	}

	available := remainder - t.overhead()
	if available < 0 {
		available = 0
	}

	movesToGo := t.Moves
	if movesToGo <= 0 {
		movesToGo = estimateMovesToGo(available)
	}

	base := available / time.Duration(movesToGo)
	incBonus := inc * 85 / 100

	soft = base + incBonus
	if cap := available / 3; soft > cap {
		soft = cap
	}

	hard = soft * 3
	if cap := available / 2; hard > cap {
		hard = cap
	}
	if hard < soft {
		hard = soft
	}

	const minSoft = 100 * time.Millisecond
	const minHard = 200 * time.Millisecond
	if soft < minSoft {
		soft = minSoft
	}
	if hard < minHard {
		hard = minHard
	}
	return soft, hard
}

// estimateMovesToGo guesses how many moves remain until the next time control when the
// GUI didn't say, erring toward fewer assumed moves (and so a larger per-move budget) the
// less time is left on the clock.
func estimateMovesToGo(available time.Duration) int {
	switch {
	case available > 300*time.Second:
		return 40
	case available > 120*time.Second:
		return 30
	case available > 60*time.Second:
		return 25
	case available > 30*time.Second:
		return 20
	case available > 10*time.Second:
		return 15
	default:
		return 10
	}
}

func max1(d time.Duration) time.Duration {
	if d < 1 {
		return 1
	}
	return d
}

func (t TimeControl) String() string {
	if mt, ok := t.MoveTime.V(); ok {
		return fmt.Sprintf("movetime=%v", mt)
	}
	if t.Moves == 0 {
		return fmt.Sprintf("%.1f<>%.1f", t.White.Seconds(), t.Black.Seconds())
	}
	return fmt.Sprintf("%.1f<>%.1f[moves=%v]", t.White.Seconds(), t.Black.Seconds(), t.Moves)
}

// enforceTimeControl arms the hard-limit timer, if a time control is set, and returns the
// soft limit the iterative-deepening driver should stop starting new depths at.
func enforceTimeControl(ctx context.Context, h Handle, tc lang.Optional[TimeControl], turn board.Color) (time.Duration, bool) {
	c, ok := tc.V()
	if !ok {
		return 0, false
	}

	soft, hard := c.Limits(turn)
	time.AfterFunc(hard, func() {
		h.Halt()
	})

	logw.Debugf(ctx, "Time control limits for %v: [%v; %v]", c, soft, hard)
	return soft, true
}
