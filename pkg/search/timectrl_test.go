package search_test

import (
	"testing"
	"time"

	"github.com/corvidchess/corvid/pkg/board"
	"github.com/corvidchess/corvid/pkg/search"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
)

func TestTimeControlFixedMoveTime(t *testing.T) {
	tc := search.TimeControl{
		MoveTime:     lang.Some(1000 * time.Millisecond),
		MoveOverhead: 50 * time.Millisecond,
	}

	soft, hard := tc.Limits(board.White)
	assert.Equal(t, 874*time.Millisecond, soft)
	assert.Equal(t, 931*time.Millisecond, hard)
}

func TestTimeControlClock(t *testing.T) {
	tc := search.TimeControl{
		White:        60 * time.Second,
		Black:        60 * time.Second,
		WhiteInc:     time.Second,
		BlackInc:     time.Second,
		MoveOverhead: 10 * time.Millisecond,
	}

	soft, hard := tc.Limits(board.White)
	assert.Greater(t, soft, 2*time.Second)
	assert.Less(t, soft, 4*time.Second)
	assert.GreaterOrEqual(t, hard, soft)
}

func TestTimeControlMovesToGo(t *testing.T) {
	tc := search.TimeControl{
		White:        10 * time.Second,
		Black:        10 * time.Second,
		Moves:        5,
		MoveOverhead: 0,
	}

	soft, hard := tc.Limits(board.White)
	assert.Positive(t, soft)
	assert.GreaterOrEqual(t, hard, soft)
}
