package ahcpclock_test

import (
	"testing"
	"time"

	"github.com/ahcp-project/ahcpd/internal/ahcpclock"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/stretchr/testify/assert"
)

type constClock struct {
	t time.Time
}

func (c constClock) Now() (now time.Time) { return c.t }

var _ timeutil.Clock = constClock{}

func TestClock_Broken(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		now  time.Time
		want bool
	}{{
		name: "sane",
		now:  time.Unix(1_700_000_000, 0),
		want: false,
	}, {
		name: "broken",
		now:  time.Unix(500_000, 0),
		want: true,
	}, {
		name: "boundary",
		now:  time.Unix(1_200_000_000, 0),
		want: false,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			clk := ahcpclock.New(constClock{t: tc.now})
			assert.Equal(t, tc.want, clk.Broken())
			assert.Equal(t, tc.want, ahcpclock.IsBroken(tc.now))
		})
	}
}

func TestClock_Now(t *testing.T) {
	t.Parallel()

	clk := ahcpclock.New(constClock{t: time.Unix(1_700_000_000, 0)})
	assert.Equal(t, uint32(1_700_000_000), clk.Now())
}
