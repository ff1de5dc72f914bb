package engine_test

import (
	"testing"

	"github.com/ahcp-project/ahcpd/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestValidity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		origin      uint32
		expires     uint32
		age         uint32
		now         uint32
		clockBroken bool
		want        uint32
	}{
		{
			name: "fresh", origin: 1000, expires: 1600, age: 100, now: 1200,
			want: 400,
		},
		{
			name: "expired_by_clock", origin: 1000, expires: 1600, age: 100, now: 1700,
			want: 0,
		},
		{
			name: "expired_by_age", origin: 1000, expires: 1600, age: 700, now: 1200,
			want: 0,
		},
		{
			name: "broken_clock_skips_now", origin: 1000, expires: 1600, age: 100,
			now: 500000, clockBroken: true,
			want: 500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := engine.Validity(tc.origin, tc.expires, tc.age, tc.now, tc.clockBroken)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSane(t *testing.T) {
	t.Parallel()

	assert.True(t, engine.Sane(1000, 1600, 1200, false))
	assert.False(t, engine.Sane(1600, 1000, 1200, false), "origin after expires")
	assert.False(t, engine.Sane(2000, 1200, 1200, false), "origin too far in the future")
	assert.False(t, engine.Sane(100, 500, 1200, false), "expires too far in the past")
	assert.True(t, engine.Sane(2000, 1200, 1200, true), "sanity suppressed under broken clock")
}
