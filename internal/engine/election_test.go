package engine_test

import (
	"testing"

	"github.com/ahcp-project/ahcpd/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestShouldAdopt_NoCurrentData(t *testing.T) {
	t.Parallel()

	assert.True(t, engine.ShouldAdopt(false, 0, 0, 1500, 600, 600, true))
}

func TestShouldAdopt_RejectsInvalidIncoming(t *testing.T) {
	t.Parallel()

	assert.False(t, engine.ShouldAdopt(true, 1000, 800, 1500, 0, 600, true))
}

func TestShouldAdopt_RejectsOlderOrigin(t *testing.T) {
	t.Parallel()

	assert.False(t, engine.ShouldAdopt(true, 1500, 800, 1000, 600, 600, true))
}

func TestShouldAdopt_SamePayloadAlwaysRefreshed(t *testing.T) {
	t.Parallel()

	// Same payload, just newer metadata: no hysteresis risk, so it's
	// adopted even though the window check would otherwise fail it.
	assert.True(t, engine.ShouldAdopt(true, 1000, 800, 1500, 50, 600, false))
}

func TestShouldAdopt_HysteresisAboveHalfWindowAccepted(t *testing.T) {
	t.Parallel()

	// Current data still has ample validity (800s); the incoming payload's
	// own remaining validity (600) is at least half its own window (600/2
	// = 300), so it is adopted.
	assert.True(t, engine.ShouldAdopt(true, 1000, 800, 1500, 600, 600, true))
}

func TestShouldAdopt_HysteresisBelowHalfWindowRejected(t *testing.T) {
	t.Parallel()

	// Incoming remaining validity (50) is below half its own window
	// (200/2 = 100): rejected despite the higher origin.
	assert.False(t, engine.ShouldAdopt(true, 1000, 800, 1500, 50, 200, true))
}

func TestShouldAdopt_LowCurrentValiditySkipsHysteresis(t *testing.T) {
	t.Parallel()

	// Current data is nearly expired (< 10s left): adopt the newer origin
	// unconditionally, even though its own half-window check would fail.
	assert.True(t, engine.ShouldAdopt(true, 1000, 5, 1500, 50, 600, true))
}
