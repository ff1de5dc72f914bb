package configurator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
	"github.com/ahcp-project/ahcpd/internal/configurator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptExiting(t *testing.T, code int) (path string) {
	t.Helper()

	dir := t.TempDir()
	path = filepath.Join(dir, "apply.sh")

	content := "#!/bin/sh\nexit " + string(rune('0'+code)) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))

	return path
}

func TestBridge_ApplyStartFailure(t *testing.T) {
	t.Parallel()

	b := &configurator.Bridge{Script: scriptExiting(t, 1), PID: os.Getpid()}

	err := b.Apply(context.Background(), configurator.ActionStart, &ahcpconf.Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, configurator.ErrStartFailed)
}

func TestBridge_ApplyStopFailureIsFatalClass(t *testing.T) {
	t.Parallel()

	b := &configurator.Bridge{Script: scriptExiting(t, 1), PID: os.Getpid()}

	err := b.Apply(context.Background(), configurator.ActionStop, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, configurator.ErrStopFailed)
}

func TestBridge_ApplySuccess(t *testing.T) {
	t.Parallel()

	b := &configurator.Bridge{Script: scriptExiting(t, 0), PID: os.Getpid()}

	err := b.Apply(context.Background(), configurator.ActionStart, &ahcpconf.Config{})
	assert.NoError(t, err)
}
