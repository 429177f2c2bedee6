package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/bkmsync/internal/config"
)

func TestTokenState_Missing(t *testing.T) {
	assert.Equal(t, tokenStateMissing, tokenState(filepath.Join(t.TempDir(), "nonexistent.json")))
}

func TestTokenState_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, config.SaveToken(path, &oauth2.Token{AccessToken: "tok"}))

	assert.Equal(t, tokenStateValid, tokenState(path))
}

func TestLockState_FreeWhenNoLockFile(t *testing.T) {
	state, pid := lockState(filepath.Join(t.TempDir(), "nonexistent.lock"))
	assert.Equal(t, lockStateFree, state)
	assert.Zero(t, pid)
}

func TestLockState_HeldByLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.lock")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644)) // pid 1 (init) is always alive

	state, pid := lockState(path)
	assert.Equal(t, lockStateHeld, state)
	assert.Equal(t, 1, pid)
}

func TestLockState_StaleForDeadProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.lock")
	// PID 2^30 is never a real process.
	require.NoError(t, os.WriteFile(path, []byte("1073741824\n"), 0o644))

	state, pid := lockState(path)
	assert.Equal(t, lockStateStale, state)
	assert.Equal(t, 1073741824, pid)
}

func TestProcessAlive_CurrentProcessIsAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
}

func TestProcessAlive_UnknownPIDIsNotAlive(t *testing.T) {
	assert.False(t, processAlive(1073741824))
}

func TestLastSyncTime_EmptyWhenDBMissing(t *testing.T) {
	assert.Empty(t, lastSyncTime(filepath.Join(t.TempDir(), "missing.db")))
}

func TestLastSyncTime_ReflectsFileModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got := lastSyncTime(path)
	assert.NotEmpty(t, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, formatTime(info.ModTime()), got)
}

func TestProcessAlive_SignalZeroDoesNotKill(t *testing.T) {
	// Signal 0 is a no-op existence probe, not a real kill.
	pid := os.Getpid()
	require.NoError(t, syscall.Kill(pid, syscall.Signal(0)))
	assert.True(t, processAlive(pid))
}
