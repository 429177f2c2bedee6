package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const (
	lockFilePermissions = 0o644
	lockDirPermissions  = 0o755
)

// acquireLock writes the current process id to path and takes an exclusive,
// non-blocking flock on it, so that two sync runs against the same profile
// never interleave (spec §5 Resource ownership: a run owns the mapping store
// for its duration). The returned release function removes the file and
// drops the lock; callers must defer it.
func acquireLock(path string) (release func(), err error) {
	if path == "" {
		return nil, fmt.Errorf("engine: lock file path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, lockDirPermissions); err != nil {
		return nil, fmt.Errorf("engine: creating lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("engine: opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()

		return nil, fmt.Errorf("engine: another sync run holds the lock at %s", path)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()

		return nil, fmt.Errorf("engine: truncating lock file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()

		return nil, fmt.Errorf("engine: writing lock file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return nil, fmt.Errorf("engine: syncing lock file: %w", err)
	}

	return func() {
		os.Remove(path)
		f.Close()
	}, nil
}

// ReadLockPID reads back the PID recorded in a lock file, used by the status
// command to report whether the recorded owner is still alive.
func ReadLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("engine: reading lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("engine: invalid PID in %s: %w", path, err)
	}

	return pid, nil
}
