package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/kitchenctl/internal/errors"
)

const (
	pidFile = "kitchenctl.pid"
)

// Write writes the current process ID to a PID file in the temp dir.
func Write() error {
	return WriteIn(os.TempDir())
}

// Remove removes the PID file from the temp dir.
func Remove() error {
	return RemoveIn(os.TempDir())
}

// WriteIn writes the current process ID to a PID file in dir. It fails
// with ErrAlreadyRunning if the recorded process is still alive.
func WriteIn(dir string) error {
	errFactory := errors.New()
	path := filepath.Join(dir, pidFile)

	if bytes, err := os.ReadFile(path); err == nil {
		// A garbled file is treated as stale
		if pid, err := strconv.Atoi(strings.TrimSpace(string(bytes))); err == nil && alive(pid) {
			return errFactory.WithData(errors.ErrAlreadyRunning, pid)
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// RemoveIn removes the PID file from dir.
func RemoveIn(dir string) error {
	errFactory := errors.New()
	path := filepath.Join(dir, pidFile)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
