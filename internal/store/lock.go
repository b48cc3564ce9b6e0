package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/codeatlas/codeatlas/internal/errs"
)

// lockAcquireTimeout is a variable so tests can shrink the wait.
var lockAcquireTimeout = 10 * time.Second

const (
	lockRetryInterval = 200 * time.Millisecond
	// staleLockAge marks a holder as abandoned when its pid file has not
	// been refreshed within this window and the process is gone.
	staleLockAge = 10 * time.Minute
)

// writerLock is the advisory single-writer lock for a store. The lock
// file records the holder's pid so abandoned locks can be reclaimed.
type writerLock struct {
	fl      *flock.Flock
	pidPath string
}

func acquireWriterLock(lockPath string) (*writerLock, error) {
	fl := flock.New(lockPath)
	pidPath := lockPath + ".pid"
	deadline := time.Now().Add(lockAcquireTimeout)

	for {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire writer lock: %w", err)
		}
		if locked {
			w := &writerLock{fl: fl, pidPath: pidPath}
			w.writePid()
			return w, nil
		}
		if reclaimStaleLock(pidPath) {
			continue
		}
		if time.Now().After(deadline) {
			return nil, errs.NewPath(errs.LockContention, lockPath,
				"another writer holds the store lock")
		}
		time.Sleep(lockRetryInterval)
	}
}

func (w *writerLock) writePid() {
	_ = os.WriteFile(w.pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func (w *writerLock) release() {
	_ = os.Remove(w.pidPath)
	_ = w.fl.Unlock()
}

// reclaimStaleLock removes the pid file of an abandoned holder: the
// recorded process no longer exists and the file is older than the
// stale threshold. Returns true when the caller should retry.
func reclaimStaleLock(pidPath string) bool {
	info, err := os.Stat(pidPath)
	if err != nil {
		return false
	}
	data, _ := os.ReadFile(pidPath)
	pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if convErr == nil && pid > 0 && processAlive(pid) {
		return false
	}
	if time.Since(info.ModTime()) < staleLockAge {
		return false
	}
	return os.Remove(pidPath) == nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}
