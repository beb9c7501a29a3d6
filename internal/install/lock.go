package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockHeld is returned when another install holds the lock.
var ErrLockHeld = errors.New("another audiowaveform install is in progress")

// errWouldBlock is returned by tryLock when the lock is held elsewhere.
var errWouldBlock = errors.New("lock held")

// Lock is an exclusive advisory lock on the install lock file. The
// operating system drops it when the holding process exits, so a crashed
// install never leaves the lock behind.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the lock at path without blocking.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := tryLock(file); err != nil {
		file.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLockHeld, path)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	// Holder details are informational; the kernel lock is authoritative.
	data := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(data), 0)
	}
	return &Lock{path: path, file: file}, nil
}

// Release drops the lock. It is safe to call twice. The lock file stays
// on disk: removing it would let a waiter holding the old file and a new
// opener both believe they own the lock.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	err := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close lock file: %w", closeErr)
	}
	return nil
}
