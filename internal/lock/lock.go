// Package lock implements the single-instance guarantee: an exclusive,
// non-blocking advisory lock on a well-known file that also records the
// owner's pid.
//
// The lock is never released explicitly. It lives exactly as long as the
// process holding it; the OS drops it when the process exits.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// FileMode is the permission used when the lock file has to be created.
const FileMode fs.FileMode = 0o640

// ErrLocked reports that another process already holds the lock.
var ErrLocked = errors.New("lock held by another process")

// ///////////////////////////////////////////////
// Handle
// ///////////////////////////////////////////////

// Handle is a held instance lock. Keep it reachable for the life of the
// process: dropping the last reference lets the runtime close the file, and
// closing the file releases the lock.
type Handle struct {
	// Path is the lock file path as given to [Acquire].
	Path string
	// PID is the process id written into the lock file.
	PID int

	fl *flock.Flock
}

// ///////////////////////////////////////////////
// Acquire
// ///////////////////////////////////////////////

// A [Probe] holds the lock for a moment. Acquire retries a contended lock a
// few times so a daemon starting during a status check does not mistake the
// probe for a running instance.
const (
	contendedRetries    = 3
	contendedRetryDelay = 25 * time.Millisecond
)

// Acquire opens (creating if needed) the lock file at path, takes an
// exclusive non-blocking advisory lock on it and replaces its contents with
// the current pid followed by a newline.
//
// The lock is flock(2) on Unix: it belongs to the open file description, so
// other descriptors on the same file (readers of the pid, for instance) can
// be opened and closed without releasing it.
//
// When another process holds the lock the returned error wraps [ErrLocked].
// Any other error means the lock file itself is unusable.
func Acquire(path string) (*Handle, error) {
	fl := flock.New(path,
		flock.SetFlag(os.O_CREATE|os.O_RDWR),
		flock.SetPermissions(FileMode),
	)

	for attempt := 0; ; attempt++ {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock file: %w", err)
		}
		if locked {
			break
		}
		if attempt == contendedRetries {
			return nil, fmt.Errorf("lock file %s: %w", path, ErrLocked)
		}
		time.Sleep(contendedRetryDelay)
	}

	pid := os.Getpid()
	if err := writePID(fl.Fh(), pid); err != nil {
		_ = fl.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Handle{Path: path, PID: pid, fl: fl}, nil
}

// writePID truncates f and writes pid as a decimal line through the locked
// descriptor.
func writePID(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		return err
	}
	return f.Sync()
}

// ///////////////////////////////////////////////
// Inspection
// ///////////////////////////////////////////////

// ReadPID returns the pid recorded in the lock file at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read lock file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse lock file %s: %w", path, err)
	}
	return pid, nil
}

// Status describes who, if anyone, holds the lock.
type Status struct {
	// Held is true when some process holds the lock.
	Held bool
	// PID is the pid recorded by the holder; zero when not held.
	PID int
}

// Probe reports whether a live process holds the lock at path by trying to
// take it on a separate descriptor. A missing file means nobody holds it.
// When the probe wins the lock it releases it straight away.
//
// For that moment the probe is the holder, and a daemon starting right then
// sees a contended lock. [Acquire] retries briefly to ride that out.
func Probe(path string) (Status, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("stat lock file: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return Status{}, fmt.Errorf("probe lock file: %w", err)
	}
	if locked {
		_ = fl.Unlock()
		return Status{}, nil
	}

	pid, err := ReadPID(path)
	if err != nil {
		return Status{Held: true}, err
	}
	return Status{Held: true, PID: pid}, nil
}
