package runlock

import (
	"fmt"

	"github.com/gofrs/flock"

	"webmill/internal/config"
	"webmill/internal/services"
)

// Lock guards against two conversion runs sharing one state directory.
type Lock struct {
	flock *flock.Flock
	path  string
}

// Acquire takes the run lock, creating the state directory when needed.
// A lock held by another process reports as a validation error so the
// caller can print it and exit instead of treating it as a crash.
func Acquire(cfg *config.Config) (*Lock, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	path := cfg.LockPath()
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "runlock", "acquire",
			fmt.Sprintf("lock %s", path), err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "runlock", "acquire",
			fmt.Sprintf("another webmill run is already using %s", path), nil)
	}
	return &Lock{flock: fl, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
