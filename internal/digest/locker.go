package digest

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockHeld is returned by Acquire when another holder owns the key.
var ErrLockHeld = errors.New("digest lock held by another run")

// ReleaseFunc gives up a lock obtained from Acquire.
type ReleaseFunc func(ctx context.Context) error

// Locker provides mutual exclusion for digest runs.
type Locker interface {
	// Acquire takes the lock for key or returns ErrLockHeld. ttl bounds how
	// long a crashed holder can keep the lock; implementations may ignore it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

// Acquire implements Locker. ttl is ignored.
func (l *LocalLocker) Acquire(_ context.Context, key string, _ time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrLockHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
