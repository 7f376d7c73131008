package services

import (
	"errors"
	"sync"
	"time"
)

// errLockTimeout is reported when a webhook could not take the per-id lock
// within the configured wait.
var errLockTimeout = errors.New("transaction lock wait timed out")

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// txLocker serializes all transitions for a single provider transaction id.
// Operations on different ids proceed independently. Acquisition has a
// bounded wait so a stuck holder cannot block webhook processing forever.
type txLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func newTxLocker() *txLocker {
	return &txLocker{entries: make(map[string]*lockEntry)}
}

func (l *txLocker) acquire(key string, wait time.Duration) error {
	e := l.checkout(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-timer.C:
		l.checkin(key)
		return errLockTimeout
	}
}

func (l *txLocker) release(key string) {
	l.mu.Lock()
	e := l.entries[key]
	l.mu.Unlock()

	<-e.ch
	l.checkin(key)
}

func (l *txLocker) checkout(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *txLocker) checkin(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
