package engine

import "sync"

// lockSet provides non-blocking exclusive locks keyed by string.
//
// TryAcquire never waits: a held key fails immediately. Keys are sign
// position keys, stable across registry reloads.
type lockSet struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLockSet() *lockSet {
	return &lockSet{held: make(map[string]struct{})}
}

// TryAcquire takes the lock for key if it is free.
func (l *lockSet) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Release frees the lock for key. Safe to call for an unheld key.
func (l *lockSet) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
