package threadsync

import (
	"sync"
)

// RWLock is a reader/writer lock, preferring writers: once a writer is
// blocked waiting for the lock, new readers block until that writer has
// acquired and released it, so a steady stream of readers cannot starve
// writers. The zero value is unlocked.
//
// An RWLock must not be copied after first use.
type RWLock struct {
	// sync.RWMutex is writer-preferring, per its documented contract
	mu sync.RWMutex
}

// ReadLock acquires a shared lock, blocking while a writer holds or is
// waiting for the lock.
func (x *RWLock) ReadLock() { x.mu.RLock() }

// TryReadLock attempts to acquire a shared lock without blocking.
func (x *RWLock) TryReadLock() bool { return x.mu.TryRLock() }

// ReadUnlock releases a shared lock.
func (x *RWLock) ReadUnlock() { x.mu.RUnlock() }

// WriteLock acquires the exclusive lock, blocking until no reader or writer
// holds it.
func (x *RWLock) WriteLock() { x.mu.Lock() }

// TryWriteLock attempts to acquire the exclusive lock without blocking.
func (x *RWLock) TryWriteLock() bool { return x.mu.TryLock() }

// WriteUnlock releases the exclusive lock.
func (x *RWLock) WriteUnlock() { x.mu.Unlock() }

// ReadLocker returns a [sync.Locker] acquiring shared locks, e.g. for use
// with Condition.
func (x *RWLock) ReadLocker() sync.Locker { return x.mu.RLocker() }

// Locker returns a [sync.Locker] acquiring the exclusive lock.
func (x *RWLock) Locker() sync.Locker { return &x.mu }
