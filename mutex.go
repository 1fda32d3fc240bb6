package threadsync

import (
	"sync"
	"sync/atomic"
)

// Mutex is a mutual exclusion lock, which may optionally be recursive, see
// NewMutex. The zero value is an unlocked, non-recursive mutex.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	mu        sync.Mutex
	owner     atomic.Uint64 // goroutine id, recursive only
	depth     int           // guarded by mu, recursive only
	recursive bool
}

var _ sync.Locker = (*Mutex)(nil)

// NewMutex initializes a new Mutex. If recursive is true, the goroutine
// holding the lock may lock it again, and must unlock it once per lock.
func NewMutex(recursive bool) *Mutex {
	return &Mutex{recursive: recursive}
}

// Recursive reports whether the mutex permits re-acquisition by its holder.
func (x *Mutex) Recursive() bool {
	return x.recursive
}

// Lock acquires the mutex, blocking until it is available. Locking a
// non-recursive mutex already held by the caller deadlocks.
func (x *Mutex) Lock() {
	if !x.recursive {
		x.mu.Lock()
		return
	}
	id := goroutineID()
	if x.owner.Load() == id {
		x.depth++
		return
	}
	x.mu.Lock()
	x.owner.Store(id)
	x.depth = 1
}

// TryLock attempts to acquire the mutex without blocking, reporting whether
// it succeeded.
func (x *Mutex) TryLock() bool {
	if !x.recursive {
		return x.mu.TryLock()
	}
	id := goroutineID()
	if x.owner.Load() == id {
		x.depth++
		return true
	}
	if !x.mu.TryLock() {
		return false
	}
	x.owner.Store(id)
	x.depth = 1
	return true
}

// Unlock releases the mutex. For a recursive mutex, the lock is released only
// once it has been unlocked as many times as it was locked, and a panic
// (ErrNotOwner) occurs if the caller does not hold it.
func (x *Mutex) Unlock() {
	if !x.recursive {
		x.mu.Unlock()
		return
	}
	if x.owner.Load() != goroutineID() {
		fatal(ErrNotOwner)
	}
	x.depth--
	if x.depth == 0 {
		x.owner.Store(0)
		x.mu.Unlock()
	}
}

// Locked reports whether the mutex is held. It never blocks, and the result
// may be stale by the time it is returned. For a recursive mutex held by the
// caller, it reports true.
func (x *Mutex) Locked() bool {
	if x.TryLock() {
		if x.recursive && x.depth > 1 {
			x.Unlock()
			return true
		}
		x.Unlock()
		return false
	}
	return true
}
