package threadsync

import (
	"fmt"
)

type (
	// Semaphore is a counting semaphore. Instances must be initialized using
	// NewSemaphore, and should be closed once no longer needed.
	//
	// Waiters are woken in no guaranteed order.
	Semaphore struct {
		backend semaphoreBackend
	}

	// semaphoreBackend models the platform-specific implementation. The
	// native backend for the build is selected by newNativeSemaphore.
	semaphoreBackend interface {
		wait() bool
		tryWait() bool
		post() bool
		// value returns -1 if there is no way to query the count
		value() int
		close() error
	}
)

// NewSemaphore initializes a Semaphore with the given count, using the
// platform's native backend, where available. If the native backend cannot
// be initialized (e.g. due to resource exhaustion), a portable implementation
// is used instead. A panic (matching ErrSemaphoreValue) occurs if initial is
// negative.
func NewSemaphore(initial int) *Semaphore {
	if initial < 0 {
		fatal(fmt.Errorf(`%w: %d`, ErrSemaphoreValue, initial))
	}
	backend, err := newNativeSemaphore(initial)
	if err != nil {
		warning(`semaphore fallback`).
			Err(err).
			Int(`initial`, initial).
			Log(`native semaphore unavailable, using portable fallback`)
		backend = newPortableSemaphore(initial)
	}
	return &Semaphore{backend: backend}
}

// Wait blocks until the count is positive, then decrements it. It returns
// false only if the semaphore has been closed.
func (x *Semaphore) Wait() bool { return x.backend.wait() }

// TryWait decrements the count if it is positive, without blocking,
// reporting whether it did.
func (x *Semaphore) TryWait() bool { return x.backend.tryWait() }

// Post increments the count, waking at most one waiter. It returns false if
// the semaphore has been closed, or the count cannot be incremented.
func (x *Semaphore) Post() bool { return x.backend.post() }

// Value returns a snapshot of the count, or -1 if it could not be queried
// (e.g. the Linux eventfd backend, without procfs).
func (x *Semaphore) Value() int { return x.backend.value() }

// Close releases any native resources, causing blocked and subsequent calls
// to Wait to return false. Calling Close more than once returns ErrClosed.
func (x *Semaphore) Close() error { return x.backend.close() }
