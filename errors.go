package threadsync

import (
	"errors"
)

var (
	// ErrThreadRunning indicates Thread.Start was called on a running thread.
	ErrThreadRunning = errors.New(`threadsync: thread already running`)

	// ErrThreadAttached indicates Thread.Start was called on a thread whose
	// previous run has finished, but has been neither joined nor detached.
	ErrThreadAttached = errors.New(`threadsync: thread still attached`)

	// ErrNotSelf indicates a method that may only be called by the thread on
	// itself (e.g. Thread.Exit) was called from another goroutine.
	ErrNotSelf = errors.New(`threadsync: not called by the thread itself`)

	// ErrStackSize indicates a negative stack size was passed to Thread.Start.
	ErrStackSize = errors.New(`threadsync: negative stack size`)

	// ErrNotOwner indicates a recursive Mutex was unlocked by a goroutine
	// other than the one holding it.
	ErrNotOwner = errors.New(`threadsync: mutex not held by caller`)

	// ErrBarrierCount indicates a Barrier was constructed with fewer than one
	// party.
	ErrBarrierCount = errors.New(`threadsync: barrier count must be at least 1`)

	// ErrSemaphoreValue indicates a Semaphore was constructed with a negative
	// initial count.
	ErrSemaphoreValue = errors.New(`threadsync: semaphore value must not be negative`)

	// ErrClosed is returned by Close methods called more than once.
	ErrClosed = errors.New(`threadsync: closed`)

	// ErrNilRunner is returned by NewThread if the Runner is nil.
	ErrNilRunner = errors.New(`threadsync: nil runner`)

	// ErrUnsupported indicates an operation is not supported on the current
	// platform, or for the current configuration (e.g. scheduling policy).
	ErrUnsupported = errors.New(`threadsync: unsupported`)
)

// fatal reports a programmer error. It does not return.
func fatal(err error) {
	getLogger().Crit().
		Err(err).
		Log(`fatal usage error`)
	panic(err)
}
