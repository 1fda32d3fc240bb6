package threadsync

import (
	"container/list"
	"math"
	"sync"
	"time"
)

// Forever may be passed to Condition.WaitTimeout to wait without a timeout.
const Forever time.Duration = math.MaxInt64

// Condition is a condition variable, which may be used with any
// [sync.Locker], including Mutex and SpinLock. The zero value is ready to use.
//
// Signals are not buffered: Signal and Broadcast affect only goroutines
// already waiting. Waiters are woken in no guaranteed order, and callers
// must re-check their predicate after Wait returns.
//
// A Condition must not be copied after first use.
type Condition struct {
	mu      sync.Mutex
	waiters list.List // of chan struct{}, closed to wake
}

// Signal wakes one waiting goroutine, if there are any.
func (x *Condition) Signal() {
	x.mu.Lock()
	if e := x.waiters.Front(); e != nil {
		close(x.waiters.Remove(e).(chan struct{}))
	}
	x.mu.Unlock()
}

// Broadcast wakes every goroutine waiting at the time of the call.
func (x *Condition) Broadcast() {
	x.mu.Lock()
	for e := x.waiters.Front(); e != nil; e = x.waiters.Front() {
		close(x.waiters.Remove(e).(chan struct{}))
	}
	x.mu.Unlock()
}

// Wait atomically unlocks l and suspends the caller until woken by Signal or
// Broadcast, then locks l before returning. It always returns true.
//
// The caller must hold l exactly once (a recursive Mutex held more than once
// will not be released).
func (x *Condition) Wait(l sync.Locker) bool {
	return x.WaitTimeout(l, Forever)
}

// WaitTimeout behaves like Wait, but returns false if d elapses before the
// caller is woken. A non-positive d times out immediately, after releasing
// and re-acquiring l. Forever disables the timeout. In all cases, l is held
// when WaitTimeout returns.
func (x *Condition) WaitTimeout(l sync.Locker, d time.Duration) bool {
	ch := make(chan struct{})

	// enqueue before unlocking, so that a signal sent immediately after the
	// caller's critical section cannot be missed
	x.mu.Lock()
	e := x.waiters.PushBack(ch)
	x.mu.Unlock()

	l.Unlock()
	defer l.Lock()

	if d == Forever {
		<-ch
		return true
	}

	if d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ch:
			timer.Stop()
			return true
		case <-timer.C:
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	select {
	case <-ch:
		// signaled concurrently with the timeout, and already dequeued
		return true
	default:
		x.waiters.Remove(e)
		return false
	}
}
