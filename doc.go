// Package threadsync provides thread and synchronization primitives with
// explicit, portable semantics: [Mutex] (optionally recursive), [SpinLock],
// [Semaphore], [Condition], [RWLock], [Barrier], goroutine-local storage
// ([StorageKey]), and [Thread], which owns a goroutine locked to its own OS
// thread.
//
// Atomic operations are provided by the [github.com/joeycumines/go-threadsync/atomics]
// package, which every primitive here builds on where it needs lock-free
// state.
//
// # Errors
//
// Misuse that indicates a bug in the caller, e.g. starting a [Thread] that is
// already running, or a [Barrier] with no parties, panics with an error
// matching one of the Err* sentinels, after logging it at critical level.
// Everything else that may fail, including timeouts, reports via a boolean
// result.
//
// # Threads
//
// A [Thread] runs its [Runner] on a dedicated goroutine, locked to an OS
// thread for its entire lifetime, which allows per-thread scheduling control
// (see [Thread.SetPriority] and [Thread.SetPolicy], currently supported on
// Linux). Within a run, [Self] resolves the owning [Thread]. For any goroutine
// not started via a [Thread], including the main goroutine, it returns nil.
//
// Go cannot preempt a goroutine from outside, so [Thread.Cancel] detaches the
// run and marks it finished immediately; the canceled goroutine then exits at
// its next cancellation point ([Sleep], [WakeAt], [Yield], or [TestCancel]).
//
// # Logging
//
// Diagnostics are logged via [github.com/joeycumines/logiface], see
// [SetLogger]. Logging is disabled by default.
package threadsync
