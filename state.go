package threadsync

import (
	"github.com/joeycumines/go-threadsync/atomics"
)

// ThreadState represents the lifecycle state of a Thread.
//
// State Machine:
//
//	ThreadUnstarted → ThreadRunning           [Start]
//	ThreadRunning   → ThreadFinished          [Runner returns, or Exit]
//	ThreadRunning   → ThreadCanceled          [Cancel]
//	ThreadRunning   → ThreadDetached          [Detach]
//	ThreadFinished  → ThreadJoined            [Join]
//	ThreadFinished  → ThreadDetached          [Detach]
//	ThreadJoined, ThreadDetached, ThreadCanceled → ThreadRunning [Start]
//
// A failed Start leaves the previous state unchanged.
type ThreadState uint64

const (
	// ThreadUnstarted indicates the thread has never been started.
	ThreadUnstarted ThreadState = iota
	// ThreadRunning indicates the Runner is executing.
	ThreadRunning
	// ThreadFinished indicates the run has ended, but has not been joined.
	ThreadFinished
	// ThreadJoined indicates the last run was consumed by Join.
	ThreadJoined
	// ThreadDetached indicates the last run was detached.
	ThreadDetached
	// ThreadCanceled indicates the last run was canceled.
	ThreadCanceled
)

// String returns a human-readable representation of the state.
func (s ThreadState) String() string {
	switch s {
	case ThreadUnstarted:
		return "Unstarted"
	case ThreadRunning:
		return "Running"
	case ThreadFinished:
		return "Finished"
	case ThreadJoined:
		return "Joined"
	case ThreadDetached:
		return "Detached"
	case ThreadCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// runState is the lock-free state of a single run, which is mutated from
// both sides: by the run itself (on completion), and by the owning Thread
// (on cancel).
//
// Only ThreadRunning, ThreadFinished, and ThreadCanceled are used.
type runState struct {
	v uint64
}

// Load returns the current state atomically.
func (s *runState) Load() ThreadState {
	return ThreadState(atomics.Load(&s.v))
}

// Store atomically stores a new state, without validation.
func (s *runState) Store(state ThreadState) {
	atomics.Set(&s.v, uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was successful.
func (s *runState) TryTransition(from, to ThreadState) bool {
	return atomics.BoolCas(&s.v, uint64(from), uint64(to))
}
