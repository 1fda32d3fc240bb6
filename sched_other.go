//go:build !linux

package threadsync

import (
	"runtime"
)

// currentThreadID falls back to the goroutine id, which is stable for a
// Thread run, since runs are locked to their OS thread.
func currentThreadID() ThreadID {
	return ThreadID(goroutineID())
}

func processors() int {
	return runtime.NumCPU()
}

func setThreadPriority(ThreadID, Priority) error { return ErrUnsupported }

func threadPriority(ThreadID) (Priority, error) { return PriorityError, ErrUnsupported }

func setThreadPolicy(ThreadID, Policy) error { return ErrUnsupported }

func threadPolicy(ThreadID) (Policy, error) { return PolicyError, ErrUnsupported }
