package threadsync

import (
	"runtime"
	"sync"

	"github.com/joeycumines/go-threadsync/atomics"
)

const (
	// spinBusyIterations is the number of failed attempts before yielding.
	spinBusyIterations = 64
	// spinMaxBackoff caps the number of yields between attempts.
	spinMaxBackoff = 16
)

// SpinLock is a busy-waiting lock, for critical sections of only a handful
// of instructions. It is neither recursive nor fair. The zero value is
// unlocked.
//
// Each SpinLock occupies a full cache line, to avoid false sharing between
// adjacent locks.
type SpinLock struct { // betteralign:ignore
	_ noCopy
	v uint32
	_ [sizeOfCacheLine - sizeOfSpinWord]byte //nolint:unused
}

var _ sync.Locker = (*SpinLock)(nil)

// Lock acquires the lock, spinning until it is available. The goroutine
// yields the processor between attempts, once contention persists.
func (x *SpinLock) Lock() {
	if atomics.BoolCas(&x.v, 0, 1) {
		return
	}
	x.lockSlow()
}

func (x *SpinLock) lockSlow() {
	backoff := 1
	for spins := 0; ; spins++ {
		if atomics.Load(&x.v) == 0 && atomics.BoolCas(&x.v, 0, 1) {
			return
		}
		if spins < spinBusyIterations {
			continue
		}
		for range backoff {
			runtime.Gosched()
		}
		if backoff < spinMaxBackoff {
			backoff <<= 1
		}
	}
}

// TryLock attempts to acquire the lock without spinning.
func (x *SpinLock) TryLock() bool {
	return atomics.BoolCas(&x.v, 0, 1)
}

// Unlock releases the lock.
func (x *SpinLock) Unlock() {
	atomics.Set(&x.v, 0)
}

// Locked reports whether the lock is held. The result may be stale by the
// time it is returned.
func (x *SpinLock) Locked() bool {
	if x.TryLock() {
		x.Unlock()
		return false
	}
	return true
}

// noCopy may be embedded into structs which must not be copied after first
// use, see https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
