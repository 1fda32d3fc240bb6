package threadsync

import (
	"fmt"
)

// Barrier is a reusable rendezvous point for a fixed number of goroutines.
// Instances must be initialized using NewBarrier.
type Barrier struct {
	mu         Mutex
	cond       Condition
	generation uint64 // incremented each time the barrier releases
	threshold  int
	counter    int // remaining arrivals, for the current generation
}

// NewBarrier initializes a Barrier for count parties. A panic (matching
// ErrBarrierCount) occurs if count is less than one.
func NewBarrier(count int) *Barrier {
	if count < 1 {
		fatal(fmt.Errorf(`%w: %d`, ErrBarrierCount, count))
	}
	return &Barrier{
		threshold: count,
		counter:   count,
	}
}

// Threshold returns the number of parties.
func (x *Barrier) Threshold() int {
	return x.threshold
}

// Wait blocks until Threshold goroutines have called Wait, for the current
// generation, after which all are released, and the barrier is reset for
// reuse. It returns true to exactly one caller per generation (the last to
// arrive), and false to the rest.
func (x *Barrier) Wait() bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	generation := x.generation

	x.counter--
	if x.counter == 0 {
		x.generation++
		x.counter = x.threshold
		x.cond.Broadcast()
		return true
	}

	// the generation check guards against both spurious wakeups and a
	// release for a subsequent round
	for generation == x.generation {
		x.cond.Wait(&x.mu)
	}

	return false
}
