package threadsync

import (
	"runtime"
	"time"
)

// Yield gives up the processor, allowing other goroutines to run. Within a
// canceled Thread run, it is a cancellation point.
func Yield() {
	r := currentRun()
	r.testCancel()
	runtime.Gosched()
	r.testCancel()
}

// Sleep blocks the caller for at least d. Within a Thread run, it is a
// cancellation point, returning early (via runtime.Goexit) if the run is
// canceled.
func Sleep(d time.Duration) {
	r := currentRun()
	r.testCancel()

	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	if r == nil {
		<-timer.C
		return
	}

	select {
	case <-timer.C:
	case <-r.ctx.Done():
		r.testCancel()
		<-timer.C
	}
}

// WakeAt blocks the caller until t. See also Sleep.
func WakeAt(t time.Time) {
	Sleep(time.Until(t))
}

// TestCancel terminates the calling Thread run if it has been canceled. It
// has no effect outside of a Thread run.
func TestCancel() {
	currentRun().testCancel()
}
