package threadsync

// portableSemaphore is a counter guarded by Mutex, gated by Condition.
type portableSemaphore struct {
	mu     Mutex
	cond   Condition
	count  int
	closed bool
}

func newPortableSemaphore(initial int) *portableSemaphore {
	return &portableSemaphore{count: initial}
}

func (x *portableSemaphore) wait() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	for x.count == 0 && !x.closed {
		x.cond.Wait(&x.mu)
	}
	if x.closed {
		return false
	}
	x.count--
	return true
}

func (x *portableSemaphore) tryWait() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.count == 0 || x.closed {
		return false
	}
	x.count--
	return true
}

func (x *portableSemaphore) post() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed || x.count == maxInt {
		return false
	}
	x.count++
	x.cond.Signal()
	return true
}

func (x *portableSemaphore) value() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.count
}

func (x *portableSemaphore) close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return ErrClosed
	}
	x.closed = true
	x.cond.Broadcast()
	return nil
}

const maxInt = int(^uint(0) >> 1)
