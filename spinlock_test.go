package threadsync

import (
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSizeOf(t *testing.T) {
	if v := unsafe.Sizeof(SpinLock{}); v != sizeOfCacheLine {
		t.Errorf(`SpinLock: expected %d, got %d`, sizeOfCacheLine, v)
	}
	if v := unsafe.Sizeof(SpinLock{}.v); v != sizeOfSpinWord {
		t.Errorf(`SpinLock.v: expected %d, got %d`, sizeOfSpinWord, v)
	}
}

func TestSpinLock_tryLock(t *testing.T) {
	var l SpinLock
	assert.False(t, l.Locked())
	require.True(t, l.TryLock())
	assert.True(t, l.Locked())
	assert.False(t, l.TryLock())
	l.Unlock()
	assert.False(t, l.Locked())
	l.Lock()
	assert.False(t, l.TryLock())
	l.Unlock()
}

func TestSpinLock_mutualExclusion(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)
	const (
		iterations = 5000
	)
	workers := Processors() * 2
	var (
		l       SpinLock
		counter int
		g       errgroup.Group
	)
	for range workers {
		g.Go(func() error {
			for range iterations {
				l.Lock()
				counter++
				l.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, workers*iterations, counter)
}

func TestSpinLock_withCondition(t *testing.T) {
	var (
		l     SpinLock
		cond  Condition
		ready bool
		done  = make(chan struct{})
	)
	go func() {
		defer close(done)
		l.Lock()
		for !ready {
			cond.Wait(&l)
		}
		l.Unlock()
	}()
	time.Sleep(time.Millisecond * 10)
	l.Lock()
	ready = true
	cond.Broadcast()
	l.Unlock()
	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal(`waiter not woken`)
	}
}
