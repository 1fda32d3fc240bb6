package threadsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMutex_mutualExclusion(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)
	for _, tc := range [...]struct {
		name      string
		recursive bool
	}{
		{`plain`, false},
		{`recursive`, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			const iterations = 2000
			for _, workers := range [...]int{1, Processors(), Processors() * 4} {
				mu := NewMutex(tc.recursive)
				var counter int
				var g errgroup.Group
				for range workers {
					g.Go(func() error {
						for range iterations {
							mu.Lock()
							v := counter
							counter = v + 1
							mu.Unlock()
						}
						return nil
					})
				}
				require.NoError(t, g.Wait())
				assert.Equal(t, workers*iterations, counter, workers)
				assert.False(t, mu.Locked())
			}
		})
	}
}

func TestMutex_zeroValue(t *testing.T) {
	var mu Mutex
	assert.False(t, mu.Recursive())
	assert.False(t, mu.Locked())
	mu.Lock()
	assert.True(t, mu.Locked())
	assert.False(t, mu.TryLock())
	mu.Unlock()
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

func TestMutex_recursive(t *testing.T) {
	mu := NewMutex(true)
	require.True(t, mu.Recursive())

	mu.Lock()
	mu.Lock()
	require.True(t, mu.TryLock())

	// held by the caller
	assert.True(t, mu.Locked())

	other := func() bool {
		ch := make(chan bool)
		go func() { ch <- mu.TryLock() }()
		return <-ch
	}

	assert.False(t, other())
	mu.Unlock()
	assert.False(t, other())
	mu.Unlock()
	assert.False(t, other())
	mu.Unlock()

	assert.False(t, mu.Locked())

	// lock it from another goroutine, then release it from that goroutine
	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		mu.Lock()
		close(locked)
		<-release
		mu.Unlock()
	}()
	<-locked
	assert.True(t, mu.Locked())
	assert.False(t, mu.TryLock())
	close(release)
	<-done
	assert.False(t, mu.Locked())
}

func TestMutex_recursiveUnlockNotOwner(t *testing.T) {
	mu := NewMutex(true)
	requireFatal(t, ErrNotOwner, mu.Unlock)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		mu.Lock()
		close(locked)
		<-release
		mu.Unlock()
	}()
	<-locked
	requireFatal(t, ErrNotOwner, mu.Unlock)
	close(release)
	<-done
}

func TestMutex_lockedDoesNotBlock(t *testing.T) {
	mu := NewMutex(false)
	mu.Lock()
	defer mu.Unlock()
	done := make(chan bool)
	go func() { done <- mu.Locked() }()
	select {
	case v := <-done:
		assert.True(t, v)
	case <-time.After(time.Second * 5):
		t.Fatal(`Locked blocked`)
	}
}
