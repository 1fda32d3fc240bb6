package threadsync

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var semaphoreBackends = [...]struct {
	name string
	init func(t *testing.T, initial int) *Semaphore
}{
	{
		name: `native`,
		init: func(t *testing.T, initial int) *Semaphore {
			backend, err := newNativeSemaphore(initial)
			require.NoError(t, err)
			return &Semaphore{backend: backend}
		},
	},
	{
		name: `portable`,
		init: func(t *testing.T, initial int) *Semaphore {
			return &Semaphore{backend: newPortableSemaphore(initial)}
		},
	},
	{
		name: `default`,
		init: func(t *testing.T, initial int) *Semaphore {
			return NewSemaphore(initial)
		},
	},
}

func TestNewSemaphore_negative(t *testing.T) {
	requireFatal(t, ErrSemaphoreValue, func() { NewSemaphore(-1) })
}

func TestSemaphore_tryWait(t *testing.T) {
	for _, tc := range semaphoreBackends {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.init(t, 2)
			defer s.Close()
			assert.True(t, s.TryWait())
			assert.True(t, s.TryWait())
			assert.False(t, s.TryWait())
			require.True(t, s.Post())
			assert.True(t, s.TryWait())
			assert.False(t, s.TryWait())
		})
	}
}

func TestSemaphore_waitBlocksUntilPost(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)
	for _, tc := range semaphoreBackends {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.init(t, 0)
			defer s.Close()

			done := make(chan bool, 1)
			go func() { done <- s.Wait() }()

			select {
			case <-done:
				t.Fatal(`wait returned before post`)
			case <-time.After(time.Millisecond * 30):
			}

			require.True(t, s.Post())
			select {
			case v := <-done:
				assert.True(t, v)
			case <-time.After(time.Second * 5):
				t.Fatal(`wait not woken by post`)
			}
			assert.False(t, s.TryWait())
		})
	}
}

func TestSemaphore_value(t *testing.T) {
	for _, tc := range semaphoreBackends {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.init(t, 3)
			defer s.Close()
			assert.Equal(t, 3, s.Value())
			require.True(t, s.Wait())
			assert.Equal(t, 2, s.Value())
			require.True(t, s.Post())
			require.True(t, s.Post())
			assert.Equal(t, 4, s.Value())
		})
	}
}

func TestSemaphore_largeInitial(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip(`requires 64-bit int`)
	}
	shift := 32
	initial := 1<<shift + 1
	for _, tc := range semaphoreBackends {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.init(t, initial)
			defer s.Close()
			assert.Equal(t, initial, s.Value())
			require.True(t, s.TryWait())
			require.True(t, s.Wait())
			assert.Equal(t, initial-2, s.Value())
		})
	}
}

func TestSemaphore_valueClosed(t *testing.T) {
	for _, tc := range semaphoreBackends {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.init(t, 1)
			require.NoError(t, s.Close())
			// the portable backend retains its count
			assert.Contains(t, []int{-1, 1}, s.Value())
		})
	}
}

func TestSemaphore_counting(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)
	for _, tc := range semaphoreBackends {
		t.Run(tc.name, func(t *testing.T) {
			const (
				workers = 8
				posts   = 200
			)
			s := tc.init(t, 0)
			defer s.Close()

			var producers, consumers errgroup.Group
			for range workers {
				consumers.Go(func() error {
					for range posts {
						if !s.Wait() {
							t.Error(`unexpected wait failure`)
						}
					}
					return nil
				})
				producers.Go(func() error {
					for range posts {
						if !s.Post() {
							t.Error(`unexpected post failure`)
						}
					}
					return nil
				})
			}
			require.NoError(t, producers.Wait())
			require.NoError(t, consumers.Wait())

			// every post consumed exactly once
			assert.False(t, s.TryWait())
		})
	}
}

func TestSemaphore_close(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)
	for _, tc := range semaphoreBackends {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.init(t, 0)

			done := make(chan bool, 1)
			go func() { done <- s.Wait() }()
			time.Sleep(time.Millisecond * 20)

			require.NoError(t, s.Close())
			select {
			case v := <-done:
				assert.False(t, v)
			case <-time.After(time.Second * 5):
				t.Fatal(`close did not wake the waiter`)
			}

			assert.False(t, s.Wait())
			assert.False(t, s.TryWait())
			assert.False(t, s.Post())
			assert.ErrorIs(t, s.Close(), ErrClosed)
		})
	}
}

func TestSemaphore_closeNoWarnings(t *testing.T) {
	logs := captureLogs(t)
	s := NewSemaphore(0)
	done := make(chan bool, 1)
	go func() { done <- s.Wait() }()
	time.Sleep(time.Millisecond * 20)
	require.NoError(t, s.Close())
	assert.False(t, <-done)
	for _, line := range logs.lines(t) {
		assert.NotEqual(t, `warning`, line[`lvl`], line)
	}
}
