package threadsync

import (
	"bytes"
	"encoding/json"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

// checkNumGoroutines captures the current goroutine count, returning a
// function that fails the test if the count hasn't returned to (at most)
// that value, within the timeout.
func checkNumGoroutines(timeout time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		for {
			after := runtime.NumGoroutine()
			if after <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`goroutine leak: before=%d after=%d`, before, after)
				return
			}
			time.Sleep(time.Millisecond * 10)
		}
	}
}

// requireFatal runs fn, which must panic with an error matching target.
func requireFatal(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, `expected panic`)
		err, ok := r.(error)
		require.Truef(t, ok, `expected error panic, got %T: %v`, r, r)
		require.ErrorIs(t, err, target)
	}()
	fn()
}

// syncBuffer is a bytes.Buffer safe for concurrent writes.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

// lines decodes each logged JSON line.
func (x *syncBuffer) lines(t *testing.T) []map[string]any {
	t.Helper()
	x.mu.Lock()
	defer x.mu.Unlock()
	var result []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(x.buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m), string(line))
		result = append(result, m)
	}
	return result
}

// captureLogs installs a debug level stumpy logger for the duration of the
// test. Tests using it must not run in parallel.
func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	var buf syncBuffer
	SetLogger(stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(&buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger())
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

// waitFor polls cond until it reports true, failing the test on timeout.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second*5, time.Millisecond)
}
