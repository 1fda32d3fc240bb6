package threadsync

import (
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// globalLogger is package-level, since primitives are typically embedded by
// value, and have no constructor options of their own.
var globalLogger atomic.Pointer[logiface.Logger[logiface.Event]]

// SetLogger configures the logger used by this package, which may be called
// at any time, from any goroutine. A nil logger (the default) disables
// logging.
//
// Levels used:
//   - critical: programmer errors, immediately before the corresponding panic
//   - warning: OS-level failures surfaced as a false result, or degraded
//     fallbacks (e.g. a semaphore that could not use its native backend)
//   - debug: thread lifecycle events
func SetLogger(logger *logiface.Logger[logiface.Event]) {
	globalLogger.Store(logger)
}

// getLogger returns the configured logger, which may be nil. All logiface
// builder methods are nil-safe.
func getLogger() *logiface.Logger[logiface.Event] {
	return globalLogger.Load()
}

// warnLimiter bounds warnings per category, e.g. a thread retrying a
// rejected scheduling change in a loop.
var warnLimiter = catrate.NewLimiter(map[time.Duration]int{
	time.Second: 5,
	time.Minute: 30,
})

// warning returns a warning builder, or nil if logging is disabled, or the
// category is over its rate limit.
func warning(category any) *logiface.Builder[logiface.Event] {
	logger := getLogger()
	if logger == nil {
		return nil
	}
	if _, ok := warnLimiter.Allow(category); !ok {
		return nil
	}
	return logger.Warning()
}
