//go:build threadsync_lockedatomics

package atomics

const lockedBackend = true
