//go:build !linux

package threadsync

func newNativeSemaphore(initial int) (semaphoreBackend, error) {
	return newPortableSemaphore(initial), nil
}
