package atomics

import (
	"sync"
)

// globalLock serializes every operation of the locked backend.
var globalLock sync.Mutex

func lockedLoad[T Integer](p *T) T {
	globalLock.Lock()
	v := *p
	globalLock.Unlock()
	return v
}

func lockedSet[T Integer](p *T, v T) (old T) {
	globalLock.Lock()
	old, *p = *p, v
	globalLock.Unlock()
	return old
}

func lockedAdd[T Integer](p *T, d T) (old T) {
	globalLock.Lock()
	old = *p
	*p = old + d
	globalLock.Unlock()
	return old
}

func lockedCas[T Integer](p *T, expect, v T) (old T) {
	globalLock.Lock()
	old = *p
	if old == expect {
		*p = v
	}
	globalLock.Unlock()
	return old
}

func lockedBoolCas[T Integer](p *T, expect, v T) bool {
	return lockedCas(p, expect, v) == expect
}

func lockedLoadPtr[T any](p **T) *T {
	globalLock.Lock()
	v := *p
	globalLock.Unlock()
	return v
}

func lockedSetPtr[T any](p **T, v *T) (old *T) {
	globalLock.Lock()
	old, *p = *p, v
	globalLock.Unlock()
	return old
}

func lockedCasPtr[T any](p **T, expect, v *T) (old *T) {
	globalLock.Lock()
	old = *p
	if old == expect {
		*p = v
	}
	globalLock.Unlock()
	return old
}

func lockedBoolCasPtr[T any](p **T, expect, v *T) bool {
	return lockedCasPtr(p, expect, v) == expect
}
