package atomics

import (
	"unsafe"
)

// Integer models the integer kinds that may be operated on atomically. All
// are either 32 or 64 bits wide.
type Integer interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~int | ~uint | ~uintptr
}

// Locked indicates that the process-wide mutex backend is in use.
const Locked = lockedBackend

// Load returns the value of *p.
func Load[T Integer](p *T) T {
	if lockedBackend {
		return lockedLoad(p)
	}
	return nativeLoad(p)
}

// Set stores v into *p, returning the previous value.
func Set[T Integer](p *T, v T) T {
	if lockedBackend {
		return lockedSet(p, v)
	}
	return nativeSet(p, v)
}

// Add adds d to *p, returning the previous value.
func Add[T Integer](p *T, d T) T {
	if lockedBackend {
		return lockedAdd(p, d)
	}
	return nativeAdd(p, d)
}

// Cas stores v into *p if *p equals expect, returning the value *p held
// immediately prior. The operation succeeded iff the result equals expect.
func Cas[T Integer](p *T, expect, v T) T {
	if lockedBackend {
		return lockedCas(p, expect, v)
	}
	return nativeCas(p, expect, v)
}

// BoolCas stores v into *p if *p equals expect, reporting whether it did.
// If *p does not equal expect, *p is not modified.
func BoolCas[T Integer](p *T, expect, v T) bool {
	if lockedBackend {
		return lockedBoolCas(p, expect, v)
	}
	return nativeBoolCas(p, expect, v)
}

// LoadPtr returns the value of *p.
func LoadPtr[T any](p **T) *T {
	if lockedBackend {
		return lockedLoadPtr(p)
	}
	return nativeLoadPtr(p)
}

// SetPtr stores v into *p, returning the previous value.
func SetPtr[T any](p **T, v *T) *T {
	if lockedBackend {
		return lockedSetPtr(p, v)
	}
	return nativeSetPtr(p, v)
}

// CasPtr stores v into *p if *p equals expect, returning the value *p held
// immediately prior.
func CasPtr[T any](p **T, expect, v *T) *T {
	if lockedBackend {
		return lockedCasPtr(p, expect, v)
	}
	return nativeCasPtr(p, expect, v)
}

// BoolCasPtr stores v into *p if *p equals expect, reporting whether it did.
func BoolCasPtr[T any](p **T, expect, v *T) bool {
	if lockedBackend {
		return lockedBoolCasPtr(p, expect, v)
	}
	return nativeBoolCasPtr(p, expect, v)
}

func is32[T Integer]() bool {
	var v T
	return unsafe.Sizeof(v) == 4
}

func ptr32[T Integer](p *T) *uint32 { return (*uint32)(unsafe.Pointer(p)) }

func ptr64[T Integer](p *T) *uint64 { return (*uint64)(unsafe.Pointer(p)) }

func ptrPtr[T any](p **T) *unsafe.Pointer { return (*unsafe.Pointer)(unsafe.Pointer(p)) }
