package atomics

import (
	"sync/atomic"
	"unsafe"
)

func nativeLoad[T Integer](p *T) T {
	if is32[T]() {
		return T(atomic.LoadUint32(ptr32(p)))
	}
	return T(atomic.LoadUint64(ptr64(p)))
}

func nativeSet[T Integer](p *T, v T) T {
	if is32[T]() {
		return T(atomic.SwapUint32(ptr32(p), uint32(v)))
	}
	return T(atomic.SwapUint64(ptr64(p), uint64(v)))
}

func nativeAdd[T Integer](p *T, d T) T {
	if is32[T]() {
		return T(atomic.AddUint32(ptr32(p), uint32(d)) - uint32(d))
	}
	return T(atomic.AddUint64(ptr64(p), uint64(d)) - uint64(d))
}

// nativeCas linearizes at the load that observed a mismatch, or at the
// successful swap.
func nativeCas[T Integer](p *T, expect, v T) T {
	for {
		old := nativeLoad(p)
		if old != expect || nativeBoolCas(p, expect, v) {
			return old
		}
	}
}

func nativeBoolCas[T Integer](p *T, expect, v T) bool {
	if is32[T]() {
		return atomic.CompareAndSwapUint32(ptr32(p), uint32(expect), uint32(v))
	}
	return atomic.CompareAndSwapUint64(ptr64(p), uint64(expect), uint64(v))
}

func nativeLoadPtr[T any](p **T) *T {
	return (*T)(atomic.LoadPointer(ptrPtr(p)))
}

func nativeSetPtr[T any](p **T, v *T) *T {
	return (*T)(atomic.SwapPointer(ptrPtr(p), unsafe.Pointer(v)))
}

func nativeCasPtr[T any](p **T, expect, v *T) *T {
	for {
		old := nativeLoadPtr(p)
		if old != expect || nativeBoolCasPtr(p, expect, v) {
			return old
		}
	}
}

func nativeBoolCasPtr[T any](p **T, expect, v *T) bool {
	return atomic.CompareAndSwapPointer(ptrPtr(p), unsafe.Pointer(expect), unsafe.Pointer(v))
}
