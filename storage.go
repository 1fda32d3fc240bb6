package threadsync

import (
	"runtime"
	"sync"
)

type (
	// StorageKey identifies a slot of goroutine-local storage, holding one
	// value per goroutine. Keys are allocated using CreateStorageKey, and
	// remain valid until passed to DeleteStorageKey. The zero value is never
	// allocated, and behaves as a deleted key.
	StorageKey uint64

	// AutoStorageKey is a StorageKey bound to the lifetime of its owner: it
	// is deleted by Close, or once it becomes unreachable.
	AutoStorageKey struct {
		cleanup runtime.Cleanup
		once    sync.Once
		key     StorageKey
	}
)

// storage is the process-wide key registry.
var storage struct {
	slots map[StorageKey]*sync.Map // of goroutine id to value
	mu    sync.RWMutex
	last  StorageKey
}

// CreateStorageKey allocates a new StorageKey, for which every goroutine
// initially holds nil.
func CreateStorageKey() StorageKey {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	if storage.slots == nil {
		storage.slots = make(map[StorageKey]*sync.Map)
	}
	storage.last++
	key := storage.last
	storage.slots[key] = new(sync.Map)
	return key
}

// DeleteStorageKey releases the key, discarding the values of every
// goroutine. Deleting an unknown or already deleted key is a no-op.
func DeleteStorageKey(key StorageKey) {
	storage.mu.Lock()
	delete(storage.slots, key)
	storage.mu.Unlock()
}

// GetStorage returns the calling goroutine's value for key, or nil if it has
// not been set, or the key is not valid.
func GetStorage(key StorageKey) any {
	slot := lookupStorage(key)
	if slot == nil {
		return nil
	}
	v, _ := slot.Load(goroutineID())
	return v
}

// SetStorage sets the calling goroutine's value for key. Setting nil clears
// the value. Writes to keys that are not valid are ignored.
//
// Values set by goroutines that are not Thread runs persist until cleared,
// or the key is deleted.
func SetStorage(key StorageKey, value any) {
	slot := lookupStorage(key)
	if slot == nil {
		return
	}
	if value == nil {
		slot.Delete(goroutineID())
	} else {
		slot.Store(goroutineID(), value)
	}
}

func lookupStorage(key StorageKey) *sync.Map {
	storage.mu.RLock()
	defer storage.mu.RUnlock()
	return storage.slots[key]
}

// clearStorage discards every value held by the given goroutine.
func clearStorage(id uint64) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()
	for _, slot := range storage.slots {
		slot.Delete(id)
	}
}

// NewAutoStorageKey allocates a new key, which will be deleted on Close, or
// when the returned value is garbage collected.
func NewAutoStorageKey() *AutoStorageKey {
	x := &AutoStorageKey{key: CreateStorageKey()}
	x.cleanup = runtime.AddCleanup(x, DeleteStorageKey, x.key)
	return x
}

// Key returns the underlying key, which is only valid until Close.
func (x *AutoStorageKey) Key() StorageKey { return x.key }

// Get is equivalent to GetStorage(x.Key()).
func (x *AutoStorageKey) Get() any { return GetStorage(x.key) }

// Set is equivalent to SetStorage(x.Key(), value).
func (x *AutoStorageKey) Set(value any) { SetStorage(x.key, value) }

// Close deletes the key. Subsequent calls are no-ops.
func (x *AutoStorageKey) Close() {
	x.once.Do(func() {
		x.cleanup.Stop()
		DeleteStorageKey(x.key)
	})
}
