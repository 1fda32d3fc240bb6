package threadsync

import (
	"github.com/joeycumines/goroutineid"
)

// goroutineID returns the id of the calling goroutine, which keys recursive
// mutex ownership and goroutine-local storage.
func goroutineID() uint64 {
	return uint64(goroutineid.Get())
}
