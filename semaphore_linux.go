//go:build linux

package threadsync

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"strconv"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// eventfdSemaphore uses an eventfd in semaphore mode: each read decrements
// the counter by one, blocking (via the runtime poller) while it is zero.
// The counter is observable only via procfs (see value).
type eventfdSemaphore struct {
	file   *os.File
	conn   syscall.RawConn
	closed atomic.Bool
}

func newNativeSemaphore(initial int) (semaphoreBackend, error) {
	return newEventfdSemaphore(initial)
}

func newEventfdSemaphore(initial int) (*eventfdSemaphore, error) {
	// the initval of eventfd(2) is an unsigned int, the counter is not
	var initval uint
	if uint64(initial) <= math.MaxUint32 {
		initval = uint(initial)
	}
	fd, err := unix.Eventfd(initval, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK|unix.EFD_SEMAPHORE)
	if err != nil {
		return nil, os.NewSyscallError(`eventfd`, err)
	}
	if initval == 0 && initial != 0 {
		var buf [8]byte
		binary.NativeEndian.PutUint64(buf[:], uint64(initial))
		if _, err := unix.Write(fd, buf[:]); err != nil {
			_ = unix.Close(fd)
			return nil, os.NewSyscallError(`write`, err)
		}
	}
	file := os.NewFile(uintptr(fd), `semaphore`)
	conn, err := file.SyscallConn()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &eventfdSemaphore{file: file, conn: conn}, nil
}

func (x *eventfdSemaphore) wait() bool {
	var (
		buf     [8]byte
		readErr error
	)
	err := x.conn.Read(func(fd uintptr) bool {
		_, readErr = unix.Read(int(fd), buf[:])
		// false waits for readability, then retries
		return readErr != unix.EAGAIN
	})
	if err == nil {
		err = readErr
	}
	if err != nil {
		x.logFailure(`read`, err)
		return false
	}
	return true
}

// tryWait uses Control, rather than Read, to avoid serializing behind
// blocked waiters.
func (x *eventfdSemaphore) tryWait() bool {
	var (
		buf     [8]byte
		readErr error
	)
	if err := x.conn.Control(func(fd uintptr) {
		_, readErr = unix.Read(int(fd), buf[:])
	}); err != nil {
		return false
	}
	if readErr != nil {
		if readErr != unix.EAGAIN {
			x.logFailure(`read`, readErr)
		}
		return false
	}
	return true
}

func (x *eventfdSemaphore) post() bool {
	var (
		buf      [8]byte
		writeErr error
	)
	binary.NativeEndian.PutUint64(buf[:], 1)
	if err := x.conn.Control(func(fd uintptr) {
		_, writeErr = unix.Write(int(fd), buf[:])
	}); err != nil {
		return false
	}
	if writeErr != nil {
		// EAGAIN indicates the counter is at its maximum
		x.logFailure(`write`, writeErr)
		return false
	}
	return true
}

var eventfdCountPrefix = []byte(`eventfd-count:`)

// value parses the eventfd-count line of /proc/self/fdinfo/<fd>, which the
// kernel prints in hex. It returns -1 if that is unavailable.
func (x *eventfdSemaphore) value() int {
	var (
		info    []byte
		readErr error
	)
	if err := x.conn.Control(func(fd uintptr) {
		info, readErr = os.ReadFile(`/proc/self/fdinfo/` + strconv.FormatUint(uint64(fd), 10))
	}); err != nil || readErr != nil {
		return -1
	}
	return parseEventfdCount(info)
}

func parseEventfdCount(info []byte) int {
	for line := range bytes.Lines(info) {
		rest, ok := bytes.CutPrefix(line, eventfdCountPrefix)
		if !ok {
			continue
		}
		count, err := strconv.ParseUint(string(bytes.TrimSpace(rest)), 16, 64)
		if err != nil {
			return -1
		}
		if count > math.MaxInt {
			return math.MaxInt
		}
		return int(count)
	}
	return -1
}

func (x *eventfdSemaphore) close() error {
	if !x.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return x.file.Close()
}

func (x *eventfdSemaphore) logFailure(op string, err error) {
	if x.closed.Load() || errors.Is(err, os.ErrClosed) {
		return
	}
	warning(`semaphore ` + op).
		Err(err).
		Str(`op`, op).
		Log(`eventfd semaphore failure`)
}
