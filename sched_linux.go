//go:build linux

package threadsync

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

func currentThreadID() ThreadID {
	return ThreadID(unix.Gettid())
}

func processors() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	if n := set.Count(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func getSchedAttr(tid ThreadID) (*unix.SchedAttr, error) {
	attr, err := unix.SchedGetAttr(int(tid), 0)
	if err != nil {
		return nil, os.NewSyscallError(`sched_getattr`, err)
	}
	return attr, nil
}

func setSchedAttr(tid ThreadID, attr *unix.SchedAttr) error {
	return os.NewSyscallError(`sched_setattr`, unix.SchedSetAttr(int(tid), attr, 0))
}

// schedAttrFor builds the attributes for the given kernel policy, with the
// priority mapped onto that policy's range.
func schedAttrFor(policy uint32, p Priority) (*unix.SchedAttr, error) {
	attr := unix.SchedAttr{Policy: policy}
	switch policy {
	case unix.SCHED_NORMAL:
		attr.Nice = int32(niceValue(p))
	case unix.SCHED_FIFO, unix.SCHED_RR:
		attr.Priority = realtimeValue(p)
	default:
		return nil, fmt.Errorf(`%w: kernel scheduling policy %d`, ErrUnsupported, policy)
	}
	return &attr, nil
}

func priorityOf(attr *unix.SchedAttr) (Priority, error) {
	switch attr.Policy {
	case unix.SCHED_NORMAL:
		return priorityFromNice(int(attr.Nice)), nil
	case unix.SCHED_FIFO, unix.SCHED_RR:
		return priorityFromRealtime(attr.Priority), nil
	default:
		return PriorityError, fmt.Errorf(`%w: kernel scheduling policy %d`, ErrUnsupported, attr.Policy)
	}
}

func kernelPolicy(p Policy) (uint32, error) {
	switch p {
	case PolicyDefault:
		return unix.SCHED_NORMAL, nil
	case PolicyFifo:
		return unix.SCHED_FIFO, nil
	case PolicyRoundRobin:
		return unix.SCHED_RR, nil
	default:
		return 0, fmt.Errorf(`%w: policy %d`, ErrUnsupported, p)
	}
}

func setThreadPriority(tid ThreadID, p Priority) error {
	if !p.Valid() {
		return fmt.Errorf(`%w: priority %d`, ErrUnsupported, p)
	}
	current, err := getSchedAttr(tid)
	if err != nil {
		return err
	}
	attr, err := schedAttrFor(current.Policy, p)
	if err != nil {
		return err
	}
	return setSchedAttr(tid, attr)
}

func threadPriority(tid ThreadID) (Priority, error) {
	attr, err := getSchedAttr(tid)
	if err != nil {
		return PriorityError, err
	}
	return priorityOf(attr)
}

func setThreadPolicy(tid ThreadID, p Policy) error {
	policy, err := kernelPolicy(p)
	if err != nil {
		return err
	}
	current, err := getSchedAttr(tid)
	if err != nil {
		return err
	}
	// carry the priority over, translated to the new policy's range
	priority, err := priorityOf(current)
	if err != nil {
		priority = PriorityMedium
	}
	attr, err := schedAttrFor(policy, priority)
	if err != nil {
		return err
	}
	return setSchedAttr(tid, attr)
}

func threadPolicy(tid ThreadID) (Policy, error) {
	attr, err := getSchedAttr(tid)
	if err != nil {
		return PolicyError, err
	}
	switch attr.Policy {
	case unix.SCHED_NORMAL:
		return PolicyDefault, nil
	case unix.SCHED_FIFO:
		return PolicyFifo, nil
	case unix.SCHED_RR:
		return PolicyRoundRobin, nil
	default:
		return PolicyError, fmt.Errorf(`%w: kernel scheduling policy %d`, ErrUnsupported, attr.Policy)
	}
}
