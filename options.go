package threadsync

import (
	"fmt"
)

// threadOptions holds configuration options for Thread creation.
type threadOptions struct {
	name        string
	priority    Priority
	policy      Policy
	hasPriority bool
	hasPolicy   bool
}

// --- Thread Options ---

// ThreadOption configures a Thread instance.
type ThreadOption interface {
	applyThread(*threadOptions) error
}

// threadOptionImpl implements ThreadOption.
type threadOptionImpl struct {
	applyThreadFunc func(*threadOptions) error
}

func (x *threadOptionImpl) applyThread(opts *threadOptions) error {
	return x.applyThreadFunc(opts)
}

// WithName sets a descriptive name, used for logging.
func WithName(name string) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		opts.name = name
		return nil
	}}
}

// WithPriority sets the scheduling priority, applied by each run before the
// Runner is called. If it cannot be applied, Thread.Start fails.
func WithPriority(priority Priority) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		if !priority.Valid() {
			return fmt.Errorf(`%w: priority %d`, ErrUnsupported, priority)
		}
		opts.priority = priority
		opts.hasPriority = true
		return nil
	}}
}

// WithPolicy sets the scheduling policy, applied by each run before the
// Runner is called (and before any WithPriority). If it cannot be applied,
// Thread.Start fails.
func WithPolicy(policy Policy) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		if !policy.Valid() {
			return fmt.Errorf(`%w: policy %d`, ErrUnsupported, policy)
		}
		opts.policy = policy
		opts.hasPolicy = true
		return nil
	}}
}

// resolveThreadOptions applies ThreadOption instances to threadOptions.
func resolveThreadOptions(opts []ThreadOption) (*threadOptions, error) {
	cfg := &threadOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyThread(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// apply configures the calling OS thread, identified by tid.
func (x *threadOptions) apply(tid ThreadID) error {
	if x.hasPolicy {
		if err := setThreadPolicy(tid, x.policy); err != nil {
			return err
		}
	}
	if x.hasPriority {
		if err := setThreadPriority(tid, x.priority); err != nil {
			return err
		}
	}
	return nil
}
