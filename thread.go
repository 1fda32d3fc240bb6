package threadsync

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

type (
	// Runner implements the body of a Thread. The result is the exit code,
	// retrievable via Thread.Join.
	Runner interface {
		Run(t *Thread) int
	}

	// RunnerFunc adapts a function to a Runner.
	RunnerFunc func(t *Thread) int

	// ThreadID is a native thread identifier (the kernel thread id, on
	// Linux). On other platforms, it is the id of the Thread's goroutine.
	ThreadID uint64

	// Thread owns a goroutine, locked to its own OS thread, running a Runner.
	// Instances must be initialized using NewThread. A Thread may be started
	// again, once its previous run has been joined, detached, or canceled.
	Thread struct {
		runner Runner
		opts   *threadOptions
		run    *threadRun // attached run, if any
		mu     sync.Mutex
		last   ThreadState // state when no run is attached
	}

	// logCategory rate limits warnings per thread name and operation.
	logCategory struct {
		thread string
		op     string
	}

	// threadRun models a single call to Thread.Start.
	threadRun struct {
		thread *Thread
		ctx    context.Context
		cancel context.CancelFunc
		done   chan struct{} // closed after the run has fully finished
		state  runState
		tid    atomic.Uint64
		goid   uint64 // set before Start returns
		code   int    // set before done is closed
		joined bool   // claimed by Join, guarded by Thread.mu
	}
)

// selfKey maps each run's goroutine to its threadRun. It is created once, on
// first use, and is never deleted.
var selfKey struct {
	once sync.Once
	key  StorageKey
}

var (
	// compile time assertions

	_ Runner = RunnerFunc(nil)
)

// Run calls x(t).
func (x RunnerFunc) Run(t *Thread) int { return x(t) }

// NewThread initializes a new Thread, which will run the given Runner.
func NewThread(runner Runner, opts ...ThreadOption) (*Thread, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}
	cfg, err := resolveThreadOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Thread{
		runner: runner,
		opts:   cfg,
	}, nil
}

func threadSelfKey() StorageKey {
	selfKey.once.Do(func() {
		selfKey.key = CreateStorageKey()
	})
	return selfKey.key
}

// currentRun returns the run executing on the calling goroutine, if any.
func currentRun() *threadRun {
	r, _ := GetStorage(threadSelfKey()).(*threadRun)
	return r
}

// Self returns the Thread whose run is executing on the calling goroutine,
// or nil if the caller was not started via a Thread.
func Self() *Thread {
	if r := currentRun(); r != nil {
		return r.thread
	}
	return nil
}

// Current returns the native identifier of the calling thread.
func Current() ThreadID {
	return currentThreadID()
}

// Processors returns the number of processors available to the process.
func Processors() int {
	return processors()
}

// Name returns the name configured via WithName.
func (x *Thread) Name() string {
	return x.opts.name
}

// Start begins a new run, returning once the Runner is about to be called.
// It returns false if the run could not be initialized, e.g. the scheduling
// options could not be applied, in which case the Thread is left unchanged.
//
// The stackSize is advisory, and must not be negative, since goroutine
// stacks grow on demand. Zero indicates the default.
//
// A panic occurs if the Thread is running (ErrThreadRunning), or if its
// previous run has finished, but has not been joined or detached
// (ErrThreadAttached).
func (x *Thread) Start(stackSize int) bool {
	if stackSize < 0 {
		fatal(fmt.Errorf(`%w: %d`, ErrStackSize, stackSize))
	}

	key := threadSelfKey()

	x.mu.Lock()
	defer x.mu.Unlock()

	if r := x.run; r != nil {
		if r.state.Load() == ThreadRunning {
			fatal(fmt.Errorf(`%w: %q`, ErrThreadRunning, x.opts.name))
		}
		fatal(fmt.Errorf(`%w: %q`, ErrThreadAttached, x.opts.name))
	}

	r := &threadRun{
		thread: x,
		done:   make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	// running before the goroutine exists, so it can observe itself as such
	r.state.Store(ThreadRunning)
	x.run = r

	started := make(chan error, 1)
	go r.main(key, started)

	if err := <-started; err != nil {
		x.run = nil
		warning(logCategory{x.opts.name, `start`}).
			Err(err).
			Str(`thread`, x.opts.name).
			Log(`thread start failed`)
		return false
	}

	getLogger().Debug().
		Str(`thread`, x.opts.name).
		Uint64(`tid`, r.tid.Load()).
		Log(`thread started`)

	return true
}

func (x *threadRun) main(key StorageKey, started chan<- error) {
	// never unlocked: the OS thread is discarded once the run ends, along
	// with any scheduling changes
	runtime.LockOSThread()

	x.goid = goroutineID()
	x.tid.Store(uint64(currentThreadID()))

	defer close(x.done)

	if err := x.thread.opts.apply(ThreadID(x.tid.Load())); err != nil {
		x.state.Store(ThreadFinished)
		x.cancel()
		started <- err
		return
	}

	SetStorage(key, x)
	defer x.finish()

	started <- nil

	x.code = x.thread.runner.Run(x.thread)
}

// finish runs on the run's goroutine, including via runtime.Goexit.
func (x *threadRun) finish() {
	clearStorage(x.goid)
	if x.state.TryTransition(ThreadRunning, ThreadFinished) {
		getLogger().Debug().
			Str(`thread`, x.thread.opts.name).
			Int(`code`, x.code).
			Log(`thread finished`)
	}
	x.cancel()
}

// testCancel terminates the calling goroutine, if it is a canceled run.
func (x *threadRun) testCancel() {
	if x != nil && x.state.Load() == ThreadCanceled {
		runtime.Goexit()
	}
}

// active returns the run the caller should operate on: the caller's own run
// (which may be detached), if it belongs to x, otherwise the attached run.
func (x *Thread) active() *threadRun {
	if r := currentRun(); r != nil && r.thread == x {
		return r
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.run
}

// State returns the lifecycle state of the thread.
func (x *Thread) State() ThreadState {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.run != nil {
		return x.run.state.Load()
	}
	return x.last
}

// Running reports whether the thread's run is executing its Runner.
func (x *Thread) Running() bool {
	r := x.active()
	return r != nil && r.state.Load() == ThreadRunning
}

// ID returns the native identifier of the run's OS thread, or 0 if no run
// is attached. It is meaningful only while Running, but remains available
// until the run is joined.
func (x *Thread) ID() ThreadID {
	if r := x.active(); r != nil {
		return ThreadID(r.tid.Load())
	}
	return 0
}

// Context returns a context that is canceled once the run ends (including
// via Cancel). If no run is attached, the returned context is already done.
func (x *Thread) Context() context.Context {
	if r := x.active(); r != nil {
		return r.ctx
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// Join waits for the attached run to finish, returning its exit code. It
// returns false if no run is attached, if called by the run on itself, if
// another Join has already claimed the run, or if the run is canceled while
// waiting. A successful Join releases the run, allowing the Thread to be
// started again.
func (x *Thread) Join() (code int, ok bool) {
	self := currentRun()

	x.mu.Lock()
	r := x.run
	if r == nil || r == self || r.joined {
		x.mu.Unlock()
		return 0, false
	}
	r.joined = true
	x.mu.Unlock()

	select {
	case <-r.done:
	case <-r.ctx.Done():
		if r.state.Load() == ThreadCanceled {
			return 0, false
		}
		<-r.done
	}

	x.mu.Lock()
	if x.run == r {
		x.run = nil
		x.last = ThreadJoined
	}
	x.mu.Unlock()

	return r.code, true
}

// Detach releases the attached run, which continues independently, and may
// no longer be joined. It returns false if no run is attached.
func (x *Thread) Detach() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.run == nil {
		return false
	}
	x.run = nil
	x.last = ThreadDetached
	return true
}

// Cancel releases the attached run, marking it canceled (no longer Running),
// and cancels its Context. It returns false if no run is attached.
//
// The run cannot be interrupted from outside. Instead, it exits at its next
// cancellation point (Sleep, WakeAt, Yield, or TestCancel), discarding its
// exit code. As with any forced termination, locks held at that point are
// not released. If called by the run on itself, Cancel does not return.
func (x *Thread) Cancel() bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	r := x.run
	if r == nil {
		return false
	}
	x.run = nil
	x.last = ThreadCanceled

	if r.state.TryTransition(ThreadRunning, ThreadCanceled) {
		getLogger().Debug().
			Str(`thread`, x.opts.name).
			Log(`thread canceled`)
	}
	r.cancel()

	// the deferred unlock runs before the goroutine exits
	r.testCancel()

	return true
}

// Exit terminates the calling run immediately, with the given exit code.
// Deferred calls are run, as with runtime.Goexit. A panic (ErrNotSelf)
// occurs if the caller is not a run of this Thread.
func (x *Thread) Exit(code int) {
	r := currentRun()
	if r == nil || r.thread != x {
		fatal(fmt.Errorf(`%w: %q`, ErrNotSelf, x.opts.name))
	}
	r.code = code
	runtime.Goexit()
}

// SetPriority changes the scheduling priority of the running thread,
// returning false if it is not running, or the change is rejected (e.g. due
// to insufficient privileges, or an unsupported platform).
func (x *Thread) SetPriority(priority Priority) bool {
	r := x.active()
	if r == nil || r.state.Load() != ThreadRunning {
		return false
	}
	if err := setThreadPriority(ThreadID(r.tid.Load()), priority); err != nil {
		x.logSchedFailure(err, `set priority`)
		return false
	}
	return true
}

// Priority returns the scheduling priority of the running thread, or
// PriorityError if it is not running, or cannot be determined.
func (x *Thread) Priority() Priority {
	r := x.active()
	if r == nil || r.state.Load() != ThreadRunning {
		return PriorityError
	}
	priority, err := threadPriority(ThreadID(r.tid.Load()))
	if err != nil {
		x.logSchedFailure(err, `get priority`)
		return PriorityError
	}
	return priority
}

// SetPolicy changes the scheduling policy of the running thread, retaining
// its relative Priority, returning false if it is not running, or the change
// is rejected. Real-time policies typically require privileges.
func (x *Thread) SetPolicy(policy Policy) bool {
	r := x.active()
	if r == nil || r.state.Load() != ThreadRunning {
		return false
	}
	if err := setThreadPolicy(ThreadID(r.tid.Load()), policy); err != nil {
		x.logSchedFailure(err, `set policy`)
		return false
	}
	return true
}

// Policy returns the scheduling policy of the running thread, or
// PolicyError if it is not running, or cannot be determined.
func (x *Thread) Policy() Policy {
	r := x.active()
	if r == nil || r.state.Load() != ThreadRunning {
		return PolicyError
	}
	policy, err := threadPolicy(ThreadID(r.tid.Load()))
	if err != nil {
		x.logSchedFailure(err, `get policy`)
		return PolicyError
	}
	return policy
}

// Suspend always returns false: there is no safe way to suspend another
// thread at an arbitrary point.
func (x *Thread) Suspend() bool {
	getLogger().Debug().
		Str(`thread`, x.opts.name).
		Log(`thread suspend unsupported`)
	return false
}

// Resume always returns false, see Suspend.
func (x *Thread) Resume() bool {
	getLogger().Debug().
		Str(`thread`, x.opts.name).
		Log(`thread resume unsupported`)
	return false
}

func (x *Thread) logSchedFailure(err error, op string) {
	warning(logCategory{x.opts.name, op}).
		Err(err).
		Str(`thread`, x.opts.name).
		Str(`op`, op).
		Log(`thread scheduling failure`)
}
