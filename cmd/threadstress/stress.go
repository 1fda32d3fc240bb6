package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-threadsync"
	"github.com/joeycumines/go-threadsync/atomics"
	"github.com/joeycumines/logiface"
	"golang.org/x/sync/errgroup"
)

type (
	// params are the inputs shared by every scenario.
	params struct {
		log        *logiface.Logger[logiface.Event]
		workers    int
		iterations int
	}

	// scenario exercises one primitive, returning the number of operations
	// performed, or an error if an invariant was violated. It should stop
	// early once ctx is done.
	scenario func(ctx context.Context, p params) (int64, error)

	// result summarizes a single scenario run.
	result struct {
		err     error
		name    string
		elapsed time.Duration
		ops     int64
	}
)

var errInvariant = errors.New(`threadstress: invariant violated`)

var scenarios = map[string]scenario{
	`atomics`:   stressAtomics,
	`pair`:      stressPair,
	`mutex`:     stressMutex(false),
	`recursive`: stressMutex(true),
	`spinlock`:  stressSpinLock,
	`semaphore`: stressSemaphore,
	`condition`: stressCondition,
	`rwlock`:    stressRWLock,
	`barrier`:   stressBarrier,
	`storage`:   stressStorage,
	`threads`:   stressThreads,
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// runScenarios runs each scenario in turn, stopping at the first failure.
func runScenarios(ctx context.Context, names []string, p params) ([]result, error) {
	results := make([]result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := time.Now()
		ops, err := scenarios[name](ctx, p)
		r := result{
			name:    name,
			ops:     ops,
			elapsed: time.Since(start),
			err:     err,
		}
		results = append(results, r)
		p.log.Info().
			Str(`scenario`, r.name).
			Int64(`ops`, r.ops).
			Dur(`elapsed`, r.elapsed).
			Err(r.err).
			Log(`scenario complete`)
		if err != nil {
			return results, fmt.Errorf(`scenario %s: %w`, name, err)
		}
	}
	return results, nil
}

// fanOut runs fn on p.workers goroutines, summing the operation counts.
func fanOut(ctx context.Context, p params, fn func(ctx context.Context, worker int) (int64, error)) (int64, error) {
	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for worker := range p.workers {
		g.Go(func() error {
			ops, err := fn(ctx, worker)
			total.Add(ops)
			return err
		})
	}
	err := g.Wait()
	return total.Load(), err
}

// loop calls fn up to p.iterations times, or until ctx is done.
func loop(ctx context.Context, p params, fn func(i int) error) (int64, error) {
	var ops int64
	for i := range p.iterations {
		if i%64 == 0 && ctx.Err() != nil {
			break
		}
		if err := fn(i); err != nil {
			return ops, err
		}
		ops++
	}
	return ops, nil
}

// fetch-add must hand out every prior value exactly once, so the priors sum
// to the triangular number of the total
func stressAtomics(ctx context.Context, p params) (int64, error) {
	var counter, sum uint64
	ops, err := fanOut(ctx, p, func(ctx context.Context, _ int) (int64, error) {
		return loop(ctx, p, func(int) error {
			prior := atomics.Add(&counter, 1)
			atomics.Add(&sum, prior)
			return nil
		})
	})
	if err != nil {
		return ops, err
	}
	n := atomics.Load(&counter)
	if n != uint64(ops) {
		return ops, fmt.Errorf(`%w: counter %d after %d adds`, errInvariant, n, ops)
	}
	if want := n * (n - 1) / 2; n > 0 && atomics.Load(&sum) != want {
		return ops, fmt.Errorf(`%w: prior sum %d, want %d`, errInvariant, atomics.Load(&sum), want)
	}
	return ops, nil
}

// both halves of the pair advance together, or not at all
func stressPair(ctx context.Context, p params) (int64, error) {
	var pair atomics.Pair[uint64]
	var zero uint64
	pair.Store(&zero, &zero)
	var successes atomic.Int64
	ops, err := fanOut(ctx, p, func(ctx context.Context, _ int) (int64, error) {
		return loop(ctx, p, func(int) error {
			a, b := pair.Load()
			if *a != *b {
				return fmt.Errorf(`%w: pair halves %d != %d`, errInvariant, *a, *b)
			}
			na, nb := *a+1, *b+1
			if pair.BoolDCas(a, b, &na, &nb) {
				successes.Add(1)
			}
			return nil
		})
	})
	if err != nil {
		return ops, err
	}
	a, b := pair.Load()
	if *a != *b || *a != uint64(successes.Load()) {
		return ops, fmt.Errorf(`%w: pair (%d, %d) after %d swaps`, errInvariant, *a, *b, successes.Load())
	}
	return ops, nil
}

func stressMutex(recursive bool) scenario {
	return func(ctx context.Context, p params) (int64, error) {
		mu := threadsync.NewMutex(recursive)
		var counter int64
		ops, err := fanOut(ctx, p, func(ctx context.Context, _ int) (int64, error) {
			return loop(ctx, p, func(int) error {
				mu.Lock()
				if recursive {
					mu.Lock()
					defer mu.Unlock()
				}
				defer mu.Unlock()
				counter++
				return nil
			})
		})
		if err != nil {
			return ops, err
		}
		if counter != ops {
			return ops, fmt.Errorf(`%w: counter %d after %d increments`, errInvariant, counter, ops)
		}
		if mu.Locked() {
			return ops, fmt.Errorf(`%w: mutex still locked`, errInvariant)
		}
		return ops, nil
	}
}

func stressSpinLock(ctx context.Context, p params) (int64, error) {
	var (
		l       threadsync.SpinLock
		counter int64
	)
	ops, err := fanOut(ctx, p, func(ctx context.Context, _ int) (int64, error) {
		return loop(ctx, p, func(int) error {
			l.Lock()
			counter++
			l.Unlock()
			return nil
		})
	})
	if err == nil && counter != ops {
		err = fmt.Errorf(`%w: counter %d after %d increments`, errInvariant, counter, ops)
	}
	return ops, err
}

// a semaphore with count 1 admits one holder at a time
func stressSemaphore(ctx context.Context, p params) (int64, error) {
	s := threadsync.NewSemaphore(1)
	defer s.Close()
	var holders atomic.Int32
	return fanOut(ctx, p, func(ctx context.Context, _ int) (int64, error) {
		return loop(ctx, p, func(int) error {
			if !s.Wait() {
				return fmt.Errorf(`%w: semaphore wait failed`, errInvariant)
			}
			n := holders.Add(1)
			holders.Add(-1)
			if !s.Post() {
				return fmt.Errorf(`%w: semaphore post failed`, errInvariant)
			}
			if n != 1 {
				return fmt.Errorf(`%w: %d concurrent holders`, errInvariant, n)
			}
			return nil
		})
	})
}

// bounded queue, half the workers producing, half consuming
func stressCondition(ctx context.Context, p params) (int64, error) {
	p.workers = max(p.workers, 2)
	const capacity = 8
	var (
		mu       threadsync.Mutex
		notEmpty threadsync.Condition
		notFull  threadsync.Condition
		queue    []int
		produced int64
		consumed int64
		closed   bool
	)
	producers := max(p.workers/2, 1)

	// once every producer is done, consumers drain what remains
	var remaining atomic.Int32
	remaining.Store(int32(producers))

	ops, err := fanOut(ctx, p, func(ctx context.Context, worker int) (int64, error) {
		if worker < producers {
			defer func() {
				if remaining.Add(-1) == 0 {
					mu.Lock()
					closed = true
					notEmpty.Broadcast()
					mu.Unlock()
				}
			}()
			return loop(ctx, p, func(i int) error {
				mu.Lock()
				defer mu.Unlock()
				for len(queue) == capacity {
					notFull.Wait(&mu)
				}
				queue = append(queue, i)
				produced++
				notEmpty.Signal()
				return nil
			})
		}
		var ops int64
		for {
			mu.Lock()
			for len(queue) == 0 && !closed {
				notEmpty.Wait(&mu)
			}
			if len(queue) == 0 {
				mu.Unlock()
				return ops, nil
			}
			queue = queue[1:]
			consumed++
			notFull.Signal()
			mu.Unlock()
			ops++
		}
	})
	if err != nil {
		return ops, err
	}
	if produced != consumed {
		return ops, fmt.Errorf(`%w: produced %d, consumed %d`, errInvariant, produced, consumed)
	}
	return ops, nil
}

// writers update two values together, readers must never see them differ
func stressRWLock(ctx context.Context, p params) (int64, error) {
	var (
		l    threadsync.RWLock
		a, b int64
	)
	return fanOut(ctx, p, func(ctx context.Context, worker int) (int64, error) {
		writer := worker%4 == 0
		return loop(ctx, p, func(int) error {
			if writer {
				l.WriteLock()
				a++
				runtime.Gosched()
				b++
				l.WriteUnlock()
				return nil
			}
			l.ReadLock()
			x, y := a, b
			l.ReadUnlock()
			if x != y {
				return fmt.Errorf(`%w: torn read (%d, %d)`, errInvariant, x, y)
			}
			return nil
		})
	})
}

// exactly one leader per generation; workers never abandon a generation,
// since the remaining parties would block forever
func stressBarrier(_ context.Context, p params) (int64, error) {
	generations := min(p.iterations, 1000)
	barrier := threadsync.NewBarrier(p.workers)
	leaders := make([]atomic.Int32, generations)
	ops, err := fanOut(context.Background(), p, func(context.Context, int) (int64, error) {
		for i := range generations {
			if barrier.Wait() {
				leaders[i].Add(1)
			}
		}
		return int64(generations), nil
	})
	if err != nil {
		return ops, err
	}
	for i := range leaders {
		if n := leaders[i].Load(); n != 1 {
			return ops, fmt.Errorf(`%w: generation %d had %d leaders`, errInvariant, i, n)
		}
	}
	return ops, nil
}

func stressStorage(ctx context.Context, p params) (int64, error) {
	key := threadsync.NewAutoStorageKey()
	defer key.Close()
	return fanOut(ctx, p, func(ctx context.Context, worker int) (int64, error) {
		defer key.Set(nil)
		return loop(ctx, p, func(i int) error {
			want := [2]int{worker, i}
			key.Set(want)
			runtime.Gosched()
			if got, _ := key.Get().([2]int); got != want {
				return fmt.Errorf(`%w: storage %v, want %v`, errInvariant, got, want)
			}
			return nil
		})
	})
}

// threads run to completion, or are canceled at a cancellation point
func stressThreads(ctx context.Context, p params) (int64, error) {
	rounds := max(p.iterations/1000, 1)
	var ops int64
	for round := range rounds {
		if ctx.Err() != nil {
			break
		}
		threads := make([]*threadsync.Thread, p.workers)
		for i := range threads {
			th, err := threadsync.NewThread(threadsync.RunnerFunc(func(t *threadsync.Thread) int {
				if threadsync.Self() != t {
					return -1
				}
				if i%2 == 1 {
					// canceled while sleeping
					threadsync.Sleep(time.Hour)
				}
				threadsync.Yield()
				return i
			}), threadsync.WithName(fmt.Sprintf(`stress-%d-%d`, round, i)))
			if err != nil {
				return ops, err
			}
			if !th.Start(0) {
				return ops, fmt.Errorf(`%w: thread %d failed to start`, errInvariant, i)
			}
			threads[i] = th
		}
		for i, th := range threads {
			if i%2 == 1 {
				if !th.Cancel() {
					return ops, fmt.Errorf(`%w: thread %d not canceled`, errInvariant, i)
				}
				ops++
				continue
			}
			code, ok := th.Join()
			if !ok || code != i {
				return ops, fmt.Errorf(`%w: thread %d joined (%d, %t)`, errInvariant, i, code, ok)
			}
			ops++
		}
	}
	return ops, nil
}
