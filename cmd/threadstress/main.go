// Command threadstress hammers the threadsync primitives from many
// goroutines and threads at once, failing if any invariant is violated.
//
// Usage:
//
//	threadstress [-config stress.toml] [-scenarios mutex,barrier] [-workers 0] [-duration 30s]
//
// Flags override values from the config file. Logs are written to stderr,
// as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/joeycumines/go-threadsync"
	"github.com/joeycumines/go-threadsync/atomics"
	"github.com/joeycumines/stumpy"
	"github.com/pbnjay/memory"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, output io.Writer) int {
	cfg, err := parseConfig(args, output)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintln(output, err)
		return 2
	}

	level, _ := parseLevel(cfg.LogLevel)
	log := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(output)),
		stumpy.L.WithLevel(level),
	).Logger()
	threadsync.SetLogger(log)
	defer threadsync.SetLogger(nil)

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug().Logf(format, args...)
	}))
	if err != nil {
		log.Warning().Err(err).Log(`failed to set GOMAXPROCS`)
	}
	defer undo()

	if cfg.MemoryRatio > 0 {
		limit, err := memlimit.SetGoMemLimitWithOpts(
			memlimit.WithRatio(cfg.MemoryRatio),
			memlimit.WithProvider(memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem)),
		)
		if err != nil {
			log.Warning().Err(err).Log(`failed to set GOMEMLIMIT`)
		} else {
			log.Debug().Int64(`limit`, limit).Log(`set GOMEMLIMIT`)
		}
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = threadsync.Processors() * 4
	}

	log.Info().
		Int(`processors`, threadsync.Processors()).
		Int(`workers`, workers).
		Int(`iterations`, cfg.Iterations).
		Uint64(`total_memory`, memory.TotalMemory()).
		Uint64(`free_memory`, memory.FreeMemory()).
		Bool(`locked_atomics`, atomics.Locked).
		Dur(`duration`, cfg.Duration.Duration).
		Log(`starting`)

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration.Duration)
	defer cancel()

	results, err := runScenarios(ctx, cfg.Scenarios, params{
		log:        log,
		workers:    workers,
		iterations: cfg.Iterations,
	})

	var ops int64
	for _, r := range results {
		ops += r.ops
	}

	switch {
	case err == nil:
		log.Info().Int(`scenarios`, len(results)).Int64(`ops`, ops).Log(`passed`)
		return 0
	case errors.Is(err, context.DeadlineExceeded):
		log.Warning().Int(`scenarios`, len(results)).Int64(`ops`, ops).Log(`time limit reached`)
		return 0
	default:
		log.Err().Err(err).Int(`scenarios`, len(results)).Int64(`ops`, ops).Log(`failed`)
		return 1
	}
}
