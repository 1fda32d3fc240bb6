// Package atomics implements the indivisible read-modify-write operations used
// by the rest of threadsync: exchange, fetch-add, compare-and-swap (returning
// either the prior value or a success flag), and a double-word
// compare-and-swap over a pointer pair, see [Pair].
//
// Every operation acts as a full memory barrier.
//
// # Backends
//
// Operations are implemented using [sync/atomic] by default. Building with the
// threadsync_lockedatomics tag selects the fallback backend instead, which
// serializes every operation through a single process-wide mutex. This is
// intended for targets without usable hardware atomics, and for validating
// callers against the slower path. The selection is global: every operation,
// on every cell, uses the same backend ([Locked] reports which), since mixing
// the two on one memory location would break atomicity.
//
// A cell (the memory location passed to an operation) must only ever be
// accessed via this package, and 64-bit cells must be 64-bit aligned.
package atomics
