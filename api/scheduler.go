// Package api
// Author: momentics
//
// Scheduler contract for static parallel loops over a fixed thread pool.

package api

import "context"

// LoopBody is invoked once per iteration index. The context carries the
// identity of the executing worker and the caller's values.
type LoopBody func(ctx context.Context, i int) error

// Scheduler runs statically partitioned parallel loops.
type Scheduler interface {
	// ParallelForStatic runs body for every index in [0, n), splitting the
	// range into chunks of chunkSize assigned round-robin to nthreads workers.
	// It returns once every invocation has completed.
	ParallelForStatic(ctx context.Context, n, chunkSize, nthreads int, body LoopBody) error

	// PoolSize returns the configured worker count.
	PoolSize() int

	// ThreadID returns the identity of the thread that received ctx.
	ThreadID(ctx context.Context) ThreadID
}
