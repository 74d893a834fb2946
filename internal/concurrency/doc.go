// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-size thread pool with optional per-worker CPU pinning and a static,
// round-robin parallel-for scheduler. Each worker is a goroutine locked to its
// own OS thread; work reaches it through a private FIFO queue and every
// scheduling round joins on a latch before returning to the caller.
//
// Worker identity travels in the context handed to loop bodies, so code
// running on a worker (or called from it with the same context) can ask
// which worker it is on. See ThreadPool.ThreadID.
package concurrency
