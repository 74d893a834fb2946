// File: internal/concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker threads. Each worker owns a FIFO job queue fed by the master; it
// sleeps on a condition variable between scheduling rounds instead of
// spinning.

package concurrency

import (
	"runtime"
	"sync"

	"github.com/eapache/queue"
)

// task is one worker's share of a scheduling round.
type task struct {
	r    *round
	slot int
}

// worker is a goroutine locked to its OS thread for its whole life.
type worker struct {
	pool  *ThreadPool
	index int

	mu       sync.Mutex
	cond     *sync.Cond
	jobs     *queue.Queue
	stopping bool

	pinned bool // written before the pool's start latch, read-only afterwards
	done   chan struct{}
}

func newWorker(p *ThreadPool, index int) *worker {
	w := &worker{
		pool:  p,
		index: index,
		jobs:  queue.New(),
		done:  make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// run is the worker main loop. Pinning is attempted once, before the worker
// reports itself started.
func (w *worker) run(started *sync.WaitGroup) {
	runtime.LockOSThread()
	w.pinned = w.pool.pinWorker(w.index)
	started.Done()

	defer close(w.done)
	if !w.pinned {
		defer runtime.UnlockOSThread()
	}
	// A pinned worker returns still locked so the runtime discards its thread.
	for {
		t, ok := w.next()
		if !ok {
			return
		}
		t.r.exec(w, t.slot)
	}
}

// submit enqueues t and wakes the worker.
func (w *worker) submit(t task) {
	w.mu.Lock()
	w.jobs.Add(t)
	w.mu.Unlock()
	w.cond.Signal()
}

// next blocks until a task is available or the worker is stopping with an
// empty queue.
func (w *worker) next() (task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.jobs.Length() == 0 {
		if w.stopping {
			return task{}, false
		}
		w.cond.Wait()
	}
	return w.jobs.Remove().(task), true
}

// stop asks the worker to exit once its queue is drained and waits for it.
func (w *worker) stop() {
	w.mu.Lock()
	w.stopping = true
	w.mu.Unlock()
	w.cond.Broadcast()
	<-w.done
}
