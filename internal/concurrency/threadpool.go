// File: internal/concurrency/threadpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ThreadPool owns a fixed set of pinned-or-unpinned worker threads.

package concurrency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-par/affinity"
	"github.com/momentics/hioload-par/api"
)

var (
	_ api.Scheduler = (*ThreadPool)(nil)
	_ api.Executor  = (*ThreadPool)(nil)
)

// ThreadPool is a fixed-size set of worker threads driven by a master.
// Rounds submitted from different goroutines are serialized.
type ThreadPool struct {
	topo api.Topology
	cfg  poolConfig
	log  zerolog.Logger

	// roundMu serializes scheduling rounds, Resize and Close.
	roundMu sync.Mutex
	workers []*worker
	closed  bool

	size   atomic.Int64
	pinned atomic.Int64

	rounds   atomic.Int64
	chunks   atomic.Int64
	indices  atomic.Int64
	failures atomic.Int64
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Size     int   // configured worker count
	Pinned   int   // workers whose pin request succeeded
	Rounds   int64 // completed ParallelForStatic rounds
	Chunks   int64 // chunks run to completion
	Indices  int64 // loop indices run inside completed chunks
	Failures int64 // rounds that returned an error
}

// NewThreadPool starts the workers and returns once each has made its single
// pinning attempt. A nil topology is probed from the host.
func NewThreadPool(topo api.Topology, opts ...Option) *ThreadPool {
	if topo == nil {
		topo = affinity.Probe()
	}
	cfg := defaultPoolConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.size == 0 {
		cfg.size = topo.NumHWThreads()
	}
	p := &ThreadPool{topo: topo, cfg: cfg, log: cfg.logger}
	if cfg.pin && !topo.IsAccurate() {
		p.log.Warn().Msg("topology is not accurate, workers will not be pinned")
	}
	p.spawn(cfg.size)
	return p
}

// spawn starts n workers. Caller holds roundMu or owns p exclusively.
func (p *ThreadPool) spawn(n int) {
	var started sync.WaitGroup
	started.Add(n)
	p.workers = make([]*worker, n)
	for i := range p.workers {
		w := newWorker(p, i)
		p.workers[i] = w
		go w.run(&started)
	}
	started.Wait()

	pinned := 0
	for _, w := range p.workers {
		if w.pinned {
			pinned++
		}
	}
	p.size.Store(int64(n))
	p.pinned.Store(int64(pinned))
	p.log.Debug().Int("workers", n).Int("pinned", pinned).Msg("thread pool started")
}

func (p *ThreadPool) stopWorkers() {
	for _, w := range p.workers {
		w.stop()
	}
	p.workers = nil
}

// PinTarget maps worker i onto (core, hwThread), filling the first hardware
// thread of every core before the second one of any core.
func PinTarget(topo api.Topology, i int) (core, hwThread int) {
	cores := topo.NumPhysicalCores()
	core = i % cores
	hwThread = (i / cores) % topo.NumHWThreadsForCore(core)
	return core, hwThread
}

// pinWorker runs on the worker's locked OS thread.
func (p *ThreadPool) pinWorker(i int) bool {
	if !p.cfg.pin || !p.topo.IsAccurate() {
		return false
	}
	core, hw := PinTarget(p.topo, i)
	if !p.topo.SetAffinity(core, hw) {
		p.log.Warn().Int("worker", i).Int("core", core).Int("hw_thread", hw).Msg("thread pinning refused")
		return false
	}
	p.log.Debug().Int("worker", i).Int("core", core).Int("hw_thread", hw).Msg("worker pinned")
	return true
}

// Size returns the configured worker count.
func (p *ThreadPool) Size() int { return int(p.size.Load()) }

// PoolSize is an alias of Size.
func (p *ThreadPool) PoolSize() int { return p.Size() }

// Pinned returns how many workers were successfully pinned.
func (p *ThreadPool) Pinned() int { return int(p.pinned.Load()) }

// Topology returns the topology the pool was built with.
func (p *ThreadPool) Topology() api.Topology { return p.topo }

// ThreadID returns the identity of the worker of this pool that received
// ctx, or api.Master for any other caller.
func (p *ThreadPool) ThreadID(ctx context.Context) api.ThreadID {
	if w := workerFrom(ctx); w != nil && w.pool == p {
		return api.WorkerID(w.index)
	}
	return api.Master
}

// Stats returns a snapshot of pool counters.
func (p *ThreadPool) Stats() Stats {
	return Stats{
		Size:     p.Size(),
		Pinned:   p.Pinned(),
		Rounds:   p.rounds.Load(),
		Chunks:   p.chunks.Load(),
		Indices:  p.indices.Load(),
		Failures: p.failures.Load(),
	}
}

// Resize replaces the whole worker set with n fresh workers, after any
// running round has finished. It must not be called from a loop body.
func (p *ThreadPool) Resize(n int) error {
	if n <= 0 {
		return fmt.Errorf("concurrency: resize to %d workers: %w", n, api.ErrInvalidArgument)
	}
	p.roundMu.Lock()
	defer p.roundMu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	old := len(p.workers)
	p.stopWorkers()
	p.spawn(n)
	p.log.Info().Int("from", old).Int("to", n).Msg("thread pool resized")
	return nil
}

// Close stops all workers. It is safe to call more than once.
func (p *ThreadPool) Close() {
	p.roundMu.Lock()
	defer p.roundMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.stopWorkers()
	p.log.Debug().Msg("thread pool closed")
}
