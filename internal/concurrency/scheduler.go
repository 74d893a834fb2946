// File: internal/concurrency/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Static parallel-for: chunk c of a round always runs on worker c mod nthreads.
// There is no work stealing and no rebalancing.

package concurrency

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-par/api"
)

// slot is one participating worker's result area within a round.
type slot struct {
	failedChunk int
	err         error
	chunks      int64
	indices     int64
	_           cpu.CacheLinePad
}

// round is a single ParallelForStatic invocation.
type round struct {
	ctx       context.Context
	n         int
	chunkSize int
	nthreads  int
	numChunks int
	body      api.LoopBody
	slots     []slot
	wg        sync.WaitGroup
}

// NumChunks returns how many chunks of chunkSize cover [0, n).
func NumChunks(n, chunkSize int) int {
	if n <= 0 || chunkSize <= 0 {
		return 0
	}
	c := n / chunkSize
	if n%chunkSize != 0 {
		c++
	}
	return c
}

// ChunkBounds returns the half-open range of chunk c, which must be below
// NumChunks(n, chunkSize).
func ChunkBounds(c, n, chunkSize int) (begin, end int) {
	begin = c * chunkSize
	end = begin + min(chunkSize, n-begin)
	return begin, end
}

// ParallelForStatic runs body(ctx, i) for every i in [0, n) and returns once
// all invocations are done. Chunks of chunkSize indices go round-robin to
// nthreads workers (0 or more than Size means all workers); indices inside a
// chunk run in ascending order.
//
// When a body fails (or panics) its worker abandons its remaining chunks while
// the others finish theirs; the error of the lowest failing chunk is returned
// as an *IndexError. Context cancellation is observed between chunks only.
//
// Called with a context handed out by one of this pool's workers, the loop
// runs inline on that worker.
func (p *ThreadPool) ParallelForStatic(ctx context.Context, n, chunkSize, nthreads int, body api.LoopBody) error {
	if chunkSize <= 0 {
		return fmt.Errorf("concurrency: chunk size %d: %w", chunkSize, api.ErrInvalidArgument)
	}
	if body == nil {
		return fmt.Errorf("concurrency: nil loop body: %w", api.ErrInvalidArgument)
	}
	if n <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if w := workerFrom(ctx); w != nil && w.pool == p {
		return p.runInline(ctx, w, n, chunkSize, body)
	}

	p.roundMu.Lock()
	defer p.roundMu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	size := len(p.workers)
	if nthreads <= 0 || nthreads > size {
		nthreads = size
	}
	active := min(nthreads, NumChunks(n, chunkSize))

	r := &round{
		ctx:       ctx,
		n:         n,
		chunkSize: chunkSize,
		nthreads:  nthreads,
		numChunks: NumChunks(n, chunkSize),
		body:      body,
		slots:     make([]slot, active),
	}
	r.wg.Add(active)
	for s := 0; s < active; s++ {
		p.workers[s].submit(task{r: r, slot: s})
	}
	r.wg.Wait()

	return p.finish(r.slots)
}

// runInline executes a nested loop on the calling worker, chunk by chunk.
func (p *ThreadPool) runInline(ctx context.Context, w *worker, n, chunkSize int, body api.LoopBody) error {
	r := &round{
		ctx:       ctx,
		n:         n,
		chunkSize: chunkSize,
		nthreads:  1,
		numChunks: NumChunks(n, chunkSize),
		body:      body,
		slots:     make([]slot, 1),
	}
	r.runSlot(ctx, w.index, 0)
	return p.finish(r.slots)
}

// finish folds slot results into the pool counters and picks the error of
// the lowest failing chunk.
func (p *ThreadPool) finish(slots []slot) error {
	var err error
	best := -1
	for i := range slots {
		s := &slots[i]
		p.chunks.Add(s.chunks)
		p.indices.Add(s.indices)
		if s.err != nil && (best < 0 || s.failedChunk < best) {
			best, err = s.failedChunk, s.err
		}
	}
	p.rounds.Add(1)
	if err != nil {
		p.failures.Add(1)
		p.log.Debug().Err(err).Int("chunk", best).Msg("parallel for failed")
	}
	return err
}

// exec runs on worker w.
func (r *round) exec(w *worker, s int) {
	defer r.wg.Done()
	r.runSlot(withWorker(r.ctx, w), w.index, s)
}

// runSlot runs chunks s, s+nthreads, s+2*nthreads, ... until the range is
// exhausted or a chunk fails.
func (r *round) runSlot(ctx context.Context, worker, s int) {
	sl := &r.slots[s]
	for c := s; c < r.numChunks; c += r.nthreads {
		begin, end := ChunkBounds(c, r.n, r.chunkSize)
		if err := ctx.Err(); err != nil {
			sl.failedChunk = c
			sl.err = &IndexError{Index: begin, Chunk: c, Worker: worker, Err: err}
			return
		}
		if err := r.runChunk(ctx, c, begin, end, worker); err != nil {
			sl.failedChunk = c
			sl.err = err
			return
		}
		sl.chunks++
		sl.indices += int64(end - begin)
	}
}

func (r *round) runChunk(ctx context.Context, c, begin, end, worker int) (err error) {
	i := begin
	defer func() {
		if v := recover(); v != nil {
			err = &IndexError{Index: i, Chunk: c, Worker: worker, Err: newPanicError(v)}
		}
	}()
	for ; i < end; i++ {
		if e := r.body(ctx, i); e != nil {
			return &IndexError{Index: i, Chunk: c, Worker: worker, Err: e}
		}
	}
	return nil
}
