// File: cmd/parbench/compare.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-par/api"
	"github.com/momentics/hioload-par/facade"
	"github.com/momentics/hioload-par/internal/concurrency"
	"github.com/momentics/hioload-par/internal/timeit"
)

// kernel is the per-index busy loop: sum of k*i for k < 1000.
func kernel(i int) uint64 {
	var j uint64
	for k := uint64(0); k < 1000; k++ {
		j += k * uint64(i)
	}
	return j
}

// threadTimes holds one thread's first-start and last-stop offsets from the
// beginning of a run, in microseconds.
type threadTimes struct {
	started bool
	start   int64
	stop    int64
	_       cpu.CacheLinePad
}

func (t *threadTimes) mark(now time.Duration) {
	us := now.Microseconds()
	if !t.started {
		t.started = true
		t.start = us
	}
	t.stop = us
}

type comparison struct {
	nthreads  int
	ref       []threadTimes
	pool      []threadTimes
	refTotal  time.Duration
	poolTotal time.Duration
}

// compare runs the errgroup reference and then ParallelForStatic over the
// same data and checks both produced the same values.
func compare(ctx context.Context, p *facade.Parallel, rep *timeit.Reporter, n, chunk, nthreads int) (*comparison, error) {
	c := &comparison{
		nthreads: nthreads,
		ref:      make([]threadTimes, nthreads),
		pool:     make([]threadTimes, nthreads),
	}
	want := make([]uint64, n)
	got := make([]uint64, n)

	t := rep.Start(api.Master, fmt.Sprintf("errgroup static, %d threads", nthreads))
	g, gctx := errgroup.WithContext(ctx)
	chunks := concurrency.NumChunks(n, chunk)
	for th := 0; th < nthreads; th++ {
		th := th
		g.Go(func() error {
			for ch := th; ch < chunks; ch += nthreads {
				if err := gctx.Err(); err != nil {
					return err
				}
				begin, end := concurrency.ChunkBounds(ch, n, chunk)
				for i := begin; i < end; i++ {
					want[i] = kernel(i)
					c.ref[th].mark(t.Peek())
				}
			}
			return nil
		})
	}
	err := g.Wait()
	c.refTotal = t.Stop()
	if err != nil {
		return nil, err
	}

	t = rep.Start(api.Master, fmt.Sprintf("parallel for static, %d threads", nthreads))
	err = p.ParallelForStatic(ctx, n, chunk, nthreads, func(ctx context.Context, i int) error {
		k, ok := p.ThreadID(ctx).Index()
		if !ok {
			return fmt.Errorf("index %d ran outside the pool", i)
		}
		got[i] = kernel(i)
		c.pool[k].mark(t.Peek())
		return nil
	})
	c.poolTotal = t.Stop()
	if err != nil {
		return nil, err
	}

	for i := range want {
		if want[i] != got[i] {
			return nil, fmt.Errorf("parbench: result mismatch at index %d: %d != %d", i, got[i], want[i])
		}
	}
	return c, nil
}

func (c *comparison) print(w io.Writer) {
	fmt.Fprintf(w, "%d thread(s)\n", c.nthreads)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tStart Time [us]\t\tStop Time [us]\t\t")
	fmt.Fprintln(tw, "Thread\terrgroup\tThread Pool\terrgroup\tThread Pool\t")

	var refStart, poolStart int64
	for i := 0; i < c.nthreads; i++ {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t\n", i, c.ref[i].start, c.pool[i].start, c.ref[i].stop, c.pool[i].stop)
		refStart += c.ref[i].start
		poolStart += c.pool[i].start
	}
	fmt.Fprintf(tw, "Total [us]\t%d\t%d\t%d\t%d\t\n", refStart, poolStart, c.refTotal.Microseconds(), c.poolTotal.Microseconds())
	tw.Flush()
	fmt.Fprintln(w, strings.Repeat("-", 76))
}
