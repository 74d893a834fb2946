// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

package concurrency_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-par/affinity"
	"github.com/momentics/hioload-par/api"
	"github.com/momentics/hioload-par/fake"
	"github.com/momentics/hioload-par/internal/concurrency"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newPool(t *testing.T, size int, opts ...concurrency.Option) *concurrency.ThreadPool {
	t.Helper()
	topo := make([]int, size)
	for i := range topo {
		topo[i] = 1
	}
	p := concurrency.NewThreadPool(fake.NewTopology(topo...), append([]concurrency.Option{concurrency.WithSize(size)}, opts...)...)
	t.Cleanup(p.Close)
	return p
}

func TestThreadPool_DefaultSizeFollowsTopology(t *testing.T) {
	p := concurrency.NewThreadPool(fake.NewTopology(2, 2, 1))
	defer p.Close()
	assert.Equal(t, 5, p.Size())
	assert.Equal(t, 5, p.PoolSize())
}

func TestThreadPool_NilTopologyProbesHost(t *testing.T) {
	p := concurrency.NewThreadPool(nil, concurrency.WithSize(2))
	defer p.Close()
	assert.Equal(t, 2, p.Size())
	assert.NotNil(t, p.Topology())
}

func TestThreadPool_SizeIsStable(t *testing.T) {
	p := newPool(t, 3)
	for i := 0; i < 10; i++ {
		require.Equal(t, 3, p.Size())
	}
}

func TestThreadPool_WithSizeNegativePanics(t *testing.T) {
	assert.Panics(t, func() { concurrency.WithSize(-1) })
}

func TestThreadPool_MasterIdentity(t *testing.T) {
	p := newPool(t, 2)
	ctx := context.Background()
	assert.True(t, p.ThreadID(ctx).IsMaster())
	assert.Equal(t, api.Master, concurrency.ThreadIDFrom(ctx))

	var none context.Context
	assert.True(t, p.ThreadID(none).IsMaster())
	assert.Equal(t, api.Master, concurrency.ThreadIDFrom(none))
}

func TestThreadPool_PinsSpreadAcrossCores(t *testing.T) {
	topo := fake.NewTopology(2, 2)
	p := concurrency.NewThreadPool(topo, concurrency.WithPinning(true))
	defer p.Close()

	assert.Equal(t, 4, p.Pinned())
	assert.ElementsMatch(t, []fake.Pin{
		{Core: 0, HWThread: 0}, {Core: 1, HWThread: 0},
		{Core: 0, HWThread: 1}, {Core: 1, HWThread: 1},
	}, topo.Pins())
}

func TestThreadPool_PinningRefusedIsTolerated(t *testing.T) {
	var buf syncBuffer
	topo := fake.NewTopology(1, 1)
	topo.Refuse = true
	p := concurrency.NewThreadPool(topo,
		concurrency.WithPinning(true),
		concurrency.WithLogger(zerolog.New(&buf)),
	)
	defer p.Close()

	assert.Equal(t, 0, p.Pinned())
	assert.Len(t, topo.Pins(), 2)
	assert.Contains(t, buf.String(), "thread pinning refused")
	require.NoError(t, p.ParallelForStatic(context.Background(), 100, 7, 0, func(context.Context, int) error {
		return nil
	}))
}

func TestThreadPool_NoPinningWhenInaccurateOrDisabled(t *testing.T) {
	inaccurate := fake.NewTopology(1)
	inaccurate.Inaccurate = true
	p := concurrency.NewThreadPool(inaccurate, concurrency.WithPinning(true), concurrency.WithSize(2))
	p.Close()
	assert.Empty(t, inaccurate.Pins())

	disabled := fake.NewTopology(2)
	p = concurrency.NewThreadPool(disabled)
	p.Close()
	assert.Empty(t, disabled.Pins())
	assert.Equal(t, 0, p.Pinned())
}

func TestThreadPool_PinsHostTopology(t *testing.T) {
	topo := affinity.Probe()
	p := concurrency.NewThreadPool(topo, concurrency.WithPinning(true), concurrency.WithSize(2))
	defer p.Close()
	t.Logf("pinned %d of %d workers on %s", p.Pinned(), p.Size(), topo)

	seen := make([]api.ThreadID, 64)
	require.NoError(t, p.ParallelForStatic(context.Background(), len(seen), 1, 0, func(ctx context.Context, i int) error {
		seen[i] = p.ThreadID(ctx)
		return nil
	}))
	for _, id := range seen {
		assert.False(t, id.IsMaster())
	}
}

func TestPinTarget(t *testing.T) {
	topo := fake.NewTopology(2, 2, 1)
	want := [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 0}, {0, 0}}
	for i, w := range want {
		core, hw := concurrency.PinTarget(topo, i)
		assert.Equal(t, w, [2]int{core, hw}, "worker %d", i)
	}
}

func TestThreadPool_Resize(t *testing.T) {
	p := newPool(t, 2)
	require.NoError(t, p.Resize(5))
	assert.Equal(t, 5, p.Size())

	var hits [5]bool
	require.NoError(t, p.ParallelForStatic(context.Background(), 5, 1, 0, func(ctx context.Context, i int) error {
		if k, ok := p.ThreadID(ctx).Index(); ok {
			hits[k] = true
		}
		return nil
	}))
	assert.Equal(t, [5]bool{true, true, true, true, true}, hits)

	require.NoError(t, p.Resize(1))
	assert.Equal(t, 1, p.Size())
	assert.ErrorIs(t, p.Resize(0), api.ErrInvalidArgument)
}

func TestThreadPool_CloseIsIdempotent(t *testing.T) {
	p := concurrency.NewThreadPool(fake.NewTopology(1, 1))
	p.Close()
	p.Close()

	err := p.ParallelForStatic(context.Background(), 10, 1, 0, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, concurrency.ErrPoolClosed)
	assert.ErrorIs(t, p.Resize(2), api.ErrPoolClosed)
}
