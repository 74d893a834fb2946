// File: facade/parallel.go
// Unified facade layer for hioload-par.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Parallel aggregates the topology, the thread pool with its static
// scheduler, and the control plane (config store, metrics, debug probes)
// behind a single object built from one Config.

package facade

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-par/adapters"
	"github.com/momentics/hioload-par/affinity"
	"github.com/momentics/hioload-par/api"
	"github.com/momentics/hioload-par/control"
	"github.com/momentics/hioload-par/internal/concurrency"
)

// Config holds the file-level settings plus in-process overrides.
type Config struct {
	control.Config

	// Topology replaces host discovery when set.
	Topology api.Topology
	// Logger replaces the stderr logger built from LogLevel when set.
	Logger *zerolog.Logger
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{Config: *control.DefaultConfig()}
}

// FromFile loads a control config file into a facade Config.
func FromFile(path string) (*Config, error) {
	c, err := control.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Config{Config: *c}, nil
}

// Parallel is the main facade type.
// It implements api.GracefulShutdown to allow unified shutdown logic.
type Parallel struct {
	topo    api.Topology
	pool    *concurrency.ThreadPool
	control *adapters.ControlAdapter
	log     zerolog.Logger

	chunkSize atomic.Int64

	mu      sync.Mutex     // serializes reload handling and shutdown
	closed  bool
	applied map[string]any // last accepted live-reloadable values
}

var (
	_ api.GracefulShutdown = (*Parallel)(nil)
	_ api.Scheduler        = (*Parallel)(nil)
)

// New probes the topology (unless cfg supplies one), starts the pool and
// publishes the configuration to the control store.
func New(cfg *Config) (*Parallel, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	topo := cfg.Topology
	if topo == nil {
		topo = probe(cfg.CPUInfoPath)
	}
	if !topo.IsAccurate() {
		log.Warn().Msg("hardware topology discovery degraded to a single core")
	}

	p := &Parallel{
		topo:    topo,
		control: adapters.NewControlAdapter(),
		log:     log,
	}
	p.chunkSize.Store(int64(cfg.ChunkSize))
	p.applied = map[string]any{
		control.KeyWorkers:   cfg.Workers,
		control.KeyChunkSize: cfg.ChunkSize,
	}
	p.pool = concurrency.NewThreadPool(topo,
		concurrency.WithSize(cfg.Workers),
		concurrency.WithPinning(cfg.Pin),
		concurrency.WithLogger(log),
	)

	control.RegisterTopologyProbes(p.control.Probes(), topo)
	if err := p.control.SetConfig(cfg.Map()); err != nil {
		p.pool.Close()
		return nil, fmt.Errorf("facade: publish config: %w", err)
	}
	p.control.OnReload(p.onReload)
	p.publishMetrics()

	log.Info().
		Int("workers", p.pool.Size()).
		Int("pinned", p.pool.Pinned()).
		Int("cores", topo.NumPhysicalCores()).
		Int("hw_threads", topo.NumHWThreads()).
		Msg("parallel runtime started")
	return p, nil
}

func newLogger(cfg *Config) (zerolog.Logger, error) {
	if cfg.Logger != nil {
		return *cfg.Logger, nil
	}
	lvl, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}

func probe(cpuinfoPath string) api.Topology {
	if cpuinfoPath != "" {
		return affinity.CPUInfoProber{Path: cpuinfoPath}.Probe()
	}
	return affinity.Probe()
}

// ParallelForStatic runs body over [0, n) on the pool; see
// concurrency.ThreadPool.ParallelForStatic.
func (p *Parallel) ParallelForStatic(ctx context.Context, n, chunkSize, nthreads int, body api.LoopBody) error {
	if ctx == nil {
		ctx = context.Background()
	}
	err := p.pool.ParallelForStatic(ctx, n, chunkSize, nthreads, body)
	if p.ThreadID(ctx).IsMaster() {
		p.publishMetrics()
	}
	return err
}

// For runs body over [0, n) on all workers with the configured chunk size.
func (p *Parallel) For(ctx context.Context, n int, body api.LoopBody) error {
	return p.ParallelForStatic(ctx, n, p.ChunkSize(), 0, body)
}

// ChunkSize returns the chunk size used by For.
func (p *Parallel) ChunkSize() int { return int(p.chunkSize.Load()) }

// PoolSize returns the number of workers.
func (p *Parallel) PoolSize() int { return p.pool.Size() }

// ThreadID returns the identity of the calling worker, or api.Master.
func (p *Parallel) ThreadID(ctx context.Context) api.ThreadID { return p.pool.ThreadID(ctx) }

// Topology returns the topology in use.
func (p *Parallel) Topology() api.Topology { return p.topo }

// GetControl returns the Control interface for dynamic config and metrics.
func (p *Parallel) GetControl() api.Control { return p.control }

// GetDebugAPI returns the debug probe registry.
func (p *Parallel) GetDebugAPI() api.Debug { return p.control.Debug() }

// Stats returns the pool counters.
func (p *Parallel) Stats() concurrency.Stats { return p.pool.Stats() }

// DumpState returns metrics, configuration and debug probes in one map.
func (p *Parallel) DumpState() map[string]any {
	p.publishMetrics()
	return p.control.Stats()
}

// Resize changes the worker count through the control store, so reload
// listeners observe it like any other config change. Zero means one worker
// per hardware thread. Like the pool's Resize it must not be called from a
// loop body.
func (p *Parallel) Resize(workers int) error {
	if workers < 0 {
		return fmt.Errorf("facade: workers %d: %w", workers, api.ErrInvalidArgument)
	}
	if p.isClosed() {
		return api.ErrPoolClosed
	}
	if err := p.control.SetConfig(map[string]any{control.KeyWorkers: workers}); err != nil {
		return err
	}
	target := workers
	if target == 0 {
		target = p.topo.NumHWThreads()
	}
	if got := p.pool.Size(); got != target {
		return fmt.Errorf("facade: resize to %d workers left %d running", target, got)
	}
	return nil
}

// Shutdown implements api.GracefulShutdown. It is safe to call more than once.
func (p *Parallel) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.pool.Close()
	p.publishMetrics()
	p.log.Info().Msg("parallel runtime stopped")
	return nil
}

func (p *Parallel) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// onReload applies config changes that can take effect on a live pool. A
// rejected workers or chunk_size value is put back to the last accepted one
// so the store keeps describing the running pool. Listeners registered after
// this one may still see the rejected value before the correction.
func (p *Parallel) onReload(changed map[string]any) {
	revert := p.applyReload(changed)
	if len(revert) > 0 {
		p.control.SetConfig(revert)
	}
}

func (p *Parallel) applyReload(changed map[string]any) map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	revert := make(map[string]any)
	for key, v := range changed {
		switch key {
		case control.KeyWorkers:
			n, ok := control.IntValue(v)
			if !ok || n < 0 {
				p.log.Warn().Interface("value", v).Msg("rejecting invalid workers value")
				revert[key] = p.applied[key]
				continue
			}
			target := n
			if target == 0 {
				target = p.topo.NumHWThreads()
			}
			if target != p.pool.Size() {
				if err := p.pool.Resize(target); err != nil {
					p.log.Error().Err(err).Int("workers", target).Msg("resize failed")
					revert[key] = p.applied[key]
					continue
				}
			}
			p.applied[key] = n
		case control.KeyChunkSize:
			n, ok := control.IntValue(v)
			if !ok || n <= 0 {
				p.log.Warn().Interface("value", v).Msg("rejecting invalid chunk_size value")
				revert[key] = p.applied[key]
				continue
			}
			p.chunkSize.Store(int64(n))
			p.applied[key] = n
		default:
			p.log.Info().Str("key", key).Msg("config change takes effect on restart")
		}
	}
	p.publishMetrics()
	return revert
}

// publishMetrics only touches atomics and the registry lock, so it is safe
// with or without p.mu held.
func (p *Parallel) publishMetrics() {
	st := p.pool.Stats()
	p.control.PublishMetrics(map[string]any{
		"pool.size":          st.Size,
		"pool.pinned":        st.Pinned,
		"scheduler.rounds":   st.Rounds,
		"scheduler.chunks":   st.Chunks,
		"scheduler.indices":  st.Indices,
		"scheduler.failures": st.Failures,
		"scheduler.chunk":    p.ChunkSize(),
	})
}
