// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug handler and probe reflector for internal inspection.

package control

import (
	"sync"

	"github.com/momentics/hioload-par/api"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

var _ api.Debug = (*DebugProbes)(nil)

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook, replacing any previous one.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	probes := make(map[string]func() any, len(dp.probes))
	for k, fn := range dp.probes {
		probes[k] = fn
	}
	dp.mu.RUnlock()

	out := make(map[string]any, len(probes))
	for k, fn := range probes {
		out[k] = fn()
	}
	return out
}

// RegisterTopologyProbes exposes the shape of topo under "topology.*".
func RegisterTopologyProbes(dp *DebugProbes, topo api.Topology) {
	dp.RegisterProbe("topology.accurate", func() any { return topo.IsAccurate() })
	dp.RegisterProbe("topology.cores", func() any { return topo.NumPhysicalCores() })
	dp.RegisterProbe("topology.hw_threads", func() any { return topo.NumHWThreads() })
	dp.RegisterProbe("topology.threads_per_core", func() any {
		per := make([]int, topo.NumPhysicalCores())
		for c := range per {
			per[c] = topo.NumHWThreadsForCore(c)
		}
		return per
	})
	if s, ok := topo.(interface{ Source() string }); ok {
		dp.RegisterProbe("topology.source", func() any { return s.Source() })
	}
}
