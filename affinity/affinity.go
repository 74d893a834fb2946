// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral hardware topology and thread pinning. Discovery strategies
// live in coremask.go, counts.go and cpuinfo.go; the per-OS factory and pin
// hooks are in the build-tagged probe_*.go / pin_*.go files.

package affinity

import (
	"fmt"
	"strings"

	"github.com/momentics/hioload-par/api"
)

// Topology sources.
const (
	SourceCPUInfo  = "cpuinfo"
	SourceCoreMask = "coremask"
	SourceCounts   = "counts"
	SourceFallback = "fallback"
)

// PinFunc pins the calling OS thread to the hardware thread identified by id.
// The meaning of id depends on the strategy that produced the topology.
type PinFunc func(id int) bool

// Topology is an immutable snapshot of the machine's cores and hardware threads.
type Topology struct {
	cores        [][]int
	numHWThreads int
	accurate     bool
	source       string
	pin          PinFunc
}

var _ api.Topology = (*Topology)(nil)

// Prober discovers the topology of the running host.
type Prober interface {
	Probe() *Topology
}

// ProberFunc adapts a function to Prober.
type ProberFunc func() *Topology

// Probe calls f.
func (f ProberFunc) Probe() *Topology { return f() }

// Chain returns a prober that tries each prober in turn and keeps the first
// accurate result, or the degraded model if none is accurate.
func Chain(probers ...Prober) Prober {
	return ProberFunc(func() *Topology {
		for _, p := range probers {
			if t := p.Probe(); t.IsAccurate() {
				return t
			}
		}
		return degraded()
	})
}

// Probe discovers the topology of the running host with the platform's
// default strategy. It never fails; see IsAccurate.
func Probe() *Topology {
	return DefaultProber().Probe()
}

// fromCores builds a topology from per-core identifier lists.
// An empty layout yields the degraded model.
func fromCores(cores [][]int, source string) *Topology {
	total := 0
	for _, ids := range cores {
		total += len(ids)
	}
	if total == 0 {
		return degraded()
	}
	return &Topology{
		cores:        cores,
		numHWThreads: total,
		accurate:     true,
		source:       source,
		pin:          pinCurrentThread,
	}
}

// degraded is the single-core/single-thread fallback.
func degraded() *Topology {
	return &Topology{
		cores:        [][]int{{0}},
		numHWThreads: 1,
		source:       SourceFallback,
		pin:          pinCurrentThread,
	}
}

// Degraded returns the fallback topology: one core, one hardware thread,
// not accurate.
func Degraded() *Topology { return degraded() }

// IsAccurate implements api.Topology.
func (t *Topology) IsAccurate() bool { return t.accurate }

// NumPhysicalCores implements api.Topology.
func (t *Topology) NumPhysicalCores() int { return len(t.cores) }

// NumHWThreads implements api.Topology.
func (t *Topology) NumHWThreads() int { return t.numHWThreads }

// NumHWThreadsForCore implements api.Topology.
func (t *Topology) NumHWThreadsForCore(core int) int {
	t.checkCore(core)
	return len(t.cores[core])
}

// HWThreadIDs returns the ordered hardware thread identifiers of core.
func (t *Topology) HWThreadIDs(core int) []int {
	t.checkCore(core)
	return append([]int(nil), t.cores[core]...)
}

// Source names the strategy that produced the topology.
func (t *Topology) Source() string { return t.source }

// SetAffinity implements api.Topology. The caller must have locked its
// goroutine to the OS thread (runtime.LockOSThread) for the pin to stick.
func (t *Topology) SetAffinity(core, hwThread int) bool {
	t.checkCore(core)
	if hwThread < 0 || hwThread >= len(t.cores[core]) {
		panic(fmt.Sprintf("affinity: hardware thread %d out of range [0, %d) for core %d",
			hwThread, len(t.cores[core]), core))
	}
	if t.pin == nil {
		return false
	}
	return t.pin(t.cores[core][hwThread])
}

// WithPinner returns a copy of t whose SetAffinity delegates to fn.
func (t *Topology) WithPinner(fn PinFunc) *Topology {
	c := *t
	c.pin = fn
	return &c
}

func (t *Topology) checkCore(core int) {
	if core < 0 || core >= len(t.cores) {
		panic(fmt.Sprintf("affinity: core %d out of range [0, %d)", core, len(t.cores)))
	}
}

// String renders the layout, e.g. "cpuinfo: 2 cores, 4 threads [0 2] [1 3]".
func (t *Topology) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d cores, %d threads", t.source, len(t.cores), t.numHWThreads)
	if !t.accurate {
		b.WriteString(" (inaccurate)")
	}
	for _, ids := range t.cores {
		fmt.Fprintf(&b, " %v", ids)
	}
	return b.String()
}
