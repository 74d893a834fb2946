// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter that pins the calling goroutine's OS thread through an
//   api.Topology and remembers the binding.
//
// Package adapters provides glue code between the core API contracts
// and the internal implementation.

package adapters

import (
	"runtime"
	"sync"

	"github.com/momentics/hioload-par/api"
)

// AffinityAdapter pins the calling thread to one hardware thread of a
// topology. A successful Pin leaves the goroutine locked to its OS thread so
// the binding stays with the goroutine.
type AffinityAdapter struct {
	topo api.Topology

	mu       sync.Mutex
	core     int
	hwThread int
	pinned   bool
}

// NewAffinityAdapter creates an unbound adapter over topo.
func NewAffinityAdapter(topo api.Topology) *AffinityAdapter {
	return &AffinityAdapter{topo: topo, core: -1, hwThread: -1}
}

// Pin binds the calling thread to (core, hwThread). It panics on an invalid
// pair, exactly like api.Topology.SetAffinity, and returns false when the OS
// refuses; in that case the goroutine is unlocked again.
func (a *AffinityAdapter) Pin(core, hwThread int) bool {
	runtime.LockOSThread()
	ok := false
	defer func() {
		if !ok {
			runtime.UnlockOSThread()
		}
	}()
	if !a.topo.SetAffinity(core, hwThread) {
		return false
	}
	ok = true

	a.mu.Lock()
	a.core, a.hwThread, a.pinned = core, hwThread, true
	a.mu.Unlock()
	return true
}

// Get returns the last successful binding, or (-1, -1, false).
func (a *AffinityAdapter) Get() (core, hwThread int, pinned bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.core, a.hwThread, a.pinned
}

// Topology returns the topology pins are resolved against.
func (a *AffinityAdapter) Topology() api.Topology {
	return a.topo
}
