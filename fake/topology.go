// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-par/api"
)

// Pin records one SetAffinity request.
type Pin struct {
	Core, HWThread int
}

// Topology is a configurable api.Topology that records pin requests instead
// of touching the OS.
type Topology struct {
	ThreadsPerCore []int // hardware threads of each core
	Inaccurate     bool
	Refuse         bool // SetAffinity returns false

	mu   sync.Mutex
	pins []Pin
}

var _ api.Topology = (*Topology)(nil)

// NewTopology returns an accurate topology with the given threads per core.
func NewTopology(threadsPerCore ...int) *Topology {
	return &Topology{ThreadsPerCore: threadsPerCore}
}

func (f *Topology) IsAccurate() bool      { return !f.Inaccurate }
func (f *Topology) NumPhysicalCores() int { return len(f.ThreadsPerCore) }

func (f *Topology) NumHWThreads() int {
	n := 0
	for _, t := range f.ThreadsPerCore {
		n += t
	}
	return n
}

func (f *Topology) NumHWThreadsForCore(core int) int {
	return f.ThreadsPerCore[core]
}

func (f *Topology) SetAffinity(core, hwThread int) bool {
	if hwThread < 0 || hwThread >= f.ThreadsPerCore[core] {
		panic("fake: hardware thread out of range")
	}
	f.mu.Lock()
	f.pins = append(f.pins, Pin{Core: core, HWThread: hwThread})
	f.mu.Unlock()
	return !f.Refuse
}

// Pins returns a copy of the recorded pin requests in arrival order.
func (f *Topology) Pins() []Pin {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Pin(nil), f.pins...)
}
