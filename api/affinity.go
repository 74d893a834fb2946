// Package api
// Author: momentics@gmail.com
//
// Hardware topology and thread pinning definitions.

package api

// Topology is the read-only view of the machine's core/hardware-thread layout.
// Implementations are immutable after construction and safe for concurrent reads.
type Topology interface {
	// IsAccurate reports whether discovery produced self-consistent data.
	// When false, the topology is the single-core/single-thread fallback.
	IsAccurate() bool
	// NumPhysicalCores returns the number of discovered physical cores (>= 1).
	NumPhysicalCores() int
	// NumHWThreads returns the total number of hardware threads (>= NumPhysicalCores).
	NumHWThreads() int
	// NumHWThreadsForCore returns the hardware thread count of core.
	// Panics unless 0 <= core < NumPhysicalCores().
	NumHWThreadsForCore(core int) int
	// SetAffinity pins the calling OS thread to the given hardware thread of core.
	// Panics unless 0 <= hwThread < NumHWThreadsForCore(core).
	// Returns false if the OS declines the request.
	SetAffinity(core, hwThread int) bool
}
