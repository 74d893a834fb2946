//go:build !linux && !windows && !darwin
// +build !linux,!windows,!darwin

// File: affinity/probe_other.go
// Author: momentics <momentics@gmail.com>
//
// Other systems: a procfs processor table where one is mounted, otherwise
// CPUID counts. Pinning is not supported.

package affinity

// CPUInfoPath is the processor table tried first by the default prober.
const CPUInfoPath = "/proc/cpuinfo"

// DefaultProber returns the text-table prober over /proc/cpuinfo, falling
// back to the flat-ratio strategy fed by CPUID.
func DefaultProber() Prober {
	return Chain(CPUInfoProber{Path: CPUInfoPath}, CountProber{Counts: CPUIDCounts})
}

func pinCurrentThread(int) bool { return false }
