//go:build linux
// +build linux

// File: affinity/probe_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux topology discovery reads the processor table once per probe.

package affinity

// CPUInfoPath is the processor table read by the Linux default prober.
const CPUInfoPath = "/proc/cpuinfo"

// DefaultProber returns the text-table prober over /proc/cpuinfo.
func DefaultProber() Prober {
	return CPUInfoProber{Path: CPUInfoPath}
}
