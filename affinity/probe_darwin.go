//go:build darwin
// +build darwin

// File: affinity/probe_darwin.go
// Author: momentics <momentics@gmail.com>
//
// Apple topology discovery: sysctl only reports processor counts.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DefaultProber returns the flat-ratio prober fed by sysctl.
func DefaultProber() Prober {
	return CountProber{Counts: sysctlCounts}
}

func sysctlCounts() (int, int, error) {
	logical, err := unix.SysctlUint32("hw.logicalcpu")
	if err != nil {
		return 0, 0, fmt.Errorf("sysctl hw.logicalcpu: %w", err)
	}
	physical, err := unix.SysctlUint32("hw.physicalcpu")
	if err != nil {
		return 0, 0, fmt.Errorf("sysctl hw.physicalcpu: %w", err)
	}
	return int(logical), int(physical), nil
}
