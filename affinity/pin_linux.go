//go:build linux
// +build linux

// File: affinity/pin_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity.

package affinity

import "golang.org/x/sys/unix"

// pinCurrentThread restricts the calling thread to logical CPU id.
// pid 0 addresses the calling thread, not the whole process.
func pinCurrentThread(id int) bool {
	if id < 0 {
		return false
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(id)
	if set.Count() == 0 {
		return false
	}
	return unix.SchedSetaffinity(0, &set) == nil
}
