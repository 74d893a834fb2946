//go:build windows
// +build windows

// File: affinity/probe_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows topology discovery via GetLogicalProcessorInformation and thread
// pinning via SetThreadAffinityMask.

package affinity

import (
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32                        = windows.NewLazySystemDLL("kernel32.dll")
	procGetLogicalProcessorInformation = modkernel32.NewProc("GetLogicalProcessorInformation")
	procSetThreadAffinityMask          = modkernel32.NewProc("SetThreadAffinityMask")
)

const relationProcessorCore = 0

// systemLogicalProcessorInformation mirrors SYSTEM_LOGICAL_PROCESSOR_INFORMATION.
// The trailing union is 16 bytes, 8-byte aligned.
type systemLogicalProcessorInformation struct {
	ProcessorMask uintptr
	Relationship  uint32
	Reserved      [2]uint64
}

// DefaultProber returns the bitmask-group prober. A thread affinity mask is
// one machine word, which bounds the number of addressable hardware threads.
func DefaultProber() Prober {
	return CoreMaskProber{Masks: logicalProcessorMasks, Capacity: bits.UintSize}
}

// logicalProcessorMasks returns the processor mask of every physical core.
func logicalProcessorMasks() ([]uint64, error) {
	var length uint32
	r, _, err := procGetLogicalProcessorInformation.Call(0, uintptr(unsafe.Pointer(&length)))
	if r != 0 || !errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) || length == 0 {
		return nil, fmt.Errorf("GetLogicalProcessorInformation size query failed: %v", err)
	}
	size := unsafe.Sizeof(systemLogicalProcessorInformation{})
	buf := make([]systemLogicalProcessorInformation, (uintptr(length)+size-1)/size)
	r, _, err = procGetLogicalProcessorInformation.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&length)),
	)
	if r == 0 {
		return nil, fmt.Errorf("GetLogicalProcessorInformation failed: %v", err)
	}
	var masks []uint64
	for _, info := range buf[:uintptr(length)/size] {
		if info.Relationship == relationProcessorCore {
			masks = append(masks, uint64(info.ProcessorMask))
		}
	}
	return masks, nil
}

// pinCurrentThread restricts the calling thread to mask bit id.
func pinCurrentThread(id int) bool {
	if id < 0 || id >= bits.UintSize {
		return false
	}
	mask := uintptr(1) << uint(id)
	old, _, _ := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	return old != 0
}
