// File: affinity/coremask.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bitmask-group strategy: the OS reports one processor mask per physical core.

package affinity

import "math/bits"

// FromCoreMasks builds a topology from one mask per physical core. Each set
// bit is a hardware thread; its bit position becomes the thread identifier.
// A zero mask, or more than capacity threads in total, aborts discovery and
// yields the degraded model.
func FromCoreMasks(masks []uint64, capacity int) *Topology {
	cores := make([][]int, 0, len(masks))
	total := 0
	for _, mask := range masks {
		n := bits.OnesCount64(mask)
		if n == 0 || total+n > capacity {
			return degraded()
		}
		ids := make([]int, 0, n)
		for m := mask; m != 0; m &= m - 1 {
			ids = append(ids, bits.TrailingZeros64(m))
		}
		cores = append(cores, ids)
		total += n
	}
	return fromCores(cores, SourceCoreMask)
}

// CoreMaskProber feeds FromCoreMasks from an OS query.
type CoreMaskProber struct {
	// Masks returns one processor mask per physical core.
	Masks func() ([]uint64, error)
	// Capacity bounds the total number of hardware threads.
	Capacity int
}

// Probe implements Prober. A failing query yields the degraded model.
func (p CoreMaskProber) Probe() *Topology {
	if p.Masks == nil {
		return degraded()
	}
	masks, err := p.Masks()
	if err != nil {
		return degraded()
	}
	return FromCoreMasks(masks, p.Capacity)
}
