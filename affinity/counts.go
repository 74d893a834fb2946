// File: affinity/counts.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Flat-ratio strategy: only logical and physical processor counts are known.

package affinity

// FromCounts builds a topology from logical (hardware thread) and physical
// core counts, assuming threads are spread evenly over cores. When logical is
// not a multiple of physical, the leading cores get one extra thread each so
// the per-core counts add up to logical. Identifiers are assigned in order,
// core by core.
func FromCounts(logical, physical int) *Topology {
	if logical <= 0 || physical <= 0 || physical > logical {
		return degraded()
	}
	per, extra := logical/physical, logical%physical
	cores := make([][]int, physical)
	id := 0
	for c := range cores {
		n := per
		if c < extra {
			n++
		}
		ids := make([]int, n)
		for h := range ids {
			ids[h] = id
			id++
		}
		cores[c] = ids
	}
	return fromCores(cores, SourceCounts)
}

// CountProber feeds FromCounts from an OS query.
type CountProber struct {
	Counts func() (logical, physical int, err error)
}

// Probe implements Prober. A failing query yields the degraded model.
func (p CountProber) Probe() *Topology {
	if p.Counts == nil {
		return degraded()
	}
	logical, physical, err := p.Counts()
	if err != nil {
		return degraded()
	}
	return FromCounts(logical, physical)
}
