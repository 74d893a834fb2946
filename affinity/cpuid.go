// File: affinity/cpuid.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"
)

// CPUIDCounts reads logical and physical core counts from the CPUID
// instruction. It fails where the processor does not report them.
func CPUIDCounts() (logical, physical int, err error) {
	logical, physical = cpuid.CPU.LogicalCores, cpuid.CPU.PhysicalCores
	if logical <= 0 || physical <= 0 {
		return 0, 0, fmt.Errorf("affinity: cpuid reports %d logical, %d physical cores", logical, physical)
	}
	return logical, physical, nil
}
