// control/platform_cpu.go
// Author: momentics <momentics@gmail.com>
//
// Processor identification probes shared by all platforms.

package control

import "github.com/klauspost/cpuid/v2"

func registerCPUProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpu_brand", func() any { return cpuid.CPU.BrandName })
	dp.RegisterProbe("platform.cpu_vendor", func() any { return cpuid.CPU.VendorString })
	dp.RegisterProbe("platform.cache_line", func() any { return cpuid.CPU.CacheLine })
	dp.RegisterProbe("platform.threads_per_core", func() any { return cpuid.CPU.ThreadsPerCore })
}
