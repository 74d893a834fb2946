// File: affinity/cpuinfo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Text-table strategy: parse a /proc/cpuinfo style per-processor description.

package affinity

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// coreKey groups logical processors sharing a physical core.
type coreKey struct {
	physical int
	core     int
}

// cpuinfoCollector accumulates one processor record at a time.
type cpuinfoCollector struct {
	processor int
	key       coreKey
	index     map[coreKey]int
	cores     [][]int
}

func newCPUInfoCollector() *cpuinfoCollector {
	return &cpuinfoCollector{
		processor: -1,
		key:       coreKey{-1, -1},
		index:     make(map[coreKey]int),
	}
}

func (c *cpuinfoCollector) flush() {
	if c.processor >= 0 {
		key := c.key
		if key.physical < 0 && key.core < 0 {
			// Some architectures (e.g. PowerPC) omit both ids:
			// model one package with one core per processor.
			key = coreKey{0, c.processor}
		}
		i, ok := c.index[key]
		if !ok {
			i = len(c.cores)
			c.index[key] = i
			c.cores = append(c.cores, nil)
		}
		c.cores[i] = append(c.cores[i], c.processor)
	}
	c.processor = -1
	c.key = coreKey{-1, -1}
}

// ParseCPUInfo builds a topology from a /proc/cpuinfo style table. Logical
// processors are grouped by (physical id, core id) in first-seen order; the
// "processor" value is the hardware thread identifier. An empty, unparsable
// or unreadable table yields the degraded model.
func ParseCPUInfo(r io.Reader) *Topology {
	c := newCPUInfoCollector()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		label, value, ok := splitCPUInfoLine(sc.Text())
		if !ok {
			continue
		}
		switch label {
		case "processor":
			c.flush()
			c.processor = value
		case "physical id":
			c.key.physical = value
		case "core id":
			c.key.core = value
		}
	}
	if sc.Err() != nil {
		return degraded()
	}
	c.flush()
	return fromCores(c.cores, SourceCPUInfo)
}

// splitCPUInfoLine returns the label and the leading integer of the value.
func splitCPUInfoLine(line string) (string, int, bool) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", 0, false
	}
	label := strings.TrimRight(line[:colon], " \t")
	rest := strings.TrimLeft(line[colon+1:], " \t")
	end := 0
	if end < len(rest) && (rest[end] == '-' || rest[end] == '+') {
		end++
	}
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(rest[:end])
	if err != nil {
		return "", 0, false
	}
	return label, v, true
}

// CPUInfoProber reads the table from Path once per Probe.
type CPUInfoProber struct {
	Path string
}

// Probe implements Prober. A missing file yields the degraded model.
func (p CPUInfoProber) Probe() *Topology {
	f, err := os.Open(p.Path)
	if err != nil {
		return degraded()
	}
	defer f.Close()
	return ParseCPUInfo(f)
}
