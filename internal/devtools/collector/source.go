package collector

import (
	"os"
	"runtime"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/process"
)

// MemorySource reports memory usage of the running process in bytes.
type MemorySource interface {
	Current() uint64
	Peak() uint64
}

// ProcessMemory samples the resident set size of this process. The peak is the
// kernel's high-water mark where one is available, otherwise the highest value
// observed by any sample since creation.
type ProcessMemory struct {
	proc *process.Process
	peak atomic.Uint64
}

// NewProcessMemory falls back to the Go runtime's view of memory when the
// process cannot be inspected.
func NewProcessMemory() *ProcessMemory {
	pm := &ProcessMemory{}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		pm.proc = p
	}
	pm.Current()
	return pm
}

func (pm *ProcessMemory) Current() uint64 {
	v := pm.sample()
	pm.raise(v)
	return v
}

func (pm *ProcessMemory) raise(v uint64) {
	for {
		peak := pm.peak.Load()
		if v <= peak || pm.peak.CompareAndSwap(peak, v) {
			return
		}
	}
}

func (pm *ProcessMemory) Peak() uint64 {
	pm.Current()
	if hwm, ok := highWaterMark(); ok {
		pm.raise(hwm)
	}
	return pm.peak.Load()
}

func (pm *ProcessMemory) sample() uint64 {
	if pm.proc != nil {
		if info, err := pm.proc.MemoryInfo(); err == nil && info.RSS > 0 {
			return info.RSS
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}
