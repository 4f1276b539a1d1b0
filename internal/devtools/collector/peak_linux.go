package collector

import "github.com/prometheus/procfs"

// highWaterMark reads the kernel's peak resident set size (VmHWM) of this process.
func highWaterMark() (uint64, bool) {
	p, err := procfs.Self()
	if err != nil {
		return 0, false
	}
	status, err := p.NewStatus()
	if err != nil || status.VmHWM == 0 {
		return 0, false
	}
	return status.VmHWM, true
}
