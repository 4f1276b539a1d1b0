//go:build !linux

package collector

func highWaterMark() (uint64, bool) { return 0, false }
