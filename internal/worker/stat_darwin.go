//go:build darwin

package worker

import "syscall"

func devFromStat(stat *syscall.Stat_t) uint64 {
	return uint64(stat.Dev) //nolint:gosec // G115: dev_t is int32 on darwin, always non-negative
}

func nlinkFromStat(stat *syscall.Stat_t) uint64 {
	return uint64(stat.Nlink)
}
