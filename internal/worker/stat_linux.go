//go:build linux

package worker

import "syscall"

func devFromStat(stat *syscall.Stat_t) uint64 {
	return stat.Dev
}

func nlinkFromStat(stat *syscall.Stat_t) uint64 {
	return stat.Nlink
}
