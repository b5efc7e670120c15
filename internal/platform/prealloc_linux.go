//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// Preallocate attempts to reserve size bytes for fd without changing its
// visible length. Errors are ignored as fallocate is not supported on all
// filesystems.
//
//nolint:gosec // G115: fd values are small non-negative integers
func Preallocate(fd *os.File, size int64) {
	if size <= 0 {
		return
	}
	//nolint:errcheck // fallocate is advisory; not supported on all filesystems
	unix.Fallocate(int(fd.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
