// Package platform wraps the OS-specific calls the worker relies on.
package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// DefaultBlockSize is used when the filesystem does not report one.
const DefaultBlockSize = 4096

// BlockSize returns the preferred I/O block size of the filesystem holding path.
func BlockSize(path string) (int, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	bs := int(st.Bsize) //nolint:unconvert // Bsize is int64 on linux, uint32 on darwin
	if bs <= 0 {
		bs = DefaultBlockSize
	}
	return bs, nil
}

// IsCrossDevice reports whether err is a rename across filesystems.
func IsCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}

// IsNotEmpty reports whether err is a failed rmdir of a non-empty directory.
func IsNotEmpty(err error) bool {
	return errors.Is(err, unix.ENOTEMPTY) || errors.Is(err, unix.EEXIST)
}
