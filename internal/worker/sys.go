package worker

import (
	"io/fs"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// sysOps are the mutating calls tests need to fail on demand.
type sysOps struct {
	rename func(oldpath, newpath string) error
	link   func(oldname, newname string) error
	open   func(name string) (*os.File, error)
	write  func(f *os.File, p []byte) (int, error)
	access func(path string, mode uint32) error
}

func defaultSys() sysOps {
	return sysOps{
		rename: os.Rename,
		link:   os.Link,
		open:   os.Open,
		write:  (*os.File).Write,
		access: unix.Access,
	}
}

// devIno identifies a file across the whole tree.
type devIno struct {
	dev, ino uint64
}

// linkInfo returns the identity and link count of info.
func linkInfo(info fs.FileInfo) (devIno, uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return devIno{}, 1, false
	}
	return devIno{dev: devFromStat(st), ino: st.Ino}, nlinkFromStat(st), true
}

// unixMode converts the permission and special bits of m to st_mode form.
func unixMode(m fs.FileMode) uint32 {
	mode := uint32(m.Perm())
	if m&fs.ModeSetuid != 0 {
		mode |= 0o4000
	}
	if m&fs.ModeSetgid != 0 {
		mode |= 0o2000
	}
	if m&fs.ModeSticky != 0 {
		mode |= 0o1000
	}
	return mode
}
