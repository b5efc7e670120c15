package platform

import "syscall"

// SetPdeathsig makes the child receive SIGTERM if its parent dies, so an
// orphaned worker stops at its next checkpoint.
func SetPdeathsig(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGTERM
}
