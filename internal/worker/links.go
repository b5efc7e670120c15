package worker

// linkTable maps a multiply-linked source inode to the destination path of
// its first copy. One table serves one top-level tree.
type linkTable map[devIno]string

func (t linkTable) lookup(id devIno) (string, bool) {
	p, ok := t[id]
	return p, ok
}

func (t linkTable) add(id devIno, dst string) {
	t[id] = dst
}
