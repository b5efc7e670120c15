package worker

import (
	"os"
	"path/filepath"

	"github.com/bamsammich/fileop/internal/ipc"
)

// sizeSources totals the bytes each source will contribute to progress.
// Symbolic links count as zero. Unreadable entries are left for the real
// walk to report.
func (w *Worker) sizeSources() []int64 {
	w.sendProgress(ipc.Indeterminate)
	sizes := make([]int64, len(w.req.Sources))
	for i, src := range w.req.Sources {
		w.checkpoint()
		sizes[i] = w.sizeTree(w.abs(src))
	}
	return sizes
}

func (w *Worker) sizeTree(root string) int64 {
	info, err := os.Lstat(root)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return entrySize(info)
	}

	w.status("Scanning %s", w.elide(root))
	total := info.Size()
	var toVisit stack[string]
	toVisit.push(root)
	for !toVisit.empty() {
		w.checkpoint()
		dir := toVisit.pop()
		entries, err := os.ReadDir(dir)
		if err != nil {
			w.log.Debug("sizing: unreadable directory", "path", dir, "error", err)
			continue
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if w.excluded(root, path, e.IsDir()) {
				continue
			}
			ei, err := e.Info()
			if err != nil {
				continue
			}
			total += entrySize(ei)
			if ei.IsDir() {
				toVisit.push(path)
			}
		}
	}
	return total
}

func entrySize(info os.FileInfo) int64 {
	if info.Mode()&os.ModeSymlink != 0 {
		return 0
	}
	return info.Size()
}
