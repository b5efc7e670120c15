package worker

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/fileop/internal/feedback"
)

// lstat stats path without following links, prompting on failure.
func (w *Worker) lstat(path string) (fs.FileInfo, bool) {
	var info fs.FileInfo
	ok := w.try(feedback.ClassStat, func() error {
		var err error
		info, err = os.Lstat(path)
		return err
	}, "Cannot access %s", w.elide(path))
	if !ok {
		w.stats.AddFilesSkipped(1)
	}
	return info, ok
}

// readDir lists dir in name order, prompting on failure.
func (w *Worker) readDir(dir string) ([]os.DirEntry, bool) {
	var entries []os.DirEntry
	ok := w.try(feedback.ClassRead, func() error {
		var err error
		entries, err = os.ReadDir(dir)
		return err
	}, "Cannot read directory %s", w.elide(dir))
	return entries, ok
}

// skip accounts for an entry left untouched.
func (w *Worker) skip(size int64) {
	w.stats.AddFilesSkipped(1)
	w.advance(size)
}

// rebase maps path below srcRoot to the same position below dstRoot.
func rebase(srcRoot, dstRoot, path string) string {
	rel, err := filepath.Rel(srcRoot, path)
	if err != nil || rel == "." {
		return dstRoot
	}
	return filepath.Join(dstRoot, rel)
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// restore is a directory mode relaxed during the walk.
type restore struct {
	path string
	mode uint32
}

func (w *Worker) addRestore(path string, mode uint32) {
	w.mu.Lock()
	w.restores = append(w.restores, restore{path: path, mode: mode})
	w.mu.Unlock()
}

// takeRestore removes the most recent restore recorded for path.
func (w *Worker) takeRestore(path string) (restore, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := len(w.restores) - 1; i >= 0; i-- {
		if r := w.restores[i]; r.path == path {
			w.restores = append(w.restores[:i], w.restores[i+1:]...)
			return r, true
		}
	}
	return restore{}, false
}

// restoreDirs applies every recorded directory mode.
func (w *Worker) restoreDirs() {
	w.mu.Lock()
	rs := w.restores
	w.restores = nil
	w.mu.Unlock()
	applyRestores(rs, w.log)
}

// applyRestores works deepest-first so no directory is locked before its
// children are done.
func applyRestores(rs []restore, log *slog.Logger) {
	for i := len(rs) - 1; i >= 0; i-- {
		if err := unix.Chmod(rs[i].path, rs[i].mode); err != nil {
			log.Warn("restoring directory mode", "path", rs[i].path, "error", err)
		}
	}
}
