package worker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/platform"
)

// deleteSource removes source i, descending into directories.
func (w *Worker) deleteSource(i int) {
	path := w.abs(w.req.Sources[i])
	info, ok := w.lstat(path)
	if !ok {
		return
	}
	if info.IsDir() {
		w.deleteTree(path)
		return
	}
	w.removeFile(path)
}

// deleteTree unlinks every non-directory below root, then removes the
// directories deepest-first.
func (w *Worker) deleteTree(root string) {
	var toVisit, toRemove stack[string]
	toVisit.push(root)

	for !toVisit.empty() {
		w.checkpoint()
		dir := toVisit.pop()
		toRemove.push(dir)

		entries, ok := w.readDir(dir)
		if !ok {
			continue
		}
		for _, e := range entries {
			w.checkpoint()
			path := filepath.Join(dir, e.Name())
			if w.excluded(root, path, e.IsDir()) {
				continue
			}
			if e.IsDir() {
				toVisit.push(path)
				continue
			}
			w.removeFile(path)
		}
	}

	for !toRemove.empty() {
		w.removeDir(toRemove.pop())
	}
}

// removeFile unlinks one non-directory. An entry already gone counts as
// removed.
func (w *Worker) removeFile(path string) bool {
	w.status("Deleting %s", w.elide(path))
	ok := w.try(feedback.ClassRemove, func() error {
		err := unix.Unlink(path)
		if errors.Is(err, unix.ENOENT) {
			return nil
		}
		if err != nil {
			return &fs.PathError{Op: "unlink", Path: path, Err: err}
		}
		return nil
	}, "Cannot delete %s", w.elide(path))
	if ok {
		w.stats.AddFilesDeleted(1)
	} else {
		w.stats.AddFilesFailed(1)
	}
	return ok
}

// removeDir removes an emptied directory. A directory still holding
// excluded or skipped entries is kept without asking.
func (w *Worker) removeDir(path string) {
	w.status("Deleting %s", w.elide(path))
	w.try(feedback.ClassRemove, func() error {
		err := os.Remove(path)
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
			return nil
		case platform.IsNotEmpty(err):
			w.log.Debug("keeping non-empty directory", "path", path)
			return nil
		}
		return err
	}, "Cannot delete %s", w.elide(path))
}
