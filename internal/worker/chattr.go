package worker

import (
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/op"
)

// chattrSource changes the attributes of source i, descending into
// directories when Recurse is set.
func (w *Worker) chattrSource(i int) {
	path := w.abs(w.req.Sources[i])
	info, ok := w.lstat(path)
	if !ok {
		return
	}
	if info.IsDir() && w.req.Attr.Has(op.Recurse) {
		w.chattrTree(path)
		return
	}
	w.chattr(path, info)
}

type pendingDir struct {
	path string
	info fs.FileInfo
}

// chattrTree changes every entry below root. Directories are changed after
// their contents so a new restrictive mode cannot lock the walk out.
func (w *Worker) chattrTree(root string) {
	var toVisit stack[string]
	var toFinish stack[pendingDir]
	toVisit.push(root)

	for !toVisit.empty() {
		w.checkpoint()
		dir := toVisit.pop()
		info, ok := w.lstat(dir)
		if !ok {
			continue
		}
		toFinish.push(pendingDir{path: dir, info: info})
		if !w.grantAccess(dir, info) {
			continue
		}

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
			if ei, ok := w.lstat(path); ok {
				w.chattr(path, ei)
			}
		}
	}

	for !toFinish.empty() {
		d := toFinish.pop()
		changed := w.chattr(d.path, d.info)
		if r, ok := w.takeRestore(d.path); ok && !changed {
			applyRestores([]restore{r}, w.log)
		}
	}
}

// grantAccess adds owner read and search to dir if the worker cannot list
// it. The original mode is restored on any exit until the directory itself
// is processed. It reports false when the directory stays unreadable.
func (w *Worker) grantAccess(dir string, info fs.FileInfo) bool {
	if w.sys.access(dir, unix.R_OK|unix.X_OK) == nil {
		return true
	}
	orig := unixMode(info.Mode())
	w.addRestore(dir, orig)
	ok := w.try(feedback.ClassChattr, func() error {
		return unix.Chmod(dir, orig|0o500)
	}, "Cannot enter %s", w.elide(dir))
	if !ok {
		w.takeRestore(dir)
	}
	return ok
}

// chattr applies the requested owner and mode to one entry. It reports
// whether a mode was written.
func (w *Worker) chattr(path string, info fs.FileInfo) bool {
	w.status("Changing attributes of %s", w.elide(path))

	// chown clears setuid and setgid, so it goes first.
	if w.req.Attr.Has(op.ChangeOwner) {
		w.try(feedback.ClassChattr, func() error {
			return os.Lchown(path, w.req.UID, w.req.GID)
		}, "Cannot change owner of %s", w.elide(path))
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return false
	}
	var want, mask uint32
	switch {
	case info.IsDir() && w.req.Attr.Has(op.ChangeDirMode):
		want, mask = w.req.DirMode, w.req.DirMask
	case !info.IsDir() && w.req.Attr.Has(op.ChangeFileMode):
		want, mask = w.req.FileMode, w.req.FileMask
	default:
		return false
	}

	mode := op.ApplyMask(unixMode(info.Mode()), want, mask)
	return w.try(feedback.ClassChattr, func() error {
		if err := unix.Chmod(path, mode); err != nil {
			return &fs.PathError{Op: "chmod", Path: path, Err: err}
		}
		return nil
	}, "Cannot change mode of %s", w.elide(path))
}
