package worker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/platform"
)

// unlinkList collects moved sources whose copies are complete. They are
// deleted only after the whole source has been copied, so a cancelled
// move leaves every source in place. A nil list keeps the sources.
type unlinkList struct {
	paths []string
}

func newUnlinkList(moving bool) *unlinkList {
	if !moving {
		return nil
	}
	return &unlinkList{}
}

func (l *unlinkList) add(path string) {
	if l != nil {
		l.paths = append(l.paths, path)
	}
}

// unlinkMoved deletes every source on l.
func (w *Worker) unlinkMoved(l *unlinkList) {
	if l == nil {
		return
	}
	for _, p := range l.paths {
		w.checkpoint()
		w.removeFile(p)
	}
	l.paths = nil
}

// rename moves src to dst in one step. handled is false when the two lie on
// different filesystems and the caller must copy instead.
func (w *Worker) rename(src, dst string, size int64) (done, handled bool) {
	w.status("Moving %s to %s", w.elide(src), w.elide(dst))
	for {
		err := w.sys.rename(src, dst)
		if err == nil {
			w.stats.AddFilesCopied(1)
			w.advance(size)
			return true, true
		}
		if platform.IsCrossDevice(err) {
			w.log.Debug("cross-device move, copying instead", "src", src, "dst", dst)
			return false, false
		}
		if w.ask(feedback.RetryOrIgnore, feedback.ClassRename,
			"Cannot move %s: %s", w.elide(src), errText(err)) != feedback.RetryContinue {
			w.skip(size)
			return false, true
		}
	}
}

// moveTree moves the directory srcRoot to dstRoot. A missing destination
// is renamed in one step; an existing one is merged entry by entry. Data
// is only copied when the rename reports a cross-device move.
func (w *Worker) moveTree(srcRoot, dstRoot string, size int64) {
	if missing(dstRoot) && w.filter.Empty() {
		if _, handled := w.rename(srcRoot, dstRoot, size); handled {
			return
		}
		w.copyTree(srcRoot, dstRoot, true)
		return
	}

	start := w.progress.done
	w.mergeTree(srcRoot, dstRoot)
	// Whole subtrees renamed during the merge are credited here.
	if credited := int64(w.progress.done - start); credited < size {
		w.advance(size - credited)
	}
}

// mergeTree moves the entries of srcRoot into dstRoot by renaming them,
// descending only into directories that exist on both sides. Directories
// holding excluded entries are walked so the excluded entries stay behind.
// Once the filesystems turn out to differ the rest is copied.
func (w *Worker) mergeTree(srcRoot, dstRoot string) {
	links := make(linkTable)
	moved := newUnlinkList(true)
	cross := !sameDevice(srcRoot, dstRoot)
	var toVisit, toRemove stack[string]
	toVisit.push(srcRoot)

	for !toVisit.empty() {
		w.checkpoint()
		dir := toVisit.pop()
		dstDir := rebase(srcRoot, dstRoot, dir)

		info, ok := w.lstat(dir)
		if !ok {
			continue
		}
		if !w.makeDir(dir, dstDir, info) {
			continue
		}
		toRemove.push(dir)

		entries, ok := w.readDir(dir)
		if !ok {
			continue
		}
		for _, e := range entries {
			w.checkpoint()
			path := filepath.Join(dir, e.Name())
			if w.excluded(srcRoot, path, e.IsDir()) {
				continue
			}
			target := filepath.Join(dstDir, e.Name())
			if e.IsDir() {
				if !cross && w.filter.Empty() && missing(target) {
					if _, handled := w.rename(path, target, 0); handled {
						continue
					}
					cross = true
				}
				toVisit.push(path)
				continue
			}

			ei, ok := w.lstat(path)
			if !ok {
				continue
			}
			switch {
			case ei.Mode().IsRegular() && cross:
				w.copyRegular(path, target, ei, links, moved)
			case ei.Mode().IsRegular():
				w.copyFile(path, target, ei, moved, true)
			case ei.Mode()&os.ModeSymlink != 0:
				w.moveSymlink(path, target, ei, moved, !cross)
			default:
				w.special(path, ei)
			}
		}
	}

	w.unlinkMoved(moved)
	for !toRemove.empty() {
		w.removeDir(toRemove.pop())
	}
}

// moveSymlink moves the link src to dst, renaming it when tryRename is set
// and recreating it otherwise.
func (w *Worker) moveSymlink(src, dst string, info fs.FileInfo, moved *unlinkList, tryRename bool) {
	if tryRename {
		if !w.prepareDest(src, dst, info, true) {
			w.skip(0)
			return
		}
		if _, handled := w.rename(src, dst, 0); handled {
			return
		}
	}
	w.copySymlink(src, dst, info, moved)
}

func missing(path string) bool {
	_, err := os.Lstat(path)
	return errors.Is(err, fs.ErrNotExist)
}

// sameDevice reports whether src and the filesystem that will hold dst are
// the same. dst may not exist yet, in which case its parent decides.
func sameDevice(src, dst string) bool {
	si, err := os.Lstat(src)
	if err != nil {
		return true
	}
	di, err := os.Lstat(dst)
	if err != nil {
		if di, err = os.Lstat(filepath.Dir(dst)); err != nil {
			return true
		}
	}
	sid, _, ok := linkInfo(si)
	did, _, dok := linkInfo(di)
	if !ok || !dok {
		return true
	}
	return sid.dev == did.dev
}
