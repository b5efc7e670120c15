package worker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/platform"
)

// copyError tags a failed copy with the class its prompt latches under.
type copyError struct {
	class feedback.Class
	err   error
}

func (e *copyError) Error() string { return e.err.Error() }
func (e *copyError) Unwrap() error { return e.err }

func readErr(err error) error   { return &copyError{class: feedback.ClassRead, err: err} }
func writeErr(err error) error  { return &copyError{class: feedback.ClassWrite, err: err} }
func verifyErr(err error) error { return &copyError{class: feedback.ClassVerify, err: err} }

func errClass(err error) feedback.Class {
	var ce *copyError
	if errors.As(err, &ce) {
		return ce.class
	}
	return feedback.ClassWrite
}

// transfer copies or moves source i into the destination directory.
func (w *Worker) transfer(i int) {
	src := w.abs(w.req.Sources[i])
	dst := w.req.DestPath(w.destDir, i)
	moving := w.req.Kind == op.Move

	info, ok := w.lstat(src)
	if !ok {
		w.advance(w.sizes[i])
		return
	}

	switch {
	case info.IsDir():
		if sameEntry(src, dst, info) {
			w.ask(feedback.SkipOrCancel, feedback.ClassConflict,
				"Source and destination are the same: %s", w.elide(src))
			w.skip(w.sizes[i])
			return
		}
		if within(src, dst) {
			w.ask(feedback.SkipOrCancel, feedback.ClassConflict,
				"Cannot %s a directory into itself: %s", w.req.Kind, w.elide(src))
			w.skip(w.sizes[i])
			return
		}
		if moving {
			w.moveTree(src, dst, w.sizes[i])
			return
		}
		w.copyTree(src, dst, false)
	case info.Mode().IsRegular():
		moved := newUnlinkList(moving)
		w.copyFile(src, dst, info, moved, moving)
		w.unlinkMoved(moved)
	case info.Mode()&os.ModeSymlink != 0:
		moved := newUnlinkList(moving)
		w.moveSymlink(src, dst, info, moved, moving)
		w.unlinkMoved(moved)
	default:
		w.special(src, info)
	}
}

// copyTree copies the directory srcRoot to dstRoot without recursion.
// When moving, the copied sources are deleted once the walk is over and
// emptied directories are removed deepest-first.
func (w *Worker) copyTree(srcRoot, dstRoot string, moving bool) {
	links := make(linkTable)
	moved := newUnlinkList(moving)
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
		if moving {
			toRemove.push(dir)
		}

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
			if e.IsDir() {
				toVisit.push(path)
				continue
			}
			ei, ok := w.lstat(path)
			if !ok {
				continue
			}
			target := filepath.Join(dstDir, e.Name())
			switch {
			case ei.Mode().IsRegular():
				w.copyRegular(path, target, ei, links, moved)
			case ei.Mode()&os.ModeSymlink != 0:
				w.copySymlink(path, target, ei, moved)
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

// makeDir creates dst for the source directory src, or merges into an
// existing one. A directory the walk could not write into is created with
// owner rwx and its real mode restored once the operation ends.
func (w *Worker) makeDir(src, dst string, info fs.FileInfo) bool {
	if di, err := os.Lstat(dst); err == nil {
		switch {
		case os.SameFile(info, di):
			w.ask(feedback.SkipOrCancel, feedback.ClassConflict,
				"Source and destination are the same: %s", w.elide(src))
			w.stats.AddFilesSkipped(1)
			return false
		case !di.IsDir():
			w.ask(feedback.SkipOrCancel, feedback.ClassConflict,
				"Cannot replace %s with a directory", w.elide(dst))
			w.stats.AddFilesSkipped(1)
			return false
		}
		w.advance(info.Size())
		return true
	}

	w.status("Creating directory %s", w.elide(dst))
	if !w.try(feedback.ClassMkdir, func() error {
		return os.Mkdir(dst, 0o700)
	}, "Cannot create directory %s", w.elide(dst)) {
		w.stats.AddFilesFailed(1)
		return false
	}
	w.stats.AddDirsCreated(1)

	final := unixMode(info.Mode())
	working := final | 0o700
	if err := unix.Chmod(dst, working); err != nil {
		w.log.Warn("setting directory mode", "path", dst, "error", err)
	}
	if working != final {
		w.addRestore(dst, final)
	}
	w.advance(info.Size())
	return true
}

// copyRegular copies a file found inside a tree, recreating hard links
// between files that share an inode in the source.
func (w *Worker) copyRegular(src, dst string, info fs.FileInfo, links linkTable, moved *unlinkList) {
	id, nlink, ok := linkInfo(info)
	if ok {
		if first, seen := links.lookup(id); seen {
			w.linkFile(first, src, dst, info, moved)
			return
		}
	}
	if w.copyFile(src, dst, info, moved, false) && ok && nlink > 1 {
		links.add(id, dst)
	}
}

// copyFile copies one regular file, renaming instead when tryRename is set
// and both ends share a filesystem. A copied source goes on moved. It
// reports whether dst now holds the content.
func (w *Worker) copyFile(src, dst string, info fs.FileInfo, moved *unlinkList, tryRename bool) bool {
	w.checkpoint()
	if !w.prepareDest(src, dst, info, false) {
		w.skip(info.Size())
		return false
	}
	if tryRename {
		if done, handled := w.rename(src, dst, info.Size()); handled {
			return done
		}
	}

	w.status("Copying %s to %s", w.elide(src), w.elide(dst))
	if !w.copyData(src, dst, info) {
		return false
	}
	w.stats.AddFilesCopied(1)
	moved.add(src)
	return true
}

// prepareDest resolves an existing entry at dst. It reports false when the
// source must be skipped. With replace set, or when dst is a symbolic link,
// the existing entry is removed so nothing is written through it.
func (w *Worker) prepareDest(src, dst string, info fs.FileInfo, replace bool) bool {
	var di fs.FileInfo
	if !w.try(feedback.ClassStat, func() error {
		var err error
		di, err = os.Lstat(dst)
		if errors.Is(err, fs.ErrNotExist) {
			di = nil
			return nil
		}
		return err
	}, "Cannot access %s", w.elide(dst)) {
		return false
	}
	if di == nil {
		return true
	}

	if os.SameFile(info, di) {
		w.ask(feedback.SkipOrCancel, feedback.ClassConflict,
			"Source and destination are the same: %s", w.elide(src))
		return false
	}
	if di.IsDir() {
		w.ask(feedback.SkipOrCancel, feedback.ClassConflict,
			"Cannot overwrite directory %s", w.elide(dst))
		return false
	}

	isLink := di.Mode()&os.ModeSymlink != 0
	prompt := "%s already exists. Overwrite?"
	if isLink {
		prompt = "%s is a symbolic link. Replace it?"
	}
	if w.ask(feedback.ContinueOrSkip, feedback.ClassOverwrite, prompt, w.elide(dst)) != feedback.RetryContinue {
		return false
	}
	if !replace && !isLink {
		return true
	}
	return w.try(feedback.ClassRemove, func() error {
		err := os.Remove(dst)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}, "Cannot remove %s", w.elide(dst))
}

// copyData copies the content of src to dst, prompting on failure. Bytes
// credited to progress by a failed attempt are not credited again.
func (w *Worker) copyData(src, dst string, info fs.FileInfo) bool {
	var credited int64
	onWrite := func(written int64) {
		if written > credited {
			w.advance(written - credited)
			credited = written
		}
	}

	for {
		written, err := w.copyContents(src, dst, info, onWrite)
		if err == nil && w.req.Verify {
			if verr := w.verifyCopy(src, dst); verr != nil {
				err = verifyErr(verr)
				if rerr := os.Remove(dst); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
					w.log.Warn("removing unverified file", "path", dst, "error", rerr)
				}
			}
		}
		if err == nil {
			w.stats.AddBytesCopied(written)
			w.advance(info.Size() - credited)
			return true
		}

		w.log.Debug("copy failed", "src", src, "dst", dst, "error", err)
		if w.ask(feedback.RetryOrIgnore, errClass(err), "Error copying %s to %s: %s",
			w.elide(src), w.elide(dst), errText(err)) != feedback.RetryContinue {
			w.stats.AddFilesFailed(1)
			w.advance(info.Size() - credited)
			return false
		}
	}
}

// copyContents performs one copy attempt. A failed attempt leaves no file
// at dst.
func (w *Worker) copyContents(src, dst string, info fs.FileInfo, onWrite func(int64)) (int64, error) {
	in, err := w.sys.open(src)
	if err != nil {
		return 0, readErr(err)
	}
	defer in.Close()

	w.track(dst)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		w.untrack(dst)
		return 0, writeErr(err)
	}

	written, err := w.pump(in, out, info.Size(), onWrite)
	if err == nil {
		if cerr := out.Chmod(info.Mode() & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)); cerr != nil {
			err = writeErr(cerr)
		}
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = writeErr(cerr)
	}
	if err != nil {
		if rerr := os.Remove(dst); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			w.log.Warn("removing partial file", "path", dst, "error", rerr)
		}
	}
	w.untrack(dst)
	return written, err
}

// pump moves data through the worker's buffer, checking for cancellation
// after every write.
func (w *Worker) pump(in, out *os.File, size int64, onWrite func(int64)) (int64, error) {
	platform.Preallocate(out, size)
	var written int64
	for {
		n, rerr := in.Read(w.buf)
		if n > 0 {
			w.throttle(n)
			if _, err := w.sys.write(out, w.buf[:n]); err != nil {
				return written, writeErr(err)
			}
			written += int64(n)
			onWrite(written)
			w.checkpoint()
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, readErr(rerr)
		}
	}
}

// copySymlink recreates the link src at dst with the same target.
func (w *Worker) copySymlink(src, dst string, info fs.FileInfo, moved *unlinkList) {
	var target string
	if !w.try(feedback.ClassRead, func() error {
		var err error
		target, err = os.Readlink(src)
		return err
	}, "Cannot read link %s", w.elide(src)) {
		w.stats.AddFilesFailed(1)
		return
	}
	if !w.prepareDest(src, dst, info, true) {
		w.skip(0)
		return
	}

	w.status("Copying %s to %s", w.elide(src), w.elide(dst))
	if !w.try(feedback.ClassSymlink, func() error {
		return os.Symlink(target, dst)
	}, "Cannot create symbolic link %s", w.elide(dst)) {
		w.stats.AddFilesFailed(1)
		return
	}
	w.stats.AddFilesCopied(1)
	moved.add(src)
}

// linkFile makes dst another name for first, the copy of an inode already
// seen in this tree. If linking fails the user may copy the data instead.
func (w *Worker) linkFile(first, src, dst string, info fs.FileInfo, moved *unlinkList) {
	if !w.prepareDest(src, dst, info, true) {
		w.skip(info.Size())
		return
	}

	w.status("Linking %s to %s", w.elide(dst), w.elide(first))
	if err := w.sys.link(first, dst); err != nil {
		if w.ask(feedback.ContinueOrSkip, feedback.ClassHardlink, "Cannot link %s to %s: %s. Copy instead?",
			w.elide(dst), w.elide(first), errText(err)) != feedback.RetryContinue {
			w.skip(info.Size())
			return
		}
		w.status("Copying %s to %s", w.elide(src), w.elide(dst))
		if !w.copyData(src, dst, info) {
			return
		}
		w.stats.AddFilesCopied(1)
	} else {
		w.stats.AddHardlinksCreated(1)
		w.advance(info.Size())
	}
	moved.add(src)
}

// special skips a device, socket or FIFO after telling the user.
func (w *Worker) special(src string, info fs.FileInfo) {
	w.ask(feedback.ContinueOrSkip, feedback.ClassSpecial,
		"%s is a special file (%s) and cannot be copied", w.elide(src), fileType(info.Mode()))
	w.skip(info.Size())
}

// sameEntry reports whether dst names the source src itself.
func sameEntry(src, dst string, info fs.FileInfo) bool {
	if src == dst {
		return true
	}
	di, err := os.Lstat(dst)
	return err == nil && os.SameFile(info, di)
}

func fileType(m fs.FileMode) string {
	switch {
	case m&fs.ModeNamedPipe != 0:
		return "fifo"
	case m&fs.ModeSocket != 0:
		return "socket"
	case m&fs.ModeCharDevice != 0:
		return "character device"
	case m&fs.ModeDevice != 0:
		return "block device"
	default:
		return fmt.Sprintf("mode %v", m.Type())
	}
}
