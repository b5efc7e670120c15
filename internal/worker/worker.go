// Package worker performs one file operation inside a dedicated process,
// reporting status and progress to its controller and blocking on the reply
// channel whenever an error needs a decision.
package worker

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/filter"
	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/platform"
	"github.com/bamsammich/fileop/internal/stats"
)

// DefaultBufferBlocks is the copy buffer size in destination blocks.
const DefaultBufferBlocks = 256

// Config wires a Worker to its channels.
type Config struct {
	Request op.Request
	// Messages is the write end of the message channel.
	Messages io.Writer
	// Replies is the read end of the reply channel.
	Replies io.Reader
	// Exit ends the process. It must not return.
	Exit   func(code int)
	Logger *slog.Logger
}

// Worker carries all per-operation state. Nothing in it outlives the process.
type Worker struct {
	req     op.Request
	msgs    *ipc.Writer
	replies *ipc.Reader
	exit    func(int)
	log     *slog.Logger
	sys     sysOps

	latches  feedback.Latches
	progress progress
	stats    *stats.Collector
	filter   *filter.Chain
	limiter  *rate.Limiter
	buf      []byte
	destDir  string
	sizes    []int64 // sizing-pass total per source
	started  time.Time

	cancelled atomic.Bool
	awaiting  atomic.Bool

	mu       sync.Mutex // guards the fields below against the signal goroutine
	exiting  bool
	partial  map[string]struct{}
	restores []restore
}

// New creates a worker for cfg.Request. Nothing touches the filesystem until Run.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		req:      cfg.Request,
		msgs:     ipc.NewWriter(cfg.Messages),
		replies:  ipc.NewReader(cfg.Replies),
		exit:     cfg.Exit,
		log:      logger.With("op", cfg.Request.Kind.String()),
		sys:      defaultSys(),
		stats:    stats.NewCollector(),
		progress: newProgress(),
		partial:  make(map[string]struct{}),
	}
	if w.exit == nil {
		w.exit = os.Exit
	}
	if w.req.Overwrite {
		w.latches.Set(feedback.ClassOverwrite, feedback.RetryContinue)
	}
	return w
}

// RequestCancel asks the worker to stop at its next checkpoint. It is safe
// to call from a signal-handling goroutine. A worker blocked on a reply has
// nothing in flight and stops immediately.
func (w *Worker) RequestCancel() {
	w.cancelled.Store(true)
	if w.awaiting.Load() {
		w.terminate(ipc.ExitCancelled)
	}
}

// Run performs the operation. It returns only on normal completion; cancel
// and fatal errors end the process through Config.Exit.
func (w *Worker) Run() {
	w.started = time.Now()
	w.log.Debug("worker started", "sources", len(w.req.Sources), "workdir", w.req.WorkDir)

	chain, err := filter.Parse(w.req.Exclude)
	if err != nil {
		w.fatal("Invalid exclude rule: %v", err)
	}
	w.filter = chain

	switch w.req.Kind {
	case op.Copy, op.Move:
		w.prepareTransfer()
		for i := range w.req.Sources {
			w.checkpoint()
			w.transfer(i)
		}
	case op.Delete:
		w.sendProgress(ipc.Indeterminate)
		for i := range w.req.Sources {
			w.checkpoint()
			w.deleteSource(i)
			w.stepProgress(i + 1)
		}
	case op.SetAttributes:
		w.sendProgress(ipc.Indeterminate)
		for i := range w.req.Sources {
			w.checkpoint()
			w.chattrSource(i)
			w.stepProgress(i + 1)
		}
	default:
		w.fatal("Unknown operation %d", int(w.req.Kind))
	}

	w.restoreDirs()
	w.finish()
}

// prepareTransfer runs the sizing pass, verifies the destination and
// allocates the copy buffer.
func (w *Worker) prepareTransfer() {
	w.sizes = w.sizeSources()
	var total int64
	for _, s := range w.sizes {
		total += s
	}
	w.progress.setTotal(total)

	dest := w.abs(w.req.DestDir)
	info, err := os.Stat(dest)
	if err != nil {
		w.fatal("Cannot access destination %s: %s", w.elide(dest), errText(err))
	}
	if !info.IsDir() {
		w.fatal("Destination %s is not a directory", w.elide(dest))
	}
	w.destDir = filepath.Clean(dest)

	bs, err := platform.BlockSize(w.destDir)
	if err != nil {
		w.log.Debug("statfs failed, using default block size", "dst", w.destDir, "error", err)
		bs = platform.DefaultBlockSize
	}
	blocks := w.req.BufferBlocks
	if blocks <= 0 {
		blocks = DefaultBufferBlocks
	}
	w.buf = make([]byte, bs*blocks)

	if w.req.BWLimit > 0 {
		w.limiter = newBWLimiter(w.req.BWLimit)
	}
}

// finish reports completion and lingers for the grace delay if the
// operation was too quick for a progress display to appear.
func (w *Worker) finish() {
	w.sendProgress(100)

	snap := w.stats.Snapshot()
	w.send(ipc.Summary{
		FilesCopied:      snap.FilesCopied,
		FilesSkipped:     snap.FilesSkipped,
		FilesFailed:      snap.FilesFailed,
		FilesDeleted:     snap.FilesDeleted,
		BytesCopied:      snap.BytesCopied,
		DirsCreated:      snap.DirsCreated,
		HardlinksCreated: snap.HardlinksCreated,
		Elapsed:          snap.Elapsed,
	})
	w.log.Debug("worker finished", "stats", snap.String())

	if remain := w.req.GraceDelay - time.Since(w.started); remain > 0 {
		time.Sleep(remain)
	}
}

// abs resolves p against the request's working directory.
func (w *Worker) abs(p string) string {
	if filepath.IsAbs(p) || w.req.WorkDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(w.req.WorkDir, p)
}

// excluded reports whether path, below root, matches an exclude rule.
func (w *Worker) excluded(root, path string, isDir bool) bool {
	if w.filter.Empty() {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return w.filter.Excluded(filepath.ToSlash(rel), isDir)
}
