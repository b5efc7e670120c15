// Package controller starts file-operation workers and relays their
// messages and the user's decisions.
package controller

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/platform"
	"github.com/bamsammich/fileop/internal/stats"
)

// DefaultKillGrace is how long a cancelled worker may take to exit before
// it is killed.
const DefaultKillGrace = 5 * time.Second

// Options configure how a worker is started.
type Options struct {
	// Executable is the binary re-executed as the worker. Defaults to the
	// running executable.
	Executable string
	// Args replaces the default worker-mode argument list.
	Args []string
	// Env is appended to the inherited environment.
	Env       []string
	Stderr    io.Writer
	KillGrace time.Duration
	LogLevel  slog.Level
	Logger    *slog.Logger
}

// Handle supervises one running worker.
type Handle struct {
	id        string
	kind      op.Kind
	cmd       *exec.Cmd
	presenter Presenter
	log       *slog.Logger
	killGrace time.Duration

	replyW  *os.File
	msgR    *os.File
	replies *ipc.Writer

	mu              sync.Mutex
	cancelRequested bool
	fatal           string
	summary         stats.Snapshot

	done    chan struct{}
	outcome Outcome
}

// Begin validates req, starts a worker for it and returns without waiting.
// Only request validation and process or pipe creation can fail here;
// everything later is reported through p.
func Begin(req op.Request, p Presenter, opts Options) (*Handle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exe := opts.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
	}
	args := opts.Args
	if args == nil {
		args = []string{ipc.WorkerModeFlag}
	}

	replyR, replyW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating reply channel: %w", err)
	}
	msgR, msgW, err := os.Pipe()
	if err != nil {
		replyR.Close()
		replyW.Close()
		return nil, fmt.Errorf("creating message channel: %w", err)
	}

	id := uuid.NewString()
	cmd := exec.Command(exe, args...)
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.ExtraFiles = []*os.File{replyR, msgW} // fd 3 and 4 in child
	cmd.Env = append(os.Environ(),
		ipc.ReplyFDEnv+"=3",
		ipc.MessageFDEnv+"=4",
		ipc.OpIDEnv+"="+id,
		ipc.LogLevelEnv+"="+opts.LogLevel.String(),
	)
	cmd.Env = append(cmd.Env, opts.Env...)
	// Own process group: terminal signals go to the controller only.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	platform.SetPdeathsig(cmd.SysProcAttr)

	err = cmd.Start()
	// The child holds its own copies now.
	replyR.Close()
	msgW.Close()
	if err != nil {
		replyW.Close()
		msgR.Close()
		return nil, fmt.Errorf("start worker: %w", err)
	}

	killGrace := opts.KillGrace
	if killGrace <= 0 {
		killGrace = DefaultKillGrace
	}
	h := &Handle{
		id:        id,
		kind:      req.Kind,
		cmd:       cmd,
		presenter: p,
		log:       logger.With("op", req.Kind.String(), "op_id", id, "pid", cmd.Process.Pid),
		killGrace: killGrace,
		replyW:    replyW,
		msgR:      msgR,
		replies:   ipc.NewWriter(replyW),
		done:      make(chan struct{}),
	}
	h.log.Debug("worker started", "sources", len(req.Sources))

	if err := h.replies.Send(ipc.RequestMsg{Request: req}); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		replyW.Close()
		msgR.Close()
		return nil, fmt.Errorf("sending request: %w", err)
	}

	go h.run()
	return h, nil
}

// ID returns the operation id shared with the worker's logs.
func (h *Handle) ID() string { return h.id }

// PID returns the worker's process id.
func (h *Handle) PID() int { return h.cmd.Process.Pid }

// Done is closed after the presenter has been told the outcome.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the operation ends and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	return h.outcome
}

// run relays messages until the worker's end of the message channel closes,
// then reaps the process and reports the outcome.
func (h *Handle) run() {
	defer close(h.done)

	msgs := make(chan ipc.Message)
	readDone := make(chan error, 1)
	go func() {
		defer close(msgs)
		r := ipc.NewReader(h.msgR)
		for {
			m, err := r.Next()
			if err != nil {
				readDone <- err
				return
			}
			msgs <- m
		}
	}()

	exited := make(chan error, 1)
	go func() { exited <- h.cmd.Wait() }()

	var protoErr error
	for m := range msgs {
		if err := h.dispatch(m); err != nil && protoErr == nil {
			protoErr = err
			h.log.Error("killing worker", "error", err)
			_ = h.cmd.Process.Kill()
		}
	}
	if err := <-readDone; !errors.Is(err, io.EOF) && protoErr == nil {
		protoErr = fmt.Errorf("%w: %w", ErrProtocol, err)
		h.log.Error("killing worker", "error", err)
		_ = h.cmd.Process.Kill()
	}

	waitErr := <-exited
	h.msgR.Close()
	h.replyW.Close()

	h.outcome = h.classify(waitErr, protoErr)
	h.log.Debug("worker finished", "status", h.outcome.Status.String(), "error", h.outcome.Err)
	h.presenter.Finished(h.outcome)
}

func (h *Handle) dispatch(m ipc.Message) error {
	switch m := m.(type) {
	case ipc.Status:
		h.presenter.Status(m.Text)
	case ipc.Progress:
		h.presenter.Progress(m.Percent)
	case ipc.FeedbackReq:
		if m.Kind == feedback.Fatal {
			h.mu.Lock()
			if h.fatal == "" {
				h.fatal = m.Text
			}
			h.mu.Unlock()
			return nil
		}
		h.presenter.Feedback(feedback.Request{Kind: m.Kind, Text: m.Text}, h.replyFunc(m.Kind))
	case ipc.Summary:
		h.mu.Lock()
		h.summary = stats.Snapshot{
			FilesCopied:      m.FilesCopied,
			FilesSkipped:     m.FilesSkipped,
			FilesFailed:      m.FilesFailed,
			FilesDeleted:     m.FilesDeleted,
			BytesCopied:      m.BytesCopied,
			DirsCreated:      m.DirsCreated,
			HardlinksCreated: m.HardlinksCreated,
			Elapsed:          m.Elapsed,
		}
		h.mu.Unlock()
	default:
		return fmt.Errorf("%w: unexpected %T from worker", ErrProtocol, m)
	}
	return nil
}

// replyFunc returns the one-shot completion handed to the presenter.
func (h *Handle) replyFunc(kind feedback.Kind) func(feedback.Response) {
	var once sync.Once
	return func(r feedback.Response) {
		once.Do(func() {
			if !feedback.Legal(kind, r) {
				h.log.Warn("presenter gave an illegal response, cancelling",
					"kind", kind.String(), "response", r.String())
				r = feedback.Cancel
				if !feedback.Legal(kind, r) {
					r = feedback.SkipIgnore
				}
			}
			h.log.Debug("feedback answered", "kind", kind.String(), "response", r.String())
			if err := h.replies.Send(ipc.Reply{Response: r}); err != nil {
				// The worker is gone; its exit is reported by run.
				h.log.Debug("reply not delivered", "error", err)
			}
		})
	}
}

// classify maps how the worker ended to an Outcome.
func (h *Handle) classify(waitErr, protoErr error) Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	o := Outcome{Kind: h.kind, Stats: h.summary}

	if protoErr != nil {
		o.Status, o.Err = Failed, protoErr
		return o
	}
	if h.fatal != "" {
		o.Status, o.Err = Failed, &FatalError{Message: h.fatal}
		return o
	}
	if waitErr == nil {
		o.Status = Succeeded
		return o
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		o.Status, o.Err = Failed, waitErr
		return o
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		if h.cancelRequested && (sig == syscall.SIGTERM || sig == syscall.SIGKILL) {
			o.Status = Cancelled
			return o
		}
		o.Status, o.Err = Failed, &SignalError{Signal: sig}
		return o
	}

	switch code := exitErr.ExitCode(); code {
	case ipc.ExitCancelled:
		o.Status = Cancelled
	case ipc.ExitFatal:
		o.Status, o.Err = Failed, &FatalError{Message: "worker reported a fatal error"}
	default:
		o.Status, o.Err = Failed, &ExitError{Code: code}
	}
	return o
}

// Cancel pauses the worker, asks confirm, resumes it and, if confirmed,
// asks it to terminate. A worker still running after the kill grace period
// is killed. confirm may be nil. Cancel reports whether termination was
// requested.
func (h *Handle) Cancel(confirm func() bool) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	proc := h.cmd.Process

	stopped := proc.Signal(syscall.SIGSTOP) == nil
	ok := confirm == nil || confirm()
	if stopped {
		if err := proc.Signal(syscall.SIGCONT); err != nil {
			h.log.Debug("resuming worker", "error", err)
		}
	}
	if !ok {
		return false
	}

	h.mu.Lock()
	h.cancelRequested = true
	h.mu.Unlock()
	h.log.Debug("cancelling worker")
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		h.log.Debug("signalling worker", "error", err)
		return false
	}

	go func() {
		t := time.NewTimer(h.killGrace)
		defer t.Stop()
		select {
		case <-h.done:
		case <-t.C:
			h.log.Warn("worker ignored cancel, killing", "grace", h.killGrace.String())
			_ = proc.Kill()
		}
	}()
	return true
}

