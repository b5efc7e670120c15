package worker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/ipc"
)

// errUnexpectedMessage is returned when the reply channel carries anything
// other than a Reply.
var errUnexpectedMessage = errors.New("unexpected message on reply channel")

// ask sends a feedback request and blocks until the controller answers.
// A latched class is answered without a round trip. Cancel never returns.
func (w *Worker) ask(kind feedback.Kind, class feedback.Class, format string, args ...any) feedback.Response {
	if r, ok := w.latches.Get(class); ok {
		return r
	}
	w.checkpoint()

	text := fmt.Sprintf(format, args...)
	w.log.Debug("feedback requested", "kind", kind.String(), "class", class.String(), "text", text)
	w.send(ipc.FeedbackReq{Kind: kind, Text: text})

	w.awaiting.Store(true)
	m, err := w.replies.Next()
	w.awaiting.Store(false)
	if err != nil {
		w.channelFailed(fmt.Errorf("reading reply: %w", err))
	}
	w.checkpoint()

	reply, ok := m.(ipc.Reply)
	if !ok {
		w.channelFailed(fmt.Errorf("%w: %T", errUnexpectedMessage, m))
	}
	if !feedback.Legal(kind, reply.Response) {
		w.channelFailed(fmt.Errorf("response %s is not legal for %s", reply.Response, kind))
	}

	switch reply.Response {
	case feedback.Cancel:
		w.log.Debug("cancelled by reply")
		w.terminate(ipc.ExitCancelled)
	case feedback.SkipIgnoreAll:
		w.latches.Set(class, feedback.SkipIgnore)
		return feedback.SkipIgnore
	}
	return reply.Response
}

// try runs fn until it succeeds or the user declines to retry. The error
// text is appended to the formatted prompt.
func (w *Worker) try(class feedback.Class, fn func() error, format string, args ...any) bool {
	for {
		err := fn()
		if err == nil {
			return true
		}
		args := append(args[:len(args):len(args)], errText(err))
		if w.ask(feedback.RetryOrIgnore, class, format+": %s", args...) != feedback.RetryContinue {
			return false
		}
	}
}

// fatal reports an unrecoverable condition and ends the process.
func (w *Worker) fatal(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	w.log.Error("fatal", "text", text)
	if err := w.msgs.Send(ipc.FeedbackReq{Kind: feedback.Fatal, Text: text}); err != nil {
		w.log.Debug("fatal report not delivered", "error", err)
	}
	w.terminate(ipc.ExitFatal)
}

// send writes m to the message channel. A channel failure ends the process.
func (w *Worker) send(m ipc.Message) {
	if err := w.msgs.Send(m); err != nil {
		w.channelFailed(fmt.Errorf("sending %T: %w", m, err))
	}
}

func (w *Worker) channelFailed(err error) {
	w.log.Error("channel failure", "error", err)
	w.terminate(ipc.ExitChannel)
}

// checkpoint ends the process if a cancel was requested.
func (w *Worker) checkpoint() {
	if w.cancelled.Load() {
		w.log.Debug("cancelled at checkpoint")
		w.terminate(ipc.ExitCancelled)
	}
}

// terminate removes partially written files, restores directory modes
// relaxed during the walk and exits with code.
func (w *Worker) terminate(code int) {
	w.mu.Lock()
	w.exiting = true
	paths := make([]string, 0, len(w.partial))
	for p := range w.partial {
		paths = append(paths, p)
	}
	w.partial = make(map[string]struct{})
	restores := w.restores
	w.restores = nil
	w.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.log.Warn("removing partial file", "path", p, "error", err)
		}
	}
	applyRestores(restores, w.log)
	w.exit(code)
}

// track registers path as partially written. Once the worker is exiting no
// new file may be registered, so the caller parks until the process ends.
func (w *Worker) track(path string) {
	w.mu.Lock()
	if w.exiting {
		w.mu.Unlock()
		select {}
	}
	w.partial[path] = struct{}{}
	w.mu.Unlock()
}

func (w *Worker) untrack(path string) {
	w.mu.Lock()
	delete(w.partial, path)
	w.mu.Unlock()
}

// errText strips the operation and path from err, which the prompt
// already names.
func errText(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		return le.Err.Error()
	}
	return err.Error()
}
