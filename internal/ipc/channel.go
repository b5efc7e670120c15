// Package ipc implements the two byte pipes between a controller and its
// worker: the message channel (worker to controller) and the reply channel
// (controller to worker).
package ipc

import (
	"io"
	"sync"
)

// WorkerModeFlag is the hidden CLI argument that makes a re-executed binary
// run as a file-operation worker.
const WorkerModeFlag = "--worker-mode"

// Environment variables handed to a worker process.
const (
	// ReplyFDEnv holds the fd the worker reads replies from (ExtraFiles[0]).
	ReplyFDEnv = "FILEOP_REPLY_FD"
	// MessageFDEnv holds the fd the worker writes messages to (ExtraFiles[1]).
	MessageFDEnv = "FILEOP_MESSAGE_FD"
	// OpIDEnv correlates worker logs with the controller's.
	OpIDEnv = "FILEOP_OP_ID"
	// LogLevelEnv carries the slog level name.
	LogLevelEnv = "FILEOP_LOG_LEVEL"
)

// Worker exit codes.
const (
	ExitOK        = 0
	ExitInternal  = 1
	ExitCancelled = 3
	ExitFatal     = 4
	ExitChannel   = 5
)

// Writer sends framed messages on one pipe.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Send encodes and writes m as a single frame.
func (w *Writer) Send(m Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WriteFrame(w.w, Encode(m))
}

// Reader receives framed messages from one pipe.
type Reader struct {
	r io.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next blocks for the next message. io.EOF means the peer closed its end
// between frames.
//
//nolint:ireturn // returns the Message union
func (r *Reader) Next() (Message, error) {
	f, err := ReadFrame(r.r)
	if err != nil {
		return nil, err
	}
	return Decode(f)
}
