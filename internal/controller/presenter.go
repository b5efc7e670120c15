package controller

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/stats"
)

// Presenter displays one running operation. The controller calls it from a
// single goroutine per operation, in message order.
type Presenter interface {
	Status(text string)
	// Progress receives a percentage, or ipc.Indeterminate while sizing.
	Progress(percent int)
	// Feedback asks the user to decide. reply may be called before Feedback
	// returns or later from any goroutine; only the first call counts.
	Feedback(req feedback.Request, reply func(feedback.Response))
	Finished(o Outcome)
}

// Status is the terminal state of an operation.
type Status int

const (
	Succeeded Status = iota + 1
	Cancelled
	Failed
)

var statusNames = [...]string{
	Succeeded: "succeeded",
	Cancelled: "cancelled",
	Failed:    "failed",
}

func (s Status) String() string {
	if s > 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Outcome is reported once when the worker is gone.
type Outcome struct {
	Kind   op.Kind
	Status Status
	// Err explains a Failed outcome.
	Err   error
	Stats stats.Snapshot
}

// ExitError reports a worker that exited with an unexpected status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("worker exited with status %d", e.Code)
}

// SignalError reports a worker killed by a signal the controller did not send.
type SignalError struct {
	Signal syscall.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("worker killed by signal: %s", e.Signal)
}

// FatalError carries the worker's description of an unrecoverable condition.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string {
	return e.Message
}

// ErrProtocol wraps a malformed message from the worker.
var ErrProtocol = errors.New("worker protocol error")
