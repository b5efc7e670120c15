package ui

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/bamsammich/fileop/internal/controller"
	"github.com/bamsammich/fileop/internal/feedback"
)

// Config configures a Console.
type Config struct {
	// Writer receives the final summary.
	Writer io.Writer
	// ErrWriter receives status, progress and prompts.
	ErrWriter io.Writer
	// Input answers prompts.
	Input   io.Reader
	IsTTY   bool
	Width   int
	Quiet   bool
	Verbose bool
	// Assume answers prompts without reading Input.
	Assume Assume
}

// renderer draws status and progress.
type renderer interface {
	status(text string)
	progress(pct int)
	clear()
}

// Console is a terminal Presenter for one operation.
type Console struct {
	cfg Config
	in  *bufio.Reader

	mu sync.Mutex // guards r
	r  renderer

	promptMu sync.Mutex // held while reading Input

	outcome chan controller.Outcome
}

var _ controller.Presenter = (*Console)(nil)

// NewConsole picks a renderer for the configuration.
func NewConsole(cfg Config) *Console {
	var r renderer
	switch {
	case cfg.Quiet:
		r = quietRenderer{}
	case !cfg.IsTTY:
		r = &plainRenderer{w: cfg.ErrWriter, verbose: cfg.Verbose}
	default:
		r = &hudRenderer{w: cfg.ErrWriter, width: cfg.Width, pct: -1}
	}
	c := &Console{cfg: cfg, r: r, outcome: make(chan controller.Outcome, 1)}
	if cfg.Input != nil {
		c.in = bufio.NewReader(cfg.Input)
	}
	return c
}

func (c *Console) Status(text string) {
	c.mu.Lock()
	c.r.status(text)
	c.mu.Unlock()
}

func (c *Console) Progress(pct int) {
	c.mu.Lock()
	c.r.progress(pct)
	c.mu.Unlock()
}

// Feedback answers synchronously, from Assume or by asking on Input.
func (c *Console) Feedback(req feedback.Request, reply func(feedback.Response)) {
	if r, ok := c.cfg.Assume.Answer(req.Kind); ok {
		c.mu.Lock()
		c.r.clear()
		fmt.Fprintf(c.cfg.ErrWriter, "%s: %s\n", req.Text, feedback.Label(req.Kind, r))
		c.mu.Unlock()
		reply(r)
		return
	}

	c.promptMu.Lock()
	defer c.promptMu.Unlock()
	c.mu.Lock()
	c.r.clear()
	c.mu.Unlock()
	reply(ask(c.cfg.ErrWriter, c.in, req))
}

// ConfirmCancel asks whether to cancel. An interrupt during a pending
// prompt confirms at once.
func (c *Console) ConfirmCancel() bool {
	if c.cfg.Assume != AssumeNone || c.in == nil {
		return true
	}
	if !c.promptMu.TryLock() {
		return true
	}
	defer c.promptMu.Unlock()
	c.mu.Lock()
	c.r.clear()
	c.mu.Unlock()
	return confirm(c.cfg.ErrWriter, c.in, "Cancel the operation?")
}

// Finished clears the status line and reports the outcome. Success is
// silent unless verbose.
func (c *Console) Finished(o controller.Outcome) {
	c.mu.Lock()
	c.r.clear()
	c.mu.Unlock()

	switch o.Status {
	case controller.Failed:
		fmt.Fprintf(c.cfg.ErrWriter, "%s %s: %v\n", o.Kind, color.RedString("failed"), o.Err)
	case controller.Cancelled:
		if !c.cfg.Quiet {
			fmt.Fprintf(c.cfg.ErrWriter, "%s %s\n", o.Kind, color.YellowString("cancelled"))
		}
	case controller.Succeeded:
		if c.cfg.Verbose && !c.cfg.Quiet {
			fmt.Fprintln(c.cfg.Writer, CompletionSummary(o))
		}
	}
	c.outcome <- o
}

// Outcome returns the reported outcome once Finished has run.
func (c *Console) Outcome() <-chan controller.Outcome {
	return c.outcome
}
