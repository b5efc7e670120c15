package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bamsammich/fileop/internal/controller"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/ui"
	"github.com/bamsammich/fileop/internal/ui/tui"
)

// starter begins one operation with the given presenter.
type starter func(p controller.Presenter, opts controller.Options) (*controller.Handle, error)

func (a *app) options(fullScreen bool) controller.Options {
	return controller.Options{
		Stderr:    a.workerStderr(fullScreen),
		KillGrace: a.cfg.KillGrace(),
		LogLevel:  a.level,
		Logger:    slog.Default(),
	}
}

// execute runs one operation to completion and maps its outcome to an
// exit status.
func (a *app) execute(kind op.Kind, start starter) error {
	isTTY := ui.IsTTY(os.Stdin.Fd()) && ui.IsTTY(os.Stderr.Fd())
	if a.tuiFlag && !isTTY {
		slog.Warn("--tui requires a terminal, falling back to inline output")
	}

	var (
		o   controller.Outcome
		err error
	)
	if a.tuiFlag && isTTY {
		o, err = a.runFullScreen(kind, start)
	} else {
		o, err = a.runConsole(start)
	}
	if err != nil {
		return err
	}
	return outcomeErr(o)
}

func (a *app) runConsole(start starter) (controller.Outcome, error) {
	console := ui.NewConsole(ui.Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Input:     os.Stdin,
		IsTTY:     ui.IsTTY(os.Stderr.Fd()),
		Width:     ui.TermWidth(os.Stderr.Fd()),
		Quiet:     a.quiet,
		Verbose:   a.verbose > 0,
		Assume:    a.assume,
	})

	// Subscribe before the worker starts so an early Ctrl-C is not lost.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	opts := a.options(false)
	h, err := start(console, opts)
	if err != nil {
		return controller.Outcome{}, err
	}

	confirm := console.ConfirmCancel
	if a.yes {
		confirm = nil
	}
	for {
		select {
		case o := <-console.Outcome():
			return o, nil
		case sig := <-sigCh:
			ask := confirm
			if sig == syscall.SIGTERM {
				ask = nil
			}
			if !h.Cancel(ask) {
				continue
			}
			// A prompt still waiting on stdin holds the outcome back.
			// The worker is gone once the kill grace has passed.
			select {
			case o := <-console.Outcome():
				return o, nil
			case <-time.After(killGrace(opts) + time.Second):
				return controller.Outcome{Status: controller.Cancelled}, nil
			}
		}
	}
}

func (a *app) runFullScreen(kind op.Kind, start starter) (controller.Outcome, error) {
	p := tui.NewPresenter(tui.Config{
		Kind:   kind,
		Theme:  a.cfg.Theme,
		Assume: a.assume,
	})

	h, err := start(p, a.options(true))
	if err != nil {
		return controller.Outcome{}, err
	}
	p.SetCancel(func() bool { return h.Cancel(nil) })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			h.Cancel(nil)
		}
	}()

	// The display runs in the foreground: Bubble Tea needs the terminal.
	if err := p.Run(); err != nil {
		slog.Warn("display failed", "error", err)
	}
	o := h.Wait()
	if !a.quiet {
		fmt.Fprintln(os.Stderr, ui.CompletionSummary(o))
	}
	return o, nil
}

func killGrace(opts controller.Options) time.Duration {
	if opts.KillGrace > 0 {
		return opts.KillGrace
	}
	return controller.DefaultKillGrace
}

// outcomeErr maps a final outcome to the command's exit status.
func outcomeErr(o controller.Outcome) error {
	switch o.Status {
	case controller.Succeeded:
		if o.Stats.FilesFailed > 0 {
			return &exitError{code: exitFailed}
		}
		return nil
	case controller.Cancelled:
		return &exitError{code: exitCancelled}
	default:
		slog.Debug("operation failed", "op", o.Kind.String(), "error", o.Err)
		return &exitError{code: exitFailed}
	}
}
