// Package tui is the full-screen display for one running operation.
package tui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/fileop/internal/config"
	"github.com/bamsammich/fileop/internal/controller"
	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/ui"
)

// Config configures the TUI presenter.
type Config struct {
	Kind   op.Kind
	Theme  config.ThemeConfig
	Assume ui.Assume
	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
}

// Presenter wraps a Bubble Tea program and implements controller.Presenter.
type Presenter struct {
	prog   *tea.Program
	assume ui.Assume

	mu       sync.Mutex
	cancel   func() bool
	pending  *pendingPrompt
	exited   bool
	finished bool
	outcome  controller.Outcome
}

var _ controller.Presenter = (*Presenter)(nil)

// NewPresenter creates a new TUI presenter.
func NewPresenter(cfg Config) *Presenter {
	ApplyTheme(cfg.Theme)
	p := &Presenter{assume: cfg.Assume}
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}
	p.prog = tea.NewProgram(NewModel(cfg.Kind, p.requestCancel), opts...)
	return p
}

// SetCancel installs the function that stops the running operation.
func (p *Presenter) SetCancel(fn func() bool) {
	p.mu.Lock()
	p.cancel = fn
	p.mu.Unlock()
}

func (p *Presenter) requestCancel() bool {
	p.mu.Lock()
	fn := p.cancel
	p.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn()
}

func (p *Presenter) Status(text string) {
	if !p.running() {
		return
	}
	p.prog.Send(statusMsg(text))
}

func (p *Presenter) Progress(pct int) {
	if !p.running() {
		return
	}
	p.prog.Send(progressMsg(pct))
}

// Feedback shows the prompt and answers once the user picks an option.
// Once the display is gone nobody can answer, so the safe answer is used.
func (p *Presenter) Feedback(req feedback.Request, reply func(feedback.Response)) {
	if r, ok := p.assume.Answer(req.Kind); ok {
		reply(r)
		if p.running() {
			p.prog.Send(assumedMsg{req: req, answer: r})
		}
		return
	}

	p.mu.Lock()
	if p.exited {
		p.mu.Unlock()
		reply(ui.SafeAnswer(req.Kind))
		return
	}
	var once sync.Once
	pp := &pendingPrompt{req: req}
	pp.reply = func(r feedback.Response) {
		once.Do(func() {
			p.mu.Lock()
			if p.pending == pp {
				p.pending = nil
			}
			p.mu.Unlock()
			reply(r)
		})
	}
	p.pending = pp
	p.mu.Unlock()

	p.prog.Send(feedbackMsg{req: req, reply: pp.reply})
}

func (p *Presenter) Finished(o controller.Outcome) {
	p.mu.Lock()
	p.finished = true
	p.outcome = o
	p.mu.Unlock()
	if p.running() {
		p.prog.Send(finishedMsg(o))
	}
}

func (p *Presenter) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.exited
}

// Run starts the Bubble Tea program and blocks until the user leaves it.
// If the display ends while the operation is still running, the operation
// is cancelled.
func (p *Presenter) Run() error {
	_, err := p.prog.Run()

	p.mu.Lock()
	p.exited = true
	pending := p.pending
	p.pending = nil
	finished := p.finished
	p.mu.Unlock()

	if pending != nil {
		pending.reply(ui.SafeAnswer(pending.req.Kind))
	}
	if !finished {
		p.requestCancel()
	}
	return err
}

// Outcome returns the result reported by the controller. It is only
// meaningful once the operation has finished.
func (p *Presenter) Outcome() (controller.Outcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome, p.finished
}
