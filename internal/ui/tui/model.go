package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/fileop/internal/controller"
	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/ui"
)

type viewMode int

const (
	viewFeed viewMode = iota
	viewRate
)

// Bubble Tea messages.
type statusMsg string
type progressMsg int
type feedbackMsg struct {
	req   feedback.Request
	reply func(feedback.Response)
}
type assumedMsg struct {
	req    feedback.Request
	answer feedback.Response
}
type finishedMsg controller.Outcome
type cancelResultMsg struct{ requested bool }
type tickMsg time.Time
type saveResultMsg struct{ err error }

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// saveModal manages the text input overlay for saving results.
type saveModal struct {
	active bool
	input  string
	cursor int
}

func (s *saveModal) insertRune(r rune) {
	s.input = s.input[:s.cursor] + string(r) + s.input[s.cursor:]
	s.cursor++
}

func (s *saveModal) backspace() {
	if s.cursor > 0 {
		s.input = s.input[:s.cursor-1] + s.input[s.cursor:]
		s.cursor--
	}
}

func (s *saveModal) deleteChar() {
	if s.cursor < len(s.input) {
		s.input = s.input[:s.cursor] + s.input[s.cursor+1:]
	}
}

func (s *saveModal) moveLeft() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *saveModal) moveRight() {
	if s.cursor < len(s.input) {
		s.cursor++
	}
}

func (s *saveModal) render() string {
	prompt := sty.saveLabel.Render("Save to: ")
	before := s.input[:s.cursor]
	after := s.input[s.cursor:]
	cursor := sty.saveInput.Render("█")
	return "  " + prompt + sty.saveInput.Render(before) + cursor + sty.saveInput.Render(after)
}

// pendingPrompt is a decision the worker is blocked on.
type pendingPrompt struct {
	req   feedback.Request
	reply func(feedback.Response)
}

// Model is the root Bubble Tea model.
type Model struct {
	kind   op.Kind
	cancel func() bool // asks the controller to stop the worker
	now    func() time.Time

	mode      viewMode
	feed      feedView
	rate      rateView
	width     int
	height    int
	statusMsg string // transient notification
	quitting  bool

	prompt     *pendingPrompt
	confirming bool // cancel confirmation shown
	cancelling bool // cancel requested, waiting for the worker
	outcome    *controller.Outcome

	// Save modal.
	save saveModal
}

// NewModel creates a new TUI model for an operation of kind. cancel is
// called, off the event loop, once the user confirms cancellation.
func NewModel(kind op.Kind, cancel func() bool) Model {
	return newModelAt(kind, cancel, time.Now)
}

func newModelAt(kind op.Kind, cancel func() bool, now func() time.Time) Model {
	return Model{
		kind:   kind,
		cancel: cancel,
		now:    now,
		feed:   newFeedView(),
		rate:   newRateView(now()),
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.feed.status(string(msg), m.now())
		return m, nil

	case progressMsg:
		m.rate.record(int(msg), m.now())
		return m, nil

	case feedbackMsg:
		m.feed.asked(msg.req)
		m.prompt = &pendingPrompt{req: msg.req, reply: msg.reply}
		return m, nil

	case assumedMsg:
		m.feed.asked(msg.req)
		m.feed.answered(msg.answer, true)
		return m, nil

	case finishedMsg:
		o := controller.Outcome(msg)
		m.outcome = &o
		m.feed.retire()
		m.prompt = nil
		m.confirming = false
		m.cancelling = false
		return m, nil

	case cancelResultMsg:
		if !msg.requested && m.outcome == nil {
			m.cancelling = false
			m.statusMsg = "cancel failed"
		}
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case saveResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("saved to %s", m.save.input)
		}
		m.save.active = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// When save modal is active, capture all input.
	if m.save.active {
		return m.handleSaveKey(msg)
	}
	if m.confirming {
		return m.handleConfirmKey(msg)
	}
	if m.prompt != nil {
		if next, cmd, ok := m.handlePromptKey(msg); ok {
			return next, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if m.outcome != nil {
			m.quitting = true
			return m, tea.Quit
		}
		if !m.cancelling {
			m.confirming = true
		}
		return m, nil

	case "r":
		m.mode = viewRate
		m.statusMsg = ""
		return m, nil

	case "f":
		m.mode = viewFeed
		m.statusMsg = ""
		return m, nil

	// Scroll keys for feed view.
	case "j", "down":
		if m.mode == viewFeed {
			m.feed.scrollDown()
		}
		return m, nil

	case "k", "up":
		if m.mode == viewFeed {
			m.feed.scrollUp()
		}
		return m, nil

	case "G":
		if m.mode == viewFeed {
			m.feed.scrollToBottom()
		}
		return m, nil

	case "g":
		if m.mode == viewFeed {
			m.feed.scrollToTop()
		}
		return m, nil

	case "s":
		if m.outcome != nil {
			m.save.active = true
			m.save.input = fmt.Sprintf("fileop-%s.log", m.now().Format("2006-01-02-150405"))
			m.save.cursor = len(m.save.input)
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

// handlePromptKey answers the pending prompt if msg selects one of its
// options. Ctrl+C answers Cancel where the prompt offers it.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	kind := m.prompt.req.Kind
	var choice feedback.Response
	found := false

	if msg.Type == tea.KeyCtrlC {
		if !feedback.Legal(kind, feedback.Cancel) {
			return m, nil, false
		}
		choice, found = feedback.Cancel, true
	} else if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		for _, r := range feedback.Options(kind) {
			if ui.OptionKey(kind, r) == msg.Runes[0] {
				choice, found = r, true
				break
			}
		}
	}
	if !found {
		return m, nil, false
	}

	m.prompt.reply(choice)
	m.feed.answered(choice, false)
	m.prompt = nil
	if choice == feedback.Cancel {
		m.cancelling = true
	}
	return m, nil, true
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirming = false
		m.cancelling = true
		cancel := m.cancel
		return m, func() tea.Msg {
			if cancel == nil {
				return cancelResultMsg{}
			}
			return cancelResultMsg{requested: cancel()}
		}
	case "n", "N", "esc", "q", "ctrl+c":
		m.confirming = false
	}
	return m, nil
}

func (m Model) handleSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.save.active = false
		m.statusMsg = ""
		return m, nil

	case tea.KeyEnter:
		path := m.save.input
		return m, m.writeReport(path)

	case tea.KeyBackspace:
		m.save.backspace()
		return m, nil

	case tea.KeyDelete:
		m.save.deleteChar()
		return m, nil

	case tea.KeyLeft:
		m.save.moveLeft()
		return m, nil

	case tea.KeyRight:
		m.save.moveRight()
		return m, nil

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.save.insertRune(r)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) writeReport(path string) tea.Cmd {
	// Capture data needed by the goroutine.
	o := *m.outcome
	when := m.now()
	actions := make([]actionEntry, len(m.feed.finished))
	copy(actions, m.feed.finished)
	decisions := make([]decisionEntry, len(m.feed.decisions))
	copy(decisions, m.feed.decisions)

	return func() tea.Msg {
		var b strings.Builder

		b.WriteString("fileop report\n")
		b.WriteString("=============\n")
		fmt.Fprintf(&b, "operation:   %s\n", o.Kind)
		fmt.Fprintf(&b, "result:      %s\n", o.Status)
		if o.Err != nil {
			fmt.Fprintf(&b, "error:       %v\n", o.Err)
		}
		fmt.Fprintf(&b, "finished:    %s\n", when.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "duration:    %s\n", ui.FormatDuration(o.Stats.Elapsed))
		fmt.Fprintf(&b, "files:       %s\n", ui.FormatCount(o.Stats.FilesCopied))
		fmt.Fprintf(&b, "size:        %s\n", ui.FormatBytes(o.Stats.BytesCopied))
		fmt.Fprintf(&b, "skipped:     %d\n", o.Stats.FilesSkipped)
		fmt.Fprintf(&b, "errors:      %d\n", o.Stats.FilesFailed)

		b.WriteString("\n--- decisions ---\n")
		for _, d := range decisions {
			answer := "unanswered"
			if d.answered {
				answer = feedback.Label(d.kind, d.answer)
			}
			fmt.Fprintf(&b, "%-10s  %s\n", answer, d.text)
		}

		b.WriteString("\n--- actions ---\n")
		for _, a := range actions {
			b.WriteString(a.text)
			b.WriteByte('\n')
		}

		err := os.WriteFile(path, []byte(b.String()), 0o644) //nolint:gosec // user-chosen path for report output
		return saveResultMsg{err: err}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Header (1 line).
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	// Content area: header, footer and the prompt/status lines.
	contentHeight := max(m.height-5, 3)
	now := m.now()

	switch m.mode {
	case viewFeed:
		b.WriteString(m.feed.view(m.width, contentHeight, now))
	case viewRate:
		b.WriteString(m.rate.view(m.width, now))
	}

	switch {
	case m.save.active:
		b.WriteString(m.save.render())
		b.WriteByte('\n')
	case m.confirming:
		b.WriteString(sty.question.Render("  Cancel the operation? ") +
			sty.key.Render("y") + " " + sty.hint.Render("yes") + "   " +
			sty.key.Render("n") + " " + sty.hint.Render("no"))
		b.WriteByte('\n')
	case m.prompt != nil:
		b.WriteString(m.renderPrompt())
	case m.statusMsg != "":
		b.WriteString(sty.status.Render("  " + m.statusMsg))
		b.WriteByte('\n')
	default:
		b.WriteByte('\n')
	}

	// Footer.
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderPrompt() string {
	req := m.prompt.req
	var b strings.Builder
	b.WriteString("  " + sty.question.Render(ui.Elide(req.Text, max(m.width-4, 20))))
	b.WriteByte('\n')
	parts := make([]string, 0, 4)
	for _, r := range feedback.Options(req.Kind) {
		parts = append(parts,
			sty.key.Render(string(ui.OptionKey(req.Kind, r)))+" "+
				sty.hint.Render(feedback.Label(req.Kind, r)))
	}
	b.WriteString("  " + strings.Join(parts, "   "))
	b.WriteByte('\n')
	return b.String()
}

func (m Model) renderHeader() string {
	label := sty.label.Render("fileop " + m.kind.String())

	if m.outcome != nil {
		var result string
		switch m.outcome.Status {
		case controller.Succeeded:
			result = sty.done.Render(ui.CompletionSummary(*m.outcome))
		case controller.Cancelled:
			result = sty.skipped.Render("cancelled")
		default:
			result = sty.failed.Render(fmt.Sprintf("failed: %v", m.outcome.Err))
		}
		return sty.title.Render("  " + label + "  " + result)
	}

	pct := m.rate.percent()
	if pct < 0 {
		return sty.title.Render(fmt.Sprintf("  %s  scanning", label))
	}
	bar := ui.ProgressBar(float64(pct)/100, 10)
	eta := "--"
	if d := m.rate.eta(m.now()); d > 0 {
		eta = ui.FormatDuration(d)
	}
	header := fmt.Sprintf("  %s  %3d%%  %s  eta %s", label, pct, sty.bar.Render(bar), eta)
	if m.cancelling {
		header += "  " + sty.status.Render("cancelling")
	}
	return sty.title.Render(header)
}

func (m Model) renderFooter() string {
	type keybind struct {
		key   string
		label string
	}

	var binds []keybind
	if m.outcome != nil {
		binds = []keybind{
			{"s", "save"},
			{"j/k", "scroll"},
			{"r", "rate"},
			{"f", "feed"},
			{"q", "quit"},
		}
	} else {
		binds = []keybind{
			{"q", "cancel"},
			{"r", "rate"},
			{"f", "feed"},
			{"j/k", "scroll"},
		}
	}

	var parts []string
	for _, kb := range binds {
		parts = append(parts,
			sty.key.Render(kb.key)+" "+sty.hint.Render(kb.label))
	}

	return "  " + strings.Join(parts, "   ")
}
