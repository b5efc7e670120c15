package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/ui"
)

// actionEntry is one status line the worker reported.
type actionEntry struct {
	text    string
	started time.Time
}

// decisionEntry is one prompt and, once given, its answer.
type decisionEntry struct {
	kind     feedback.Kind
	text     string
	answer   feedback.Response
	answered bool
	assumed  bool
}

type feedView struct {
	current      *actionEntry
	finished     []actionEntry   // unbounded history
	decisions    []decisionEntry // never evicted
	scrollOffset int             // viewport offset into finished list
	autoScroll   bool            // follow new entries
}

func newFeedView() feedView {
	return feedView{autoScroll: true}
}

// status records a new action. The previous one is complete.
func (f *feedView) status(text string, at time.Time) {
	f.retire()
	f.current = &actionEntry{text: text, started: at}
}

// retire moves the in-flight action to the history.
func (f *feedView) retire() {
	if f.current != nil {
		f.finished = append(f.finished, *f.current)
		f.current = nil
	}
}

func (f *feedView) asked(req feedback.Request) {
	f.decisions = append(f.decisions, decisionEntry{kind: req.Kind, text: req.Text})
}

// answered completes the most recent decision.
func (f *feedView) answered(r feedback.Response, assumed bool) {
	if n := len(f.decisions); n > 0 && !f.decisions[n-1].answered {
		d := &f.decisions[n-1]
		d.answer, d.answered, d.assumed = r, true, assumed
	}
}

// scrollDown moves the viewport down one line and disables autoScroll.
func (f *feedView) scrollDown() {
	f.autoScroll = false
	f.scrollOffset++
}

// scrollUp moves the viewport up one line and disables autoScroll.
func (f *feedView) scrollUp() {
	f.autoScroll = false
	if f.scrollOffset > 0 {
		f.scrollOffset--
	}
}

// scrollToTop jumps to the first finished entry.
func (f *feedView) scrollToTop() {
	f.autoScroll = false
	f.scrollOffset = 0
}

// scrollToBottom jumps to the most recent entry and re-enables autoScroll.
func (f *feedView) scrollToBottom() {
	f.autoScroll = true
}

func (f *feedView) view(width, height int, now time.Time) string {
	width = max(width, 20)

	maxDecisions := 5
	decisionCount := min(len(f.decisions), maxDecisions)

	dividers := 0
	if f.current != nil {
		dividers++
	}
	if decisionCount > 0 {
		dividers++
	}
	if len(f.finished) > 0 {
		dividers++
	}
	currentLines := 0
	if f.current != nil {
		currentLines = 1
	}
	finishedHeight := max(height-currentLines-decisionCount-dividers, 1)

	maxOffset := max(len(f.finished)-finishedHeight, 0)
	if f.autoScroll {
		f.scrollOffset = maxOffset
	}
	f.scrollOffset = min(max(f.scrollOffset, 0), maxOffset)

	var b strings.Builder

	if f.current != nil {
		b.WriteString(sty.rule.Render("─ now"))
		b.WriteByte('\n')
		elapsed := ui.FormatDuration(now.Sub(f.current.started))
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			sty.active.Render("⟩"),
			sty.path.Render(ui.Elide(f.current.text, width-16)),
			sty.skipped.Render(elapsed))
	}

	if lines := f.renderFinished(width, finishedHeight); lines != "" {
		b.WriteString(sty.rule.Render(fmt.Sprintf("─ done (%d)", len(f.finished))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	if lines := f.renderDecisions(width, decisionCount); lines != "" {
		b.WriteString(sty.rule.Render(fmt.Sprintf("─ decisions (%d)", len(f.decisions))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	return b.String()
}

func (f *feedView) renderFinished(width, viewportHeight int) string {
	if len(f.finished) == 0 {
		return ""
	}
	end := min(f.scrollOffset+viewportHeight, len(f.finished))

	var b strings.Builder
	for _, e := range f.finished[f.scrollOffset:end] {
		fmt.Fprintf(&b, "  %s  %s\n",
			sty.done.Render("✓"),
			sty.path.Render(ui.Elide(e.text, width-6)))
	}
	return b.String()
}

// renderDecisions shows the most recent decisions.
func (f *feedView) renderDecisions(width, maxLines int) string {
	if maxLines == 0 {
		return ""
	}
	var b strings.Builder
	for _, d := range f.decisions[len(f.decisions)-maxLines:] {
		icon := sty.failed.Render("✗")
		answer := sty.status.Render("waiting")
		if d.answered {
			label := feedback.Label(d.kind, d.answer)
			if d.assumed {
				label += " (assumed)"
			}
			answer = sty.skipped.Render(label)
		}
		if d.kind == feedback.ContinueOrSkip {
			icon = sty.skipped.Render("–")
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			icon,
			sty.reason.Render(ui.Elide(d.text, width-24)),
			answer)
	}
	return b.String()
}
