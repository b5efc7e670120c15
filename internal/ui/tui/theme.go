package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/fileop/internal/config"
)

// palette assigns a color to each role the display draws. Defaults adapt
// to light and dark terminals; a [theme] entry pins one color for both.
type palette struct {
	done      lipgloss.TerminalColor // finished entries, throughput
	active    lipgloss.TerminalColor // entry in flight
	attention lipgloss.TerminalColor // questions and worker status
	failed    lipgloss.TerminalColor
	accent    lipgloss.TerminalColor // key names, labels
	muted     lipgloss.TerminalColor
	rule      lipgloss.TerminalColor
	text      lipgloss.TerminalColor
}

func defaultPalette() palette {
	return palette{
		done:      lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#8fd694"},
		active:    lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#7fb4f5"},
		attention: lipgloss.AdaptiveColor{Light: "#b26a00", Dark: "#f5d076"},
		failed:    lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#f2788f"},
		accent:    lipgloss.AdaptiveColor{Light: "#6a1b9a", Dark: "#c39cf2"},
		muted:     lipgloss.AdaptiveColor{Light: "#757575", Dark: "#6b7280"},
		rule:      lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#3b4252"},
		text:      lipgloss.AdaptiveColor{Light: "#212121", Dark: "#e5e9f0"},
	}
}

// styles is what the model, feed and rate views render with.
type styles struct {
	title, label, rule lipgloss.Style

	done, failed, skipped lipgloss.Style
	path, active, reason  lipgloss.Style

	key, hint lipgloss.Style
	rate, bar lipgloss.Style
	status    lipgloss.Style
	question  lipgloss.Style
	saveLabel lipgloss.Style
	saveInput lipgloss.Style
}

var sty = newStyles(defaultPalette())

func newStyles(p palette) styles {
	plain := lipgloss.NewStyle()
	return styles{
		title: plain.Bold(true).Foreground(p.text),
		label: plain.Bold(true).Foreground(p.accent),
		rule:  plain.Foreground(p.rule),

		done:    plain.Foreground(p.done),
		failed:  plain.Foreground(p.failed),
		skipped: plain.Foreground(p.muted),
		path:    plain.Foreground(p.text),
		active:  plain.Foreground(p.active),
		reason:  plain.Foreground(p.failed).Italic(true),

		key:       plain.Bold(true).Foreground(p.accent),
		hint:      plain.Foreground(p.muted),
		rate:      plain.Bold(true).Foreground(p.done),
		bar:       plain.Foreground(p.done),
		status:    plain.Italic(true).Foreground(p.attention),
		question:  plain.Bold(true).Foreground(p.attention),
		saveLabel: plain.Foreground(p.muted),
		saveInput: plain.Foreground(p.text),
	}
}

// ApplyTheme rebuilds the styles with the roles tc overrides.
func ApplyTheme(tc config.ThemeConfig) {
	p := defaultPalette()
	for _, o := range []struct {
		value *string
		role  *lipgloss.TerminalColor
	}{
		{tc.Done, &p.done},
		{tc.Active, &p.active},
		{tc.Attention, &p.attention},
		{tc.Failed, &p.failed},
		{tc.Accent, &p.accent},
		{tc.Muted, &p.muted},
		{tc.Rule, &p.rule},
		{tc.Text, &p.text},
	} {
		if o.value != nil {
			*o.role = lipgloss.Color(*o.value)
		}
	}
	sty = newStyles(p)
}
