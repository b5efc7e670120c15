package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Elide shortens path to at most maxLen runes. Long limits keep both ends
// of the path; short ones keep the start.
func Elide(path string, maxLen int) string {
	r := []rune(path)
	if maxLen <= 0 || len(r) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	if maxLen > 20 {
		prefixLen := maxLen/2 - 3
		suffixLen := maxLen - prefixLen - 3
		return string(r[:prefixLen]) + "..." + string(r[len(r)-suffixLen:])
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(bytesPerSec)) + "/s"
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatBytes formats a byte count with binary units.
func FormatBytes(b int64) string {
	if b < 0 {
		return "-" + humanize.IBytes(uint64(-b))
	}
	return humanize.IBytes(uint64(b))
}

// ProgressBar renders a progress bar of the given width using ▪/□ characters.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = min(max(pct, 0), 1)
	filled := min(int(pct*float64(width)), width)

	var b strings.Builder
	for range filled {
		b.WriteRune('▪') // ▪ (filled)
	}
	for range width - filled {
		b.WriteRune('□') // □ (empty)
	}
	return b.String()
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// truncate cuts s to width runes for a single terminal line.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width])
}
