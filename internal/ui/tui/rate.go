package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bamsammich/fileop/internal/ui"
)

// rateWindow is how far back progress samples count toward the ETA.
const rateWindow = 10 * time.Second

type sample struct {
	at  time.Time
	pct int
}

// rateView estimates the remaining time from recent progress samples.
type rateView struct {
	started time.Time
	samples []sample
}

func newRateView(started time.Time) rateView {
	return rateView{started: started}
}

// record adds a percentage sample. Indeterminate progress is not a sample.
func (r *rateView) record(pct int, at time.Time) {
	if pct < 0 {
		return
	}
	r.samples = append(r.samples, sample{at: at, pct: pct})
	cutoff := at.Add(-rateWindow)
	drop := 0
	for drop < len(r.samples)-2 && r.samples[drop].at.Before(cutoff) {
		drop++
	}
	r.samples = r.samples[drop:]
}

// eta returns the projected time to completion, or 0 if unknown.
func (r *rateView) eta(now time.Time) time.Duration {
	if len(r.samples) < 2 {
		return 0
	}
	first, last := r.samples[0], r.samples[len(r.samples)-1]
	gained := last.pct - first.pct
	span := now.Sub(first.at)
	if gained <= 0 || span <= 0 {
		return 0
	}
	perPct := span / time.Duration(gained)
	return perPct * time.Duration(100-last.pct)
}

func (r *rateView) percent() int {
	if len(r.samples) == 0 {
		return -1
	}
	return r.samples[len(r.samples)-1].pct
}

func (r *rateView) view(width int, now time.Time) string {
	width = max(width, 20)

	var b strings.Builder

	pct := r.percent()
	big := "scanning"
	if pct >= 0 {
		big = fmt.Sprintf("%d%%", pct)
	}
	b.WriteString("  " + sty.rate.Render(big))
	b.WriteString("\n\n")

	barWidth := max(width-4, 10)
	fill := 0.0
	if pct > 0 {
		fill = float64(pct) / 100
	}
	b.WriteString("  " + sty.bar.Render(ui.ProgressBar(fill, barWidth)))
	b.WriteString("\n\n")

	eta := "--"
	if d := r.eta(now); d > 0 {
		eta = ui.FormatDuration(d)
	}
	fmt.Fprintf(&b, "  %s   %s\n",
		sty.hint.Render("elapsed "+ui.FormatDuration(now.Sub(r.started))),
		sty.hint.Render("eta "+eta))

	return b.String()
}
