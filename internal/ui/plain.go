package ui

import (
	"fmt"
	"io"
)

// plainRenderer writes line-oriented output when stderr is not a TTY.
// Status lines appear only when verbose; progress is reported in quarters.
type plainRenderer struct {
	w       io.Writer
	verbose bool
	lastPct int
}

func (p *plainRenderer) status(text string) {
	if p.verbose {
		fmt.Fprintln(p.w, text)
	}
}

func (p *plainRenderer) progress(pct int) {
	if pct < 0 || pct/25 <= p.lastPct/25 {
		return
	}
	p.lastPct = pct
	fmt.Fprintf(p.w, "progress: %d%%\n", pct)
}

func (p *plainRenderer) clear() {}
