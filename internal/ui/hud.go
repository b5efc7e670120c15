package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // status-only redraw limit
)

// hudRenderer keeps one status line redrawn in place on a TTY.
type hudRenderer struct {
	w        io.Writer
	width    int
	text     string
	pct      int
	drawn    bool
	lastDraw time.Time
}

func (h *hudRenderer) status(text string) {
	h.text = text
	if time.Since(h.lastDraw) < hudMinInterval {
		return
	}
	h.draw()
}

func (h *hudRenderer) progress(pct int) {
	if pct == h.pct {
		return
	}
	h.pct = pct
	h.draw()
}

func (h *hudRenderer) draw() {
	var b strings.Builder
	if h.pct < 0 {
		b.WriteString(strings.Repeat(" ", progressBarWidth))
		b.WriteString("   ... ")
	} else {
		b.WriteString(ProgressBar(float64(h.pct)/100, progressBarWidth))
		fmt.Fprintf(&b, " %3d%% ", h.pct)
	}
	b.WriteString(h.text)

	width := h.width
	if width <= 0 {
		width = defaultWidth
	}
	fmt.Fprintf(h.w, "\r\033[K%s", truncate(b.String(), width-1))
	h.drawn = true
	h.lastDraw = time.Now()
}

func (h *hudRenderer) clear() {
	if !h.drawn {
		return
	}
	fmt.Fprint(h.w, "\r\033[K")
	h.drawn = false
}
