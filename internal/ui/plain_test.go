package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainRendererQuarters(t *testing.T) {
	var out bytes.Buffer
	p := &plainRenderer{w: &out}

	for _, pct := range []int{-1, 0, 10, 24, 25, 40, 50, 51, 99, 100} {
		p.progress(pct)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{"progress: 25%", "progress: 50%", "progress: 99%", "progress: 100%"}, lines)
}

func TestPlainRendererStatusOnlyWhenVerbose(t *testing.T) {
	var out bytes.Buffer
	p := &plainRenderer{w: &out}
	p.status("Copying a to b")
	assert.Empty(t, out.String())

	p.verbose = true
	p.status("Copying a to b")
	assert.Equal(t, "Copying a to b\n", out.String())
}

func TestHUDRendererRedrawsInPlace(t *testing.T) {
	var out bytes.Buffer
	h := &hudRenderer{w: &out, width: 60, pct: -1}

	h.progress(-1)
	assert.Empty(t, out.String(), "unchanged progress does not redraw")

	h.progress(50)
	assert.Contains(t, out.String(), "\r\033[K")
	assert.Contains(t, out.String(), " 50% ")
	assert.Contains(t, out.String(), ProgressBar(0.5, progressBarWidth))

	out.Reset()
	h.status(strings.Repeat("x", 200))
	h.progress(51)
	drawn := out.String()
	line := drawn[strings.LastIndex(drawn, "\r\033[K")+len("\r\033[K"):]
	assert.LessOrEqual(t, len([]rune(line)), 59)

	out.Reset()
	h.clear()
	assert.Equal(t, "\r\033[K", out.String())
	out.Reset()
	h.clear()
	assert.Empty(t, out.String())
}
