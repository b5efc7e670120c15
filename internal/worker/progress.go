package worker

import (
	"math/bits"

	"github.com/bamsammich/fileop/internal/ipc"
)

// progress converts processed bytes into a whole percentage. The
// percentage never decreases and only reaches 100 when the worker finishes.
type progress struct {
	total uint64
	done  uint64
	sent  int // last percentage sent; Indeterminate before any
}

func newProgress() progress {
	return progress{sent: ipc.Indeterminate}
}

func (p *progress) setTotal(total int64) {
	if total < 0 {
		total = 0
	}
	p.total = uint64(total)
}

// add credits n bytes and returns the new percentage if it moved.
func (p *progress) add(n int64) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	p.done += uint64(n)
	if p.done < uint64(n) { // wrapped
		p.done = ^uint64(0)
	}
	return p.advanceTo(p.percent())
}

// percent is floor(done*100/total), clamped to 99 so only completion
// reports 100. The product is computed in 128 bits.
func (p *progress) percent() int {
	if p.total == 0 {
		return 0
	}
	hi, lo := bits.Mul64(p.done, 100)
	if hi >= p.total {
		return 99
	}
	q, _ := bits.Div64(hi, lo, p.total)
	if q > 99 {
		return 99
	}
	return int(q)
}

func (p *progress) advanceTo(pct int) (int, bool) {
	if pct <= p.sent {
		return 0, false
	}
	p.sent = pct
	return pct, true
}

// advance credits n bytes and sends a Progress message when the percentage
// changes.
func (w *Worker) advance(n int64) {
	if pct, ok := w.progress.add(n); ok {
		w.send(ipc.Progress{Percent: pct})
	}
}

// stepProgress reports completion of done of len(Sources) top-level items
// for operations without a sizing pass.
func (w *Worker) stepProgress(done int) {
	n := len(w.req.Sources)
	if n == 0 || done >= n {
		return
	}
	if pct, ok := w.progress.advanceTo(done * 100 / n); ok {
		w.send(ipc.Progress{Percent: pct})
	}
}

// sendProgress sends pct unconditionally and records it. Indeterminate is
// only sent before any real percentage.
func (w *Worker) sendProgress(pct int) {
	if pct != ipc.Indeterminate && pct < w.progress.sent {
		return
	}
	w.progress.sent = pct
	w.send(ipc.Progress{Percent: pct})
}
