package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// newBWLimiter caps copy throughput to bytesPerSec. The burst is at most
// 1 MiB so ordinary buffer-sized writes pass in one wait.
func newBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// throttle blocks until n more bytes may be written.
func (w *Worker) throttle(n int) {
	if w.limiter == nil {
		return
	}
	for n > 0 {
		k := min(n, w.limiter.Burst())
		if err := w.limiter.WaitN(context.Background(), k); err != nil {
			w.log.Debug("rate limiter", "error", err)
			return
		}
		n -= k
	}
}
