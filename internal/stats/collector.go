package stats

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector tracks the outcome of one operation using atomic counters.
type Collector struct {
	filesCopied      atomic.Int64
	filesSkipped     atomic.Int64
	filesFailed      atomic.Int64
	filesDeleted     atomic.Int64
	bytesCopied      atomic.Int64
	dirsCreated      atomic.Int64
	hardlinksCreated atomic.Int64
	startTime        time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesCopied      int64
	FilesSkipped     int64
	FilesFailed      int64
	FilesDeleted     int64
	BytesCopied      int64
	DirsCreated      int64
	HardlinksCreated int64
	Elapsed          time.Duration
}

func (c *Collector) AddFilesCopied(n int64)      { c.filesCopied.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)     { c.filesSkipped.Add(n) }
func (c *Collector) AddFilesFailed(n int64)      { c.filesFailed.Add(n) }
func (c *Collector) AddFilesDeleted(n int64)     { c.filesDeleted.Add(n) }
func (c *Collector) AddBytesCopied(n int64)      { c.bytesCopied.Add(n) }
func (c *Collector) AddDirsCreated(n int64)      { c.dirsCreated.Add(n) }
func (c *Collector) AddHardlinksCreated(n int64) { c.hardlinksCreated.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesCopied:      c.filesCopied.Load(),
		FilesSkipped:     c.filesSkipped.Load(),
		FilesFailed:      c.filesFailed.Load(),
		FilesDeleted:     c.filesDeleted.Load(),
		BytesCopied:      c.bytesCopied.Load(),
		DirsCreated:      c.dirsCreated.Load(),
		HardlinksCreated: c.hardlinksCreated.Load(),
		Elapsed:          c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d skipped=%d failed=%d deleted=%d bytes=%d dirs=%d hardlinks=%d",
		s.FilesCopied, s.FilesSkipped, s.FilesFailed, s.FilesDeleted,
		s.BytesCopied, s.DirsCreated, s.HardlinksCreated,
	)
}

// Human renders the snapshot for people, with sizes in IEC units.
func (s Snapshot) Human() string {
	out := fmt.Sprintf("%s files, %s", humanize.Comma(s.FilesCopied), humanize.IBytes(uint64(max(s.BytesCopied, 0))))
	if s.FilesDeleted > 0 {
		out += fmt.Sprintf(", %s deleted", humanize.Comma(s.FilesDeleted))
	}
	if s.HardlinksCreated > 0 {
		out += fmt.Sprintf(", %s hard links", humanize.Comma(s.HardlinksCreated))
	}
	if s.FilesSkipped > 0 {
		out += fmt.Sprintf(", %s skipped", humanize.Comma(s.FilesSkipped))
	}
	if s.FilesFailed > 0 {
		out += fmt.Sprintf(", %s failed", humanize.Comma(s.FilesFailed))
	}
	return out
}
