package ui

import (
	"fmt"

	"github.com/bamsammich/fileop/internal/controller"
)

// CompletionSummary builds a final summary line from an outcome.
// Format: copy done ✓  files 48,917  size 2.1 GiB  avg 641 MiB/s  time 3m 17s  skipped 0  errors 0
func CompletionSummary(o controller.Outcome) string {
	snap := o.Stats
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.FilesFailed > 0 || o.Status != controller.Succeeded {
		icon = "✗"
	}

	base := fmt.Sprintf("%s done %s  files %s  size %s  avg %s  time %s",
		o.Kind,
		icon,
		FormatCount(snap.FilesCopied),
		FormatBytes(snap.BytesCopied),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)
	if snap.FilesDeleted > 0 {
		base += "  deleted " + FormatCount(snap.FilesDeleted)
	}
	if snap.HardlinksCreated > 0 {
		base += "  links " + FormatCount(snap.HardlinksCreated)
	}
	base += fmt.Sprintf("  skipped %d  errors %d", snap.FilesSkipped, snap.FilesFailed)
	return base
}
