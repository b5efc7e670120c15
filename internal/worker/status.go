package worker

import (
	"fmt"

	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/ui"
)

// status sends a human-readable description of the next mutation.
func (w *Worker) status(format string, args ...any) {
	w.send(ipc.Status{Text: fmt.Sprintf(format, args...)})
}

// elide shortens path to the request's status width.
func (w *Worker) elide(path string) string {
	return ui.Elide(path, w.req.Width())
}
