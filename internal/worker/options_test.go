package worker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/op"
)

func TestGraceDelayHoldsQuickOperations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), []byte("x"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dst"), 0o755))

	req := copyReq(op.Copy, root, "dst", "a.txt")
	req.GraceDelay = 300 * time.Millisecond
	start := time.Now()
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestBandwidthLimitSlowsCopy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), pattern(96<<10))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dst"), 0o755))

	req := copyReq(op.Copy, root, "dst", "a.bin")
	req.BWLimit = 64 << 10
	start := time.Now()
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)

	// The first 64 KiB fit the burst; the remaining 32 KiB take half a second.
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
	got, err := os.ReadFile(filepath.Join(root, "dst", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, pattern(96<<10), got)
}

func TestPathWidthElidesMessages(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("d", 60)
	writeFile(t, filepath.Join(root, long, "a.txt"), []byte("x"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dst"), 0o755))

	req := copyReq(op.Copy, root, "dst", long)
	req.PathWidth = 30
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	require.NotEmpty(t, res.statuses)
	for _, s := range res.statuses {
		assert.NotContains(t, s, long)
	}
	assert.Contains(t, strings.Join(res.statuses, "\n"), "...")
}

func TestDefaultPathWidth(t *testing.T) {
	w := New(Config{Request: op.Request{}})
	long := "/" + strings.Repeat("x", 100)
	assert.Equal(t, op.DefaultPathWidth, utf8.RuneCountInString(w.elide(long)))
}
