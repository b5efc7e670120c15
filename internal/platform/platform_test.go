package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestBlockSize(t *testing.T) {
	bs, err := BlockSize(t.TempDir())
	require.NoError(t, err)
	assert.Positive(t, bs)

	_, err = BlockSize(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestErrorClassification(t *testing.T) {
	exdev := &os.LinkError{Op: "rename", Old: "a", New: "b", Err: unix.EXDEV}
	assert.True(t, IsCrossDevice(exdev))
	assert.True(t, IsCrossDevice(fmt.Errorf("move: %w", exdev)))
	assert.False(t, IsCrossDevice(unix.EACCES))

	assert.True(t, IsNotEmpty(&os.PathError{Op: "remove", Path: "d", Err: unix.ENOTEMPTY}))
	assert.False(t, IsNotEmpty(unix.ENOENT))
}

func TestPreallocate(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "f"))
	require.NoError(t, err)
	defer f.Close()

	// Advisory: must never fail or change the visible size.
	Preallocate(f, 1<<20)
	Preallocate(f, 0)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}
