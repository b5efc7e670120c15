package worker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/op"
)

func TestDeleteTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d", "a"), []byte("a"))
	writeFile(t, filepath.Join(root, "d", "sub", "b"), []byte("b"))
	require.NoError(t, os.Symlink("/nonexistent", filepath.Join(root, "d", "dangling")))
	writeFile(t, filepath.Join(root, "loose"), []byte("l"))

	res := run(t, op.Request{Kind: op.Delete, WorkDir: root, Sources: []string{"d", "loose"}}, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	require.Empty(t, res.prompts)

	assert.NoDirExists(t, filepath.Join(root, "d"))
	assert.NoFileExists(t, filepath.Join(root, "loose"))
	assert.Equal(t, int64(4), res.summary.FilesDeleted)
	requireConverged(t, res)
	assert.Contains(t, res.progress, 50)
}

func TestDeleteKeepsExcluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d", "keep.txt"), []byte("k"))
	writeFile(t, filepath.Join(root, "d", "drop.tmp"), []byte("d"))

	req := op.Request{Kind: op.Delete, WorkDir: root, Sources: []string{"d"}, Exclude: []string{"+ *.tmp", "*"}}
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	require.Empty(t, res.prompts, "a directory kept for excluded entries is not an error")

	assert.FileExists(t, filepath.Join(root, "d", "keep.txt"))
	assert.NoFileExists(t, filepath.Join(root, "d", "drop.tmp"))
}

func TestDeleteMissingSourcePrompts(t *testing.T) {
	root := t.TempDir()
	res := run(t, op.Request{Kind: op.Delete, WorkDir: root, Sources: []string{"gone"}}, always(feedback.SkipIgnore), nil)
	require.Equal(t, ipc.ExitOK, res.code)
	require.Len(t, res.prompts, 1)
	assert.Contains(t, res.prompts[0].Text, "Cannot access")
	assert.Equal(t, int64(1), res.summary.FilesSkipped)
}
