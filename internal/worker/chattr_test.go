package worker

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/op"
)

func perm(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Lstat(path)
	require.NoError(t, err)
	return info.Mode().Perm()
}

func TestChattrRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d", "f"), []byte("f"))
	writeFile(t, filepath.Join(root, "d", "sub", "g"), []byte("g"))

	req := op.Request{
		Kind:     op.SetAttributes,
		WorkDir:  root,
		Sources:  []string{"d"},
		FileMode: 0o600,
		FileMask: 0o777,
		DirMode:  0o700,
		DirMask:  0o777,
		Attr:     op.ChangeFileMode | op.ChangeDirMode | op.Recurse,
	}
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	require.Empty(t, res.prompts)

	assert.Equal(t, os.FileMode(0o700), perm(t, filepath.Join(root, "d")))
	assert.Equal(t, os.FileMode(0o700), perm(t, filepath.Join(root, "d", "sub")))
	assert.Equal(t, os.FileMode(0o600), perm(t, filepath.Join(root, "d", "f")))
	assert.Equal(t, os.FileMode(0o600), perm(t, filepath.Join(root, "d", "sub", "g")))
	requireConverged(t, res)
}

func TestChattrMaskKeepsOtherBits(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f"), []byte("f"))
	require.NoError(t, os.Chmod(filepath.Join(root, "f"), 0o640))

	req := op.Request{
		Kind:     op.SetAttributes,
		WorkDir:  root,
		Sources:  []string{"f"},
		FileMode: 0o004,
		FileMask: 0o007,
		Attr:     op.ChangeFileMode,
	}
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	assert.Equal(t, os.FileMode(0o644), perm(t, filepath.Join(root, "f")))
}

func TestChattrWithoutRecurseTouchesOnlyTheDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d", "f"), []byte("f"))
	require.NoError(t, os.Chmod(filepath.Join(root, "d", "f"), 0o644))

	req := op.Request{
		Kind:     op.SetAttributes,
		WorkDir:  root,
		Sources:  []string{"d"},
		FileMode: 0o600,
		FileMask: 0o777,
		DirMode:  0o750,
		DirMask:  0o777,
		Attr:     op.ChangeFileMode | op.ChangeDirMode,
	}
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	assert.Equal(t, os.FileMode(0o750), perm(t, filepath.Join(root, "d")))
	assert.Equal(t, os.FileMode(0o644), perm(t, filepath.Join(root, "d", "f")))
}

func TestChattrRestrictiveDirModeAppliedLast(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d", "sub", "f"), []byte("f"))
	t.Cleanup(func() {
		_ = os.Chmod(filepath.Join(root, "d", "sub"), 0o755)
		_ = os.Chmod(filepath.Join(root, "d"), 0o755)
	})

	req := op.Request{
		Kind:     op.SetAttributes,
		WorkDir:  root,
		Sources:  []string{"d"},
		FileMode: 0o600,
		FileMask: 0o777,
		DirMode:  0o000,
		DirMask:  0o777,
		Attr:     op.ChangeFileMode | op.ChangeDirMode | op.Recurse,
	}
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	require.Empty(t, res.prompts)

	assert.Equal(t, os.FileMode(0o000), perm(t, filepath.Join(root, "d")))
	require.NoError(t, os.Chmod(filepath.Join(root, "d"), 0o755))
	assert.Equal(t, os.FileMode(0o000), perm(t, filepath.Join(root, "d", "sub")))
	require.NoError(t, os.Chmod(filepath.Join(root, "d", "sub"), 0o755))
	assert.Equal(t, os.FileMode(0o600), perm(t, filepath.Join(root, "d", "sub", "f")))
}

func TestChattrChownToSelf(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f"), []byte("f"))

	req := op.Request{
		Kind:    op.SetAttributes,
		WorkDir: root,
		Sources: []string{"f"},
		UID:     os.Getuid(),
		GID:     op.KeepID,
		Attr:    op.ChangeOwner,
	}
	res := run(t, req, nil, nil)
	require.Equal(t, ipc.ExitOK, res.code)
	require.Empty(t, res.prompts)
}

// denyAccess makes the worker believe it cannot list dir, as it would for a
// directory the caller lacks read and search on.
func denyAccess(dir string, then func()) func(*Worker) {
	return func(w *Worker) {
		w.sys.access = func(path string, _ uint32) error {
			if path != dir {
				return nil
			}
			if then != nil {
				then()
			}
			return syscall.EACCES
		}
	}
}

func chattrTreeReq(root string, attr op.AttrFlags) op.Request {
	return op.Request{
		Kind:     op.SetAttributes,
		WorkDir:  root,
		Sources:  []string{"d"},
		FileMode: 0o600,
		FileMask: 0o777,
		DirMode:  0o750,
		DirMask:  0o777,
		Attr:     attr | op.Recurse,
	}
}

func TestChattrGrantedDirectoryGetsRequestedMode(t *testing.T) {
	root := t.TempDir()
	locked := filepath.Join(root, "d", "locked")
	writeFile(t, filepath.Join(locked, "f"), []byte("f"))
	require.NoError(t, os.Chmod(locked, 0o300))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res := run(t, chattrTreeReq(root, op.ChangeFileMode|op.ChangeDirMode), nil, denyAccess(locked, nil))
	require.Equal(t, ipc.ExitOK, res.code)
	require.Empty(t, res.prompts)
	assert.Equal(t, os.FileMode(0o750), perm(t, locked))
	assert.Equal(t, os.FileMode(0o600), perm(t, filepath.Join(locked, "f")))
}

func TestChattrGrantedDirectoryIsRestored(t *testing.T) {
	root := t.TempDir()
	locked := filepath.Join(root, "d", "locked")
	writeFile(t, filepath.Join(locked, "f"), []byte("f"))
	require.NoError(t, os.Chmod(locked, 0o300))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	// Only file modes change, so the grant must not outlive the walk.
	res := run(t, chattrTreeReq(root, op.ChangeFileMode), nil, denyAccess(locked, nil))
	require.Equal(t, ipc.ExitOK, res.code)
	assert.Equal(t, os.FileMode(0o300), perm(t, locked))
	assert.Equal(t, os.FileMode(0o600), perm(t, filepath.Join(locked, "f")))
}

func TestChattrCancelRestoresGrantedAccess(t *testing.T) {
	root := t.TempDir()
	locked := filepath.Join(root, "d", "locked")
	writeFile(t, filepath.Join(locked, "f"), []byte("f"))
	require.NoError(t, os.Chmod(filepath.Join(locked, "f"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o300))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	setup := func(w *Worker) { denyAccess(locked, w.RequestCancel)(w) }
	res := run(t, chattrTreeReq(root, op.ChangeFileMode|op.ChangeDirMode), nil, setup)
	require.Equal(t, ipc.ExitCancelled, res.code)
	assert.Nil(t, res.summary)

	assert.Equal(t, os.FileMode(0o300), perm(t, locked))
	assert.Equal(t, os.FileMode(0o644), perm(t, filepath.Join(locked, "f")))
	assert.Equal(t, os.FileMode(0o755), perm(t, filepath.Join(root, "d")))
}
