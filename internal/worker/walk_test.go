package worker

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackOrder(t *testing.T) {
	var s stack[string]
	assert.True(t, s.empty())
	s.push("a")
	s.push("a/b")
	s.push("a/b/c")
	assert.Equal(t, "a/b/c", s.pop())
	assert.Equal(t, "a/b", s.pop())
	assert.Equal(t, "a", s.pop())
	assert.True(t, s.empty())
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/a", "/a", true},
		{"/a", "/a/b", true},
		{"/a", "/ab", false},
		{"/a", "/", false},
		{"/a/b", "/a", false},
		{"/a", "/a/..b", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, within(tt.root, tt.path), "%s in %s", tt.path, tt.root)
	}
}

func TestRebase(t *testing.T) {
	assert.Equal(t, "/dst", rebase("/src", "/dst", "/src"))
	assert.Equal(t, "/dst/x/y", rebase("/src", "/dst", "/src/x/y"))
}

func TestUnixMode(t *testing.T) {
	assert.Equal(t, uint32(0o755), unixMode(0o755))
	assert.Equal(t, uint32(0o4755), unixMode(0o755|fs.ModeSetuid))
	assert.Equal(t, uint32(0o3750), unixMode(0o750|fs.ModeSetgid|fs.ModeSticky))
	assert.Equal(t, uint32(0o644), unixMode(0o644|fs.ModeDir))
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "fifo", fileType(fs.ModeNamedPipe))
	assert.Equal(t, "socket", fileType(fs.ModeSocket))
	assert.Equal(t, "character device", fileType(fs.ModeDevice|fs.ModeCharDevice))
	assert.Equal(t, "block device", fileType(fs.ModeDevice))
}
