package controller

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bamsammich/fileop/internal/op"
)

// DefaultDupSuffix is appended to duplicated names.
const DefaultDupSuffix = ".copy"

// maxDupAttempts bounds the counter search for a free duplicate name.
const maxDupAttempts = 10000

// ErrNoFreeName is returned when no duplicate name is available.
var ErrNoFreeName = errors.New("no free duplicate name")

// Extras are the optional request fields shared by every entry point.
type Extras struct {
	Overwrite    bool
	Verify       bool
	BWLimit      int64
	Exclude      []string
	BufferBlocks int
	PathWidth    int
	GraceDelay   time.Duration
}

func (e Extras) apply(req *op.Request) {
	req.Overwrite = e.Overwrite
	req.Verify = e.Verify
	req.BWLimit = e.BWLimit
	req.Exclude = e.Exclude
	req.BufferBlocks = e.BufferBlocks
	req.PathWidth = e.PathWidth
	req.GraceDelay = e.GraceDelay
}

// Attributes select what SetAttributes changes. UID and GID may be op.KeepID.
type Attributes struct {
	UID      int
	GID      int
	FileMode uint32
	DirMode  uint32
	FileMask uint32
	DirMask  uint32
	Flags    op.AttrFlags
}

// Copy copies sources, relative to workDir, into destDir.
func Copy(workDir string, sources []string, destDir string, p Presenter, opts Options, extras Extras) (*Handle, error) {
	req := op.Request{Kind: op.Copy, WorkDir: workDir, Sources: sources, DestDir: destDir}
	extras.apply(&req)
	return Begin(req, p, opts)
}

// Move moves sources, relative to workDir, into destDir.
func Move(workDir string, sources []string, destDir string, p Presenter, opts Options, extras Extras) (*Handle, error) {
	req := op.Request{Kind: op.Move, WorkDir: workDir, Sources: sources, DestDir: destDir}
	extras.apply(&req)
	return Begin(req, p, opts)
}

// Delete removes sources, relative to workDir, recursively.
func Delete(workDir string, sources []string, p Presenter, opts Options, extras Extras) (*Handle, error) {
	req := op.Request{Kind: op.Delete, WorkDir: workDir, Sources: sources}
	extras.apply(&req)
	return Begin(req, p, opts)
}

// SetAttributes changes owner and mode of sources, relative to workDir.
func SetAttributes(
	workDir string,
	sources []string,
	attrs Attributes,
	p Presenter,
	opts Options,
	extras Extras,
) (*Handle, error) {
	req := op.Request{
		Kind:     op.SetAttributes,
		WorkDir:  workDir,
		Sources:  sources,
		UID:      attrs.UID,
		GID:      attrs.GID,
		FileMode: attrs.FileMode,
		DirMode:  attrs.DirMode,
		FileMask: attrs.FileMask,
		DirMask:  attrs.DirMask,
		Attr:     attrs.Flags,
	}
	extras.apply(&req)
	return Begin(req, p, opts)
}

// Duplicate copies each source next to itself under a name that does not
// exist yet: name+suffix, then name+suffix+1, name+suffix+2 and so on.
func Duplicate(
	workDir string,
	sources []string,
	suffix string,
	p Presenter,
	opts Options,
	extras Extras,
) (*Handle, error) {
	if len(sources) == 0 {
		return nil, op.ErrNoSources
	}
	if suffix == "" {
		suffix = DefaultDupSuffix
	}
	base := workDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		base = wd
	}

	names, err := DupNames(base, sources, suffix)
	if err != nil {
		return nil, err
	}
	req := op.Request{Kind: op.Copy, WorkDir: base, Sources: sources, DestNames: names, DestDir: base}
	extras.apply(&req)
	return Begin(req, p, opts)
}

// DupNames computes a free duplicate name, relative to dir, for each source.
// Names chosen earlier in the same call count as taken.
func DupNames(dir string, sources []string, suffix string) ([]string, error) {
	taken := make(map[string]bool, len(sources))
	names := make([]string, len(sources))
	for i, src := range sources {
		name := filepath.Clean(src)
		found := false
		for n := range maxDupAttempts {
			candidate := name + suffix
			if n > 0 {
				candidate += strconv.Itoa(n)
			}
			if taken[candidate] {
				continue
			}
			_, err := os.Lstat(filepath.Join(dir, candidate))
			if errors.Is(err, fs.ErrNotExist) {
				taken[candidate] = true
				names[i] = candidate
				found = true
				break
			}
			if err != nil {
				return nil, fmt.Errorf("checking %s: %w", candidate, err)
			}
		}
		if !found {
			return nil, fmt.Errorf("%w for %s", ErrNoFreeName, src)
		}
	}
	return names, nil
}
