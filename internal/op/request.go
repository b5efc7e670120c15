// Package op describes a single file operation handed to a worker process.
package op

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Kind identifies the operation a worker performs.
type Kind int

const (
	Copy Kind = iota + 1
	Move
	Delete
	SetAttributes
)

var kindNames = [...]string{
	Copy:          "copy",
	Move:          "move",
	Delete:        "delete",
	SetAttributes: "chattr",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// AttrFlags selects which attributes SetAttributes changes.
type AttrFlags uint8

const (
	ChangeOwner AttrFlags = 1 << iota
	ChangeFileMode
	ChangeDirMode
	Recurse
)

// Has reports whether all bits in f are set.
func (a AttrFlags) Has(f AttrFlags) bool { return a&f == f }

// KeepID leaves a uid or gid unchanged.
const KeepID = -1

// DefaultPathWidth is the display length paths are elided to in messages.
const DefaultPathWidth = 40

var (
	ErrUnknownKind        = errors.New("unknown operation kind")
	ErrNoSources          = errors.New("no source paths given")
	ErrNoDestination      = errors.New("destination directory required")
	ErrDestNamesMismatch  = errors.New("destination names must match sources one to one")
	ErrNoAttributeChanges = errors.New("no attribute change requested")
)

// Request is the complete input to one worker.
type Request struct {
	Kind    Kind
	WorkDir string

	// Sources are relative to WorkDir and may contain separators.
	Sources []string
	// DestNames, when set, renames each source under DestDir.
	DestNames []string
	DestDir   string

	// SetAttributes.
	UID      int
	GID      int
	FileMode uint32
	DirMode  uint32
	FileMask uint32
	DirMask  uint32
	Attr     AttrFlags

	Overwrite    bool
	Verify       bool
	BWLimit      int64 // bytes/sec, 0 = unlimited
	Exclude      []string
	BufferBlocks int
	PathWidth    int
	GraceDelay   time.Duration
}

// Validate performs the minimal checks done before a worker is started.
func (r Request) Validate() error {
	switch r.Kind {
	case Copy, Move, Delete, SetAttributes:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(r.Kind))
	}
	if len(r.Sources) == 0 {
		return ErrNoSources
	}
	if (r.Kind == Copy || r.Kind == Move) && r.DestDir == "" {
		return ErrNoDestination
	}
	if len(r.DestNames) > 0 && len(r.DestNames) != len(r.Sources) {
		return fmt.Errorf("%w: %d sources, %d names", ErrDestNamesMismatch, len(r.Sources), len(r.DestNames))
	}
	if r.Kind == SetAttributes && r.Attr&(ChangeOwner|ChangeFileMode|ChangeDirMode) == 0 {
		return ErrNoAttributeChanges
	}
	return nil
}

// DestPath returns where source i lands under destDir.
func (r Request) DestPath(destDir string, i int) string {
	if i < len(r.DestNames) && r.DestNames[i] != "" {
		return filepath.Join(destDir, r.DestNames[i])
	}
	return filepath.Join(destDir, filepath.Base(filepath.Clean(r.Sources[i])))
}

// Width returns the configured display width for paths.
func (r Request) Width() int {
	if r.PathWidth <= 0 {
		return DefaultPathWidth
	}
	return r.PathWidth
}

// ApplyMask replaces the bits of cur selected by mask with those of want.
// Only permission, setuid/setgid and sticky bits participate.
func ApplyMask(cur, want, mask uint32) uint32 {
	const bits = 0o7777
	mask &= bits
	return (cur&bits)&^mask | want&mask
}
