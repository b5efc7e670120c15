package feedback

// Class groups errors that share one "ignore all" latch.
type Class int

const (
	ClassStat Class = iota
	ClassRead
	ClassWrite
	ClassSpecial
	ClassOverwrite
	ClassMkdir
	ClassSymlink
	ClassHardlink
	ClassRemove
	ClassRename
	ClassChattr
	ClassVerify
	ClassConflict
	numClasses
)

var classNames = [...]string{
	ClassStat:      "stat",
	ClassRead:      "read",
	ClassWrite:     "write",
	ClassSpecial:   "special",
	ClassOverwrite: "overwrite",
	ClassMkdir:     "mkdir",
	ClassSymlink:   "symlink",
	ClassHardlink:  "hardlink",
	ClassRemove:    "remove",
	ClassRename:    "rename",
	ClassChattr:    "chattr",
	ClassVerify:    "verify",
	ClassConflict:  "conflict",
}

func (c Class) String() string {
	if c >= 0 && c < numClasses {
		return classNames[c]
	}
	return "unknown"
}

// Latches remembers, per error class, the answer to give without asking.
// The zero value has nothing latched. A Latches value belongs to exactly one
// operation.
type Latches struct {
	set  [numClasses]bool
	resp [numClasses]Response
}

// Set latches c to answer r from now on.
func (l *Latches) Set(c Class, r Response) {
	if c < 0 || c >= numClasses {
		return
	}
	l.set[c] = true
	l.resp[c] = r
}

// Get returns the latched answer for c, if any.
func (l *Latches) Get(c Class) (Response, bool) {
	if c < 0 || c >= numClasses {
		return 0, false
	}
	return l.resp[c], l.set[c]
}
