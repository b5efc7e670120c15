package main

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bamsammich/fileop/internal/filter"
	"github.com/bamsammich/fileop/internal/op"
)

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared rule list.
type filterFlag struct {
	rules   *[]string
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	rule := "- " + val
	if f.include {
		rule = "+ " + val
	}
	// Reject bad patterns here rather than as a worker failure.
	if _, err := filter.Parse([]string{rule}); err != nil {
		return err
	}
	*f.rules = append(*f.rules, rule)
	return nil
}

// modeFlag is an octal permission value such as 0644.
type modeFlag struct {
	val *uint32
}

func (m *modeFlag) String() string {
	if m.val == nil {
		return ""
	}
	return fmt.Sprintf("%04o", *m.val)
}

func (*modeFlag) Type() string { return "octal" }

func (m *modeFlag) Set(s string) error {
	v, err := parseMode(s)
	if err != nil {
		return err
	}
	*m.val = v
	return nil
}

var errModeRange = errors.New("mode out of range")

func parseMode(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q", s)
	}
	if v > 0o7777 {
		return 0, fmt.Errorf("%w: %o", errModeRange, v)
	}
	return uint32(v), nil
}

// parseOwner parses "uid", "uid:gid", ":gid" or "uid:". Names are looked up
// in the user and group databases. A missing part is op.KeepID.
func parseOwner(s string) (uid, gid int, err error) {
	userPart, groupPart, _ := strings.Cut(s, ":")
	if userPart == "" && groupPart == "" {
		return 0, 0, fmt.Errorf("invalid owner %q", s)
	}
	uid, gid = op.KeepID, op.KeepID
	if userPart != "" {
		if uid, err = lookupID(userPart, lookupUser); err != nil {
			return 0, 0, err
		}
	}
	if groupPart != "" {
		if gid, err = lookupID(groupPart, lookupGroup); err != nil {
			return 0, 0, err
		}
	}
	return uid, gid, nil
}

func lookupID(s string, byName func(string) (string, error)) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		if id < 0 {
			return 0, fmt.Errorf("invalid id %d", id)
		}
		return id, nil
	}
	raw, err := byName(s)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func lookupUser(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", err
	}
	return u.Uid, nil
}

func lookupGroup(name string) (string, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return "", err
	}
	return g.Gid, nil
}

// parseBWLimit parses a bandwidth such as "10MiB" or "500k" into bytes/sec.
// Empty means unlimited.
func parseBWLimit(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("bandwidth %s too large", s)
	}
	return int64(n), nil
}
