package filter

import (
	"regexp"
	"strings"
)

// compiledPattern is an rsync-style glob compiled to a regexp.
type compiledPattern struct {
	re      *regexp.Regexp
	dirOnly bool // trailing /
}

// compilePattern compiles a glob. A leading / or any inner / anchors the
// pattern at the source root; otherwise it matches any trailing path
// component sequence.
func compilePattern(pattern string) (*compiledPattern, error) {
	cp := &compiledPattern{}

	if trimmed, ok := strings.CutSuffix(pattern, "/"); ok {
		cp.dirOnly = true
		pattern = trimmed
	}

	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	prefix := "(^|/)"
	if anchored {
		prefix = "^"
	}
	re, err := regexp.Compile(prefix + globToRegex(pattern) + "$")
	if err != nil {
		return nil, err
	}
	cp.re = re
	return cp, nil
}

func (cp *compiledPattern) match(relPath string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	return cp.re.MatchString(relPath)
}

// globToRegex translates *, **, ? and [...] classes; everything else is literal.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch {
		case strings.HasPrefix(glob[i:], "**/"):
			b.WriteString("(.*/)?")
			i += 2
		case strings.HasPrefix(glob[i:], "**"):
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		case c == '[':
			end := classEnd(glob, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : end]
			if rest, ok := strings.CutPrefix(class, "!"); ok {
				class = "^" + rest
			}
			b.WriteString("[" + class + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// classEnd returns the index of the ] closing the class opened at glob[start],
// or -1. A ] right after [ or [! is part of the class.
func classEnd(glob string, start int) int {
	j := start + 1
	if j < len(glob) && glob[j] == '!' {
		j++
	}
	if j < len(glob) && glob[j] == ']' {
		j++
	}
	for ; j < len(glob); j++ {
		if glob[j] == ']' {
			return j
		}
	}
	return -1
}
