// Package filter decides which entries under a source root a tree walk skips.
package filter

import (
	"fmt"
	"strings"
)

// rule is one compiled include or exclude pattern.
type rule struct {
	pattern *compiledPattern
	include bool
}

// Chain is an ordered rule list; the first matching rule wins.
type Chain struct {
	rules []rule
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// Parse builds a chain from rule lines. A line is "- PATTERN" (exclude),
// "+ PATTERN" (include) or a bare pattern (exclude). Blank lines and lines
// starting with # are ignored.
func Parse(lines []string) (*Chain, error) {
	c := NewChain()
	for i, line := range lines {
		if err := c.add(line); err != nil {
			return nil, fmt.Errorf("rule %d %q: %w", i+1, line, err)
		}
	}
	return c, nil
}

func (c *Chain) add(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	switch {
	case strings.HasPrefix(line, "+ "):
		return c.AddInclude(strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "- "):
		return c.AddExclude(strings.TrimSpace(line[2:]))
	default:
		return c.AddExclude(line)
	}
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, rule{pattern: cp})
	return nil
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, rule{pattern: cp, include: true})
	return nil
}

// Empty reports whether the chain has no rules. A nil chain is empty.
func (c *Chain) Empty() bool {
	return c == nil || len(c.rules) == 0
}

// Excluded reports whether relPath (relative to the source root, slash
// separated) should be skipped.
func (c *Chain) Excluded(relPath string, isDir bool) bool {
	if c.Empty() {
		return false
	}
	for _, r := range c.rules {
		if r.pattern.match(relPath, isDir) {
			return !r.include
		}
	}
	return false
}
