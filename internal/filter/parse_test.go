package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRules(t *testing.T) {
	dir := t.TempDir()
	filterFile := filepath.Join(dir, "filter.rules")

	content := `# This is a comment
+ *.go
- *.log

- build/
noprefix.txt
`
	require.NoError(t, os.WriteFile(filterFile, []byte(content), 0o644))

	lines, err := ReadRules(filterFile)
	require.NoError(t, err)
	assert.Len(t, lines, 6)

	c, err := Parse(lines)
	require.NoError(t, err)
	assert.Len(t, c.rules, 4)
	assert.True(t, c.rules[0].include)
	assert.False(t, c.Excluded("main.go", false))
	assert.True(t, c.Excluded("x.log", false))
	assert.True(t, c.Excluded("build", true))
	assert.True(t, c.Excluded("noprefix.txt", false))
}

func TestReadRulesMissing(t *testing.T) {
	_, err := ReadRules(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
