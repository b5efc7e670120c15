package filter

import (
	"bufio"
	"fmt"
	"os"
)

// ReadRules returns the rule lines of a filter file, in the format Parse
// accepts. Parsing is left to Parse so errors carry the rule text.
func ReadRules(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read filter file %s: %w", path, err)
	}
	return lines, nil
}
