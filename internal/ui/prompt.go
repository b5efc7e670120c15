package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"github.com/bamsammich/fileop/internal/feedback"
)

// Assume answers prompts without asking.
type Assume int

const (
	AssumeNone Assume = iota
	// AssumeSkip skips or ignores every failing item.
	AssumeSkip
	// AssumeContinue proceeds where the prompt allows it and skips otherwise.
	AssumeContinue
)

var errUnknownAssume = errors.New("unknown answer mode")

// ParseAssume parses "", "skip" or "continue".
func ParseAssume(s string) (Assume, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ask":
		return AssumeNone, nil
	case "skip":
		return AssumeSkip, nil
	case "continue":
		return AssumeContinue, nil
	default:
		return AssumeNone, fmt.Errorf("%w %q (want skip or continue)", errUnknownAssume, s)
	}
}

func (a Assume) String() string {
	switch a {
	case AssumeSkip:
		return "skip"
	case AssumeContinue:
		return "continue"
	default:
		return "ask"
	}
}

// Answer returns the automatic response for k. Retry is never assumed, so
// a persistent error cannot loop.
func (a Assume) Answer(k feedback.Kind) (feedback.Response, bool) {
	switch a {
	case AssumeSkip:
		return feedback.SkipIgnore, true
	case AssumeContinue:
		if k == feedback.ContinueOrSkip {
			return feedback.RetryContinue, true
		}
		return feedback.SkipIgnore, true
	default:
		return 0, false
	}
}

// OptionKey is the letter that selects r in a prompt of kind k.
func OptionKey(k feedback.Kind, r feedback.Response) rune {
	switch r {
	case feedback.SkipIgnoreAll:
		return 'a'
	case feedback.Cancel:
		return 'c'
	default:
		label := feedback.Label(k, r)
		return unicode.ToLower([]rune(label)[0])
	}
}

// SafeAnswer is used when nobody can be asked: Cancel where the prompt
// allows it, otherwise skip.
func SafeAnswer(k feedback.Kind) feedback.Response {
	if feedback.Legal(k, feedback.Cancel) {
		return feedback.Cancel
	}
	return feedback.SkipIgnore
}

// ask shows req with its options and reads a choice from in. Without
// input the safest legal answer is used.
func ask(w io.Writer, in *bufio.Reader, req feedback.Request) feedback.Response {
	opts := feedback.Options(req.Kind)
	fallback := SafeAnswer(req.Kind)
	if in == nil || len(opts) == 0 {
		return fallback
	}

	choices := make([]string, len(opts))
	for i, r := range opts {
		choices[i] = fmt.Sprintf("[%c] %s", OptionKey(req.Kind, r), feedback.Label(req.Kind, r))
	}
	for {
		fmt.Fprintf(w, "%s\n  %s? ", color.YellowString(req.Text), strings.Join(choices, "  "))
		line, err := in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer != "" {
			first := []rune(answer)[0]
			for _, r := range opts {
				if OptionKey(req.Kind, r) == first {
					return r
				}
			}
		}
		if err != nil {
			fmt.Fprintln(w)
			return fallback
		}
		fmt.Fprintf(w, "  please answer one of: %s\n", strings.Join(choices, "  "))
	}
}

// confirm asks a yes/no question, defaulting to no.
func confirm(w io.Writer, in *bufio.Reader, question string) bool {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(w)
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
