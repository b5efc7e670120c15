package ui

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/feedback"
)

func TestParseAssume(t *testing.T) {
	tests := []struct {
		in      string
		want    Assume
		wantErr bool
	}{
		{"", AssumeNone, false},
		{"ask", AssumeNone, false},
		{"skip", AssumeSkip, false},
		{" Continue ", AssumeContinue, false},
		{"retry", AssumeNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAssume(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssumeAnswersAreLegal(t *testing.T) {
	kinds := []feedback.Kind{feedback.RetryOrIgnore, feedback.ContinueOrSkip, feedback.SkipOrCancel}
	for _, a := range []Assume{AssumeSkip, AssumeContinue} {
		for _, k := range kinds {
			r, ok := a.Answer(k)
			require.True(t, ok)
			assert.True(t, feedback.Legal(k, r), "%s answers %s with %s", a, k, r)
			if k == feedback.RetryOrIgnore {
				assert.NotEqual(t, feedback.RetryContinue, r, "retry is never assumed")
			}
		}
	}
	_, ok := AssumeNone.Answer(feedback.RetryOrIgnore)
	assert.False(t, ok)

	r, _ := AssumeContinue.Answer(feedback.ContinueOrSkip)
	assert.Equal(t, feedback.RetryContinue, r)
}

func TestKeysAreUniquePerKind(t *testing.T) {
	for _, k := range []feedback.Kind{feedback.RetryOrIgnore, feedback.ContinueOrSkip, feedback.SkipOrCancel} {
		seen := map[rune]feedback.Response{}
		for _, r := range feedback.Options(k) {
			c := OptionKey(k, r)
			_, dup := seen[c]
			assert.False(t, dup, "key %c reused in %s", c, k)
			seen[c] = r
		}
	}
}

func TestAsk(t *testing.T) {
	req := feedback.Request{Kind: feedback.RetryOrIgnore, Text: "Cannot read a.txt: permission denied"}

	tests := []struct {
		name  string
		input string
		want  feedback.Response
	}{
		{"retry", "r\n", feedback.RetryContinue},
		{"ignore", "i\n", feedback.SkipIgnore},
		{"ignore all", "a\n", feedback.SkipIgnoreAll},
		{"invalid then valid", "x\nI\n", feedback.SkipIgnore},
		{"eof falls back to ignore", "", feedback.SkipIgnore},
		{"answer without newline", "r", feedback.RetryContinue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := ask(&out, bufio.NewReader(strings.NewReader(tt.input)), req)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), req.Text)
			assert.Contains(t, out.String(), "[r] Retry")
		})
	}
}

func TestAskSkipOrCancelFallsBackToCancel(t *testing.T) {
	var out bytes.Buffer
	req := feedback.Request{Kind: feedback.SkipOrCancel, Text: "Source and destination are the same: a"}
	assert.Equal(t, feedback.Cancel, ask(&out, bufio.NewReader(strings.NewReader("")), req))
	assert.Equal(t, feedback.Cancel, ask(&out, nil, req))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(&out, bufio.NewReader(strings.NewReader("y\n")), "Cancel?"))
	assert.True(t, confirm(&out, bufio.NewReader(strings.NewReader("YES\n")), "Cancel?"))
	assert.False(t, confirm(&out, bufio.NewReader(strings.NewReader("\n")), "Cancel?"))
	assert.False(t, confirm(&out, bufio.NewReader(strings.NewReader("")), "Cancel?"))
	assert.Contains(t, out.String(), "Cancel? [y/N]")
}

func TestSafeAnswer(t *testing.T) {
	assert.Equal(t, feedback.Cancel, SafeAnswer(feedback.SkipOrCancel))
	assert.Equal(t, feedback.SkipIgnore, SafeAnswer(feedback.RetryOrIgnore))
	assert.Equal(t, feedback.SkipIgnore, SafeAnswer(feedback.ContinueOrSkip))
	for _, k := range []feedback.Kind{feedback.RetryOrIgnore, feedback.ContinueOrSkip, feedback.SkipOrCancel} {
		assert.True(t, feedback.Legal(k, SafeAnswer(k)), k.String())
	}
}
