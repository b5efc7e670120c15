package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/feedback"
)

func TestFeedView_StatusRetiresPrevious(t *testing.T) {
	f := newFeedView()
	f.status("Copying a", epoch)
	f.status("Copying b", epoch.Add(time.Second))

	require.NotNil(t, f.current)
	assert.Equal(t, "Copying b", f.current.text)
	require.Len(t, f.finished, 1)
	assert.Equal(t, "Copying a", f.finished[0].text)

	f.retire()
	assert.Nil(t, f.current)
	assert.Len(t, f.finished, 2)

	// Retiring with nothing in flight is a no-op.
	f.retire()
	assert.Len(t, f.finished, 2)
}

func TestFeedView_AnsweredCompletesLatestDecision(t *testing.T) {
	f := newFeedView()
	f.asked(feedback.Request{Kind: feedback.RetryOrIgnore, Text: "Cannot read a"})
	f.answered(feedback.RetryContinue, false)
	f.asked(feedback.Request{Kind: feedback.ContinueOrSkip, Text: "b exists"})
	f.answered(feedback.SkipIgnore, true)

	require.Len(t, f.decisions, 2)
	assert.Equal(t, feedback.RetryContinue, f.decisions[0].answer)
	assert.False(t, f.decisions[0].assumed)
	assert.Equal(t, feedback.SkipIgnore, f.decisions[1].answer)
	assert.True(t, f.decisions[1].assumed)

	// A stray answer does not rewrite an answered decision.
	f.answered(feedback.Cancel, false)
	assert.Equal(t, feedback.SkipIgnore, f.decisions[1].answer)
}

func TestFeedView_AnsweredWithoutDecision(t *testing.T) {
	f := newFeedView()
	f.answered(feedback.SkipIgnore, false)
	assert.Empty(t, f.decisions)
}

func TestFeedView_Scroll(t *testing.T) {
	f := newFeedView()
	for i := range 20 {
		f.status(fmt.Sprintf("entry %d", i), epoch)
	}
	f.retire()

	// Auto-scroll pins the viewport to the newest entries.
	view := f.view(80, 5, epoch)
	assert.Equal(t, 16, f.scrollOffset)
	assert.Contains(t, view, "entry 19")
	assert.NotContains(t, view, "entry 0\n")

	f.scrollToTop()
	assert.False(t, f.autoScroll)
	view = f.view(80, 5, epoch)
	assert.Contains(t, view, "entry 0")
	assert.NotContains(t, view, "entry 19")

	f.scrollUp()
	assert.Equal(t, 0, f.scrollOffset)

	for range 40 {
		f.scrollDown()
	}
	f.view(80, 5, epoch)
	assert.Equal(t, 16, f.scrollOffset, "offset is clamped to the last page")

	f.scrollToBottom()
	assert.True(t, f.autoScroll)
}

func TestFeedView_ViewSections(t *testing.T) {
	f := newFeedView()
	assert.Empty(t, f.view(80, 20, epoch))

	f.status("Copying a", epoch)
	f.status("Copying b", epoch)
	f.asked(feedback.Request{Kind: feedback.RetryOrIgnore, Text: "Cannot read c"})

	view := f.view(80, 20, epoch.Add(3*time.Second))
	assert.Contains(t, view, "─ now")
	assert.Contains(t, view, "Copying b")
	assert.Contains(t, view, "3s")
	assert.Contains(t, view, "─ done (1)")
	assert.Contains(t, view, "─ decisions (1)")
	assert.Contains(t, view, "Cannot read c")
	assert.Contains(t, view, "waiting")

	f.answered(feedback.SkipIgnore, true)
	assert.Contains(t, f.view(80, 20, epoch), "Ignore (assumed)")
}

func TestFeedView_DecisionsShowMostRecent(t *testing.T) {
	f := newFeedView()
	for i := range 8 {
		f.asked(feedback.Request{Kind: feedback.ContinueOrSkip, Text: fmt.Sprintf("file%d exists", i)})
	}
	view := f.view(80, 30, epoch)
	assert.Contains(t, view, "─ decisions (8)")
	assert.NotContains(t, view, "file2 exists")
	assert.Contains(t, view, "file3 exists")
	assert.Contains(t, view, "file7 exists")
}
