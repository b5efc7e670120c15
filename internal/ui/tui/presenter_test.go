package tui

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/controller"
	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/op"
	"github.com/bamsammich/fileop/internal/ui"
)

func newTestPresenter(assume ui.Assume) *Presenter {
	return NewPresenter(Config{
		Kind:   op.Copy,
		Assume: assume,
		Input:  strings.NewReader(""),
		Output: io.Discard,
	})
}

func TestPresenter_AssumedAnswerIsImmediate(t *testing.T) {
	p := newTestPresenter(ui.AssumeSkip)
	p.exited = true // no program loop to receive messages

	var got feedback.Response
	p.Feedback(feedback.Request{Kind: feedback.RetryOrIgnore}, func(r feedback.Response) { got = r })
	assert.Equal(t, feedback.SkipIgnore, got)
}

func TestPresenter_FeedbackAfterExitUsesSafeAnswer(t *testing.T) {
	p := newTestPresenter(ui.AssumeNone)
	p.exited = true

	var got feedback.Response
	p.Feedback(feedback.Request{Kind: feedback.SkipOrCancel}, func(r feedback.Response) { got = r })
	assert.Equal(t, feedback.Cancel, got)

	p.Feedback(feedback.Request{Kind: feedback.ContinueOrSkip}, func(r feedback.Response) { got = r })
	assert.Equal(t, feedback.SkipIgnore, got)
}

func TestPresenter_OutcomeRecorded(t *testing.T) {
	p := newTestPresenter(ui.AssumeNone)
	p.exited = true

	_, ok := p.Outcome()
	assert.False(t, ok)
	p.Finished(controller.Outcome{Kind: op.Copy, Status: controller.Succeeded})
	o, ok := p.Outcome()
	assert.True(t, ok)
	assert.Equal(t, controller.Succeeded, o.Status)
}

func TestPresenter_ExitWhileRunningCancels(t *testing.T) {
	p := newTestPresenter(ui.AssumeNone)

	var (
		mu        sync.Mutex
		cancelled bool
		answers   []feedback.Response
	)
	p.SetCancel(func() bool {
		mu.Lock()
		cancelled = true
		mu.Unlock()
		return true
	})

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run() }()

	p.Status("Copying a")
	p.Feedback(feedback.Request{Kind: feedback.SkipOrCancel, Text: "a and b are the same"}, func(r feedback.Response) {
		mu.Lock()
		answers = append(answers, r)
		mu.Unlock()
	})
	p.prog.Quit()

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("display did not exit")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, cancelled, "leaving the display cancels a running operation")
	assert.Equal(t, []feedback.Response{feedback.Cancel}, answers)
}

func TestPresenter_ExitAfterFinishDoesNotCancel(t *testing.T) {
	p := newTestPresenter(ui.AssumeNone)
	cancelled := false
	p.SetCancel(func() bool { cancelled = true; return true })

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run() }()

	p.Finished(controller.Outcome{Kind: op.Copy, Status: controller.Succeeded})
	p.prog.Quit()

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("display did not exit")
	}
	assert.False(t, cancelled)
}
