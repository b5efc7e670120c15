package worker

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/op"
)

// exitCode is the panic value the test exit function raises.
type exitCode int

// answerFunc plays the user for one feedback request.
type answerFunc func(req ipc.FeedbackReq) feedback.Response

// result is everything a worker said during one run.
type result struct {
	code     int
	messages []ipc.Message
	prompts  []ipc.FeedbackReq
	statuses []string
	progress []int
	summary  *ipc.Summary
}

// run executes req in-process with a scripted controller. setup may adjust
// the worker before it starts.
func run(t *testing.T, req op.Request, answer answerFunc, setup func(*Worker)) result {
	t.Helper()

	msgR, msgW := io.Pipe()
	repR, repW := io.Pipe()
	w := New(Config{
		Request:  req,
		Messages: msgW,
		Replies:  repR,
		Exit:     func(code int) { panic(exitCode(code)) },
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if setup != nil {
		setup(w)
	}

	done := make(chan int, 1)
	go func() {
		code := ipc.ExitOK
		defer func() {
			if r := recover(); r != nil {
				c, ok := r.(exitCode)
				if !ok {
					panic(r)
				}
				code = int(c)
			}
			msgW.Close()
			repR.Close()
			done <- code
		}()
		w.Run()
	}()

	var res result
	reader := ipc.NewReader(msgR)
	replies := ipc.NewWriter(repW)
	for {
		m, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		res.messages = append(res.messages, m)

		switch m := m.(type) {
		case ipc.Status:
			res.statuses = append(res.statuses, m.Text)
		case ipc.Progress:
			res.progress = append(res.progress, m.Percent)
		case ipc.Summary:
			s := m
			res.summary = &s
		case ipc.FeedbackReq:
			res.prompts = append(res.prompts, m)
			if m.Kind == feedback.Fatal {
				continue
			}
			require.NotNil(t, answer, "unexpected prompt: %s", m.Text)
			require.NoError(t, replies.Send(ipc.Reply{Response: answer(m)}))
		}
	}
	res.code = <-done
	repW.Close()
	return res
}

// always answers every prompt with r.
func always(r feedback.Response) answerFunc {
	return func(ipc.FeedbackReq) feedback.Response { return r }
}

// copyReq builds a request with a small buffer so multi-chunk copies are
// cheap to produce.
func copyReq(kind op.Kind, workDir, destDir string, sources ...string) op.Request {
	return op.Request{
		Kind:         kind,
		WorkDir:      workDir,
		Sources:      sources,
		DestDir:      destDir,
		BufferBlocks: 1,
		PathWidth:    4096,
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func inode(t *testing.T, path string) uint64 {
	t.Helper()
	info, err := os.Lstat(path)
	require.NoError(t, err)
	st, ok := info.Sys().(*syscall.Stat_t)
	require.True(t, ok)
	return st.Ino
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/251)
	}
	return b
}

// requireConverged checks that progress never decreased and ended at 100.
func requireConverged(t *testing.T, res result) {
	t.Helper()
	require.NotEmpty(t, res.progress)
	last := ipc.Indeterminate
	for _, p := range res.progress {
		if p == ipc.Indeterminate {
			require.Equal(t, ipc.Indeterminate, last, "indeterminate after a real percentage")
			continue
		}
		require.GreaterOrEqual(t, p, last)
		require.LessOrEqual(t, p, 100)
		last = p
	}
	require.Equal(t, 100, last)
}
