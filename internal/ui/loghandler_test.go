package ui_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fileop/internal/ui"
)

// consoleAndLog mirrors the CLI setup: terse text on the console and a
// debug-level JSON log file.
func consoleAndLog(level slog.Level) (*slog.Logger, *bytes.Buffer, *bytes.Buffer) {
	var console, logFile bytes.Buffer
	h := ui.NewMultiHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(&logFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return slog.New(h), &console, &logFile
}

func jsonRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var recs []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), sc.Text())
		recs = append(recs, rec)
	}
	return recs
}

func TestMultiHandler_ConsoleLevelLogFileEverything(t *testing.T) {
	t.Parallel()

	logger, console, logFile := consoleAndLog(slog.LevelWarn)
	logger.Debug("worker started", "sources", 3)
	logger.Info("feedback requested", "kind", "ContinueOrSkip")
	logger.Warn("restoring directory mode", "path", "/tmp/d")

	assert.NotContains(t, console.String(), "worker started")
	assert.NotContains(t, console.String(), "feedback requested")
	assert.Contains(t, console.String(), "restoring directory mode")
	assert.Contains(t, console.String(), "path=/tmp/d")

	recs := jsonRecords(t, logFile)
	require.Len(t, recs, 3)
	assert.Equal(t, "worker started", recs[0]["msg"])
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.Equal(t, float64(3), recs[0]["sources"])
	assert.Equal(t, "ContinueOrSkip", recs[1]["kind"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	quiet := ui.NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	ctx := context.Background()
	assert.True(t, quiet.Enabled(ctx, slog.LevelWarn))
	assert.False(t, quiet.Enabled(ctx, slog.LevelInfo))
	assert.False(t, ui.NewMultiHandler().Enabled(ctx, slog.LevelError))
}

func TestMultiHandler_AttrsAndGroupsReachEveryHandler(t *testing.T) {
	t.Parallel()

	logger, console, logFile := consoleAndLog(slog.LevelInfo)
	logger.With("op", "move").WithGroup("reply").Info("answered", "response", "SkipIgnoreAll")

	assert.Contains(t, console.String(), "op=move")
	assert.Contains(t, console.String(), "reply.response=SkipIgnoreAll")

	recs := jsonRecords(t, logFile)
	require.Len(t, recs, 1)
	assert.Equal(t, "move", recs[0]["op"])
	group, ok := recs[0]["reply"].(map[string]any)
	require.True(t, ok, "expected group reply in %v", recs[0])
	assert.Equal(t, "SkipIgnoreAll", group["response"])
}

type failingHandler struct{ slog.Handler }

var errSinkGone = errors.New("log sink gone")

func (failingHandler) Handle(context.Context, slog.Record) error { return errSinkGone }

func TestMultiHandler_FailureDoesNotStarveOthers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	good := slog.NewTextHandler(&buf, nil)
	bad := failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)}
	h := ui.NewMultiHandler(bad, good)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "cancelled at checkpoint", 0)
	err := h.Handle(context.Background(), r)
	require.ErrorIs(t, err, errSinkGone)
	assert.Contains(t, buf.String(), "cancelled at checkpoint")
}
