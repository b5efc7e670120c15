package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/bamsammich/fileop/internal/ipc"
)

var errNoRequest = errors.New("first message was not a request")

// RunProcess is the entry point of a re-executed worker process. It
// recovers both pipe ends from the inherited descriptors, reads the
// request and performs it. A returned error means the operation never
// started.
func RunProcess() error {
	replies, err := inheritedFile(ipc.ReplyFDEnv, "fileop-replies")
	if err != nil {
		return err
	}
	defer replies.Close()
	msgs, err := inheritedFile(ipc.MessageFDEnv, "fileop-messages")
	if err != nil {
		return err
	}
	defer msgs.Close()

	m, err := ipc.NewReader(replies).Next()
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}
	rm, ok := m.(ipc.RequestMsg)
	if !ok {
		return fmt.Errorf("%w: %T", errNoRequest, m)
	}
	if err := rm.Request.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	logger := slog.Default().With("op_id", os.Getenv(ipc.OpIDEnv), "pid", os.Getpid())
	w := New(Config{
		Request:  rm.Request,
		Messages: msgs,
		Replies:  replies,
		Exit:     os.Exit,
		Logger:   logger,
	})

	// Ctrl-C belongs to the controller, which confirms before cancelling.
	signal.Ignore(syscall.SIGINT)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		for range sigCh {
			w.RequestCancel()
		}
	}()

	w.Run()
	signal.Stop(sigCh)
	return nil
}

func inheritedFile(env, name string) (*os.File, error) {
	s := os.Getenv(env)
	if s == "" {
		return nil, fmt.Errorf("worker mode requires %s", env)
	}
	fd, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid fd %q in %s: %w", s, env, err)
	}
	f := os.NewFile(uintptr(fd), name) //nolint:gosec // fd from trusted parent
	if f == nil {
		return nil, fmt.Errorf("invalid file descriptor %d", fd)
	}
	return f, nil
}

// LogLevel parses the level passed in ipc.LogLevelEnv, defaulting to warn.
func LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(os.Getenv(ipc.LogLevelEnv))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}
