package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ryanleh/crowdsurf/target"
)

// WithBackground starts bg on t, calls fn, and stops bg on every way out of fn, including a panic.
// When WithBackground returns, the background process is no longer running.
func WithBackground(ctx context.Context, t target.Target, bg target.Command, fn func() error) (err error) {
	line := bg.String()
	proc, err := t.Start(ctx, bg)
	if err != nil {
		return &RunFailure{Command: line, Err: err}
	}
	defer func() {
		stopErr := proc.Stop()
		if stopErr == nil && proc.Running() {
			stopErr = fmt.Errorf("background process %q still running after stop", line)
		}
		if stopErr != nil {
			slog.Error("stopping background process failed", slog.String("command", line), slog.String("error", stopErr.Error()))
			err = errors.Join(err, stopErr)
			return
		}
		slog.Debug("stopped background process", slog.String("command", line))
	}()
	return fn()
}
