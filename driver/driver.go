// Package driver builds and runs the external binaries on a target.
//
// Build failures, run failures and background processes are handled here so that the sweep engine only
// sees typed errors and never holds a process handle of its own.
package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ryanleh/crowdsurf/target"
)

// BuildTarget names a build step and the command that performs it.
type BuildTarget struct {
	Name    string
	Command target.Command
}

// BuildFailure is a build command that could not be launched or exited nonzero.
type BuildFailure struct {
	Target string
	Result *target.ProcessResult
	Err    error
}

func (e *BuildFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("building %s failed: %s", e.Target, e.Err)
	}
	return fmt.Sprintf("building %s failed with exit code %d", e.Target, e.Result.ExitCode)
}

func (e *BuildFailure) Unwrap() error {
	return e.Err
}

// RunFailure is a benchmark command that could not be launched or exited nonzero. Stdout and Stderr are
// whatever was captured.
type RunFailure struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *RunFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("running %q failed: %s", e.Command, e.Err)
	}
	return fmt.Sprintf("running %q failed with exit code %d", e.Command, e.ExitCode)
}

func (e *RunFailure) Unwrap() error {
	return e.Err
}

type Driver struct {
	target target.Target
	// Build outcomes for this session, keyed by build target name. A failed build is not retried.
	built map[string]error
}

func New(t target.Target) *Driver {
	return &Driver{target: t, built: map[string]error{}}
}

func (d *Driver) Target() target.Target {
	return d.target
}

// Build runs the build command of bt once per session and returns the same outcome on later calls.
func (d *Driver) Build(ctx context.Context, bt BuildTarget) error {
	if err, ok := d.built[bt.Name]; ok {
		return err
	}
	err := d.build(ctx, bt)
	d.built[bt.Name] = err
	return err
}

func (d *Driver) build(ctx context.Context, bt BuildTarget) error {
	slog.Info("building", slog.String("target", bt.Name), slog.String("on", d.target.Name()))
	slog.Debug("build command", slog.String("target", bt.Name), slog.String("command", bt.Command.String()))

	res, err := d.target.Run(ctx, bt.Command)
	if err != nil {
		bf := &BuildFailure{Target: bt.Name, Result: res, Err: err}
		logFailure("build failed", res, slog.String("target", bt.Name), slog.String("error", err.Error()))
		return bf
	}
	if res.ExitCode != 0 {
		logFailure("build failed", res, slog.String("target", bt.Name), slog.Int("exitCode", res.ExitCode))
		return &BuildFailure{Target: bt.Name, Result: res}
	}
	slog.Info("finished building", slog.String("target", bt.Name))
	return nil
}

// Run executes cmd in the foreground. A nonzero exit is a *RunFailure carrying both streams.
func (d *Driver) Run(ctx context.Context, cmd target.Command) (*target.ProcessResult, error) {
	line := cmd.String()
	slog.Debug("running command", slog.String("command", line))

	res, err := d.target.Run(ctx, cmd)
	if err != nil {
		rf := &RunFailure{Command: line, Err: err}
		if res != nil {
			rf.Stdout, rf.Stderr = res.Stdout, res.Stderr
		}
		logFailure("running command failed", res, slog.String("command", line), slog.String("error", err.Error()))
		return res, rf
	}
	if res.ExitCode != 0 {
		logFailure("running command failed", res, slog.String("command", line), slog.Int("exitCode", res.ExitCode))
		return res, &RunFailure{Command: line, ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}
	}
	slog.Debug("running command finished", slog.String("command", line), slog.String("output", res.Stdout))
	return res, nil
}

// RunWithBackground starts bg, runs fg, and stops bg before returning on every path.
func (d *Driver) RunWithBackground(ctx context.Context, bg, fg target.Command) (*target.ProcessResult, error) {
	var res *target.ProcessResult
	err := WithBackground(ctx, d.target, bg, func() error {
		var err error
		res, err = d.Run(ctx, fg)
		return err
	})
	return res, err
}

func logFailure(msg string, res *target.ProcessResult, attrs ...any) {
	if res != nil {
		attrs = append(attrs, slog.String("stdout", res.Stdout), slog.String("stderr", res.Stderr))
	}
	slog.Error(msg, attrs...)
}
