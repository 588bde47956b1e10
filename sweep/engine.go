// Package sweep runs the benchmark families point by point and collects their tables.
//
// Points run strictly one after another in a fixed order. A failed point stops its sweep; the rows
// recorded before it are returned together with the error.
package sweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"time"

	"github.com/ryanleh/crowdsurf/benchmark"
	"github.com/ryanleh/crowdsurf/config"
	"github.com/ryanleh/crowdsurf/driver"
	"github.com/ryanleh/crowdsurf/profile"
	"github.com/ryanleh/crowdsurf/target"
	"github.com/schollz/progressbar/v3"
)

// Executor is the part of driver.Driver the engine needs.
type Executor interface {
	Build(ctx context.Context, bt driver.BuildTarget) error
	Run(ctx context.Context, cmd target.Command) (*target.ProcessResult, error)
	RunWithBackground(ctx context.Context, bg, fg target.Command) (*target.ProcessResult, error)
	CheckToolchain(ctx context.Context, minimum string) error
}

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type EngineInput struct {
	Executor Executor
	Config   *config.Config
	// Optional. When set every bench run is instrumented and its profile collected.
	Profiler profile.Profiler
	// Progress bars are written here. Nil disables them.
	Progress io.Writer
	// Used by the e2e peer preflight. Defaults to a net.Dialer with a 5s timeout.
	Dial DialFunc
}

type Engine struct {
	exec     Executor
	cfg      *config.Config
	prof     profile.Profiler
	progress io.Writer
	dial     DialFunc
}

func NewEngine(in *EngineInput) *Engine {
	e := &Engine{
		exec:     in.Executor,
		cfg:      in.Config,
		prof:     in.Profiler,
		progress: in.Progress,
		dial:     in.Dial,
	}
	if e.progress == nil {
		e.progress = io.Discard
	}
	if e.dial == nil {
		d := &net.Dialer{Timeout: 5 * time.Second}
		e.dial = d.DialContext
	}
	return e
}

func (e *Engine) newBar(n int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(e.progress),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
	)
}

func (e *Engine) benchBinary() string {
	return "./" + e.cfg.Build.BinaryName
}

func (e *Engine) buildBench(ctx context.Context) error {
	if err := e.exec.CheckToolchain(ctx, e.cfg.Build.MinGoVersion); err != nil {
		return err
	}
	return e.exec.Build(ctx, driver.BuildTarget{
		Name: "bench",
		Command: target.Command{
			Name: "go",
			Args: []string{"build", "-o", e.cfg.Build.BinaryName, "."},
			Dir:  e.cfg.Build.BenchDir,
		},
	})
}

// runBench runs one bench invocation and returns its stdout along with the local profile path, if any.
func (e *Engine) runBench(ctx context.Context, bc benchmark.Configuration, label string) (string, string, error) {
	var remoteProfile string
	if e.prof != nil {
		remoteProfile = e.prof.Instrument(&bc)
	}
	cmd, err := bc.Command(e.benchBinary(), e.cfg.Build.BenchDir)
	if err != nil {
		return "", "", fmt.Errorf("building bench command failed: %w", err)
	}
	res, err := e.exec.Run(ctx, cmd)
	if err != nil {
		return "", "", err
	}

	var localProfile string
	if e.prof != nil {
		localProfile, err = e.prof.Collect(label, path.Join(e.cfg.Build.BenchDir, remoteProfile))
		if err != nil {
			// The measurement itself is still good.
			slog.Warn("collecting profile failed", slog.String("label", label), slog.String("error", err.Error()))
			localProfile = ""
		}
	}
	return res.Stdout, localProfile, nil
}
