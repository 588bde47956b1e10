package driver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/hashicorp/go-version"
	"github.com/ryanleh/crowdsurf/target"
)

var goVersionPattern = regexp.MustCompile(`go version go(\d+(?:\.\d+){0,2})`)

// GoVersion parses the output of `go version`.
func GoVersion(out string) (*version.Version, error) {
	m := goVersionPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("can't find a go version in %q", out)
	}
	return version.NewVersion(m[1])
}

// CheckToolchain requires the target's Go toolchain to be at least minimum. The result counts as the
// "toolchain" build step of the session.
func (d *Driver) CheckToolchain(ctx context.Context, minimum string) error {
	const name = "toolchain"
	if err, ok := d.built[name]; ok {
		return err
	}
	err := d.checkToolchain(ctx, minimum)
	d.built[name] = err
	return err
}

func (d *Driver) checkToolchain(ctx context.Context, minimum string) error {
	want, err := version.NewVersion(minimum)
	if err != nil {
		return fmt.Errorf("can't parse minimum go version: %w", err)
	}
	res, err := d.target.Run(ctx, target.Command{Name: "go", Args: []string{"version"}})
	if err != nil {
		return &BuildFailure{Target: "toolchain", Result: res, Err: err}
	}
	if res.ExitCode != 0 {
		return &BuildFailure{Target: "toolchain", Result: res}
	}
	got, err := GoVersion(res.Stdout)
	if err != nil {
		return &BuildFailure{Target: "toolchain", Result: res, Err: err}
	}
	if got.LessThan(want) {
		return &BuildFailure{Target: "toolchain", Result: res, Err: fmt.Errorf("go %s is older than the required %s", got, want)}
	}
	slog.Debug("go toolchain", slog.String("version", got.String()), slog.String("on", d.target.Name()))
	return nil
}
