package profile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/ryanleh/crowdsurf/benchmark"
	"github.com/ryanleh/crowdsurf/target"
	"github.com/ryanleh/crowdsurf/util"
)

// heap collects Go heap profiles through the benchmark binary's -memprofile flag.
type heap struct {
	target  target.Target
	saveDir string
}

func init() {
	RegisterProfiler(Heap, NewHeap)
}

func NewHeap(t target.Target, saveDir string) Profiler {
	return &heap{target: t, saveDir: saveDir}
}

func (h *heap) SetUp(ctx context.Context) error {
	if err := os.MkdirAll(h.saveDir, os.ModePerm); err != nil {
		return fmt.Errorf("creating profile dir failed: %w", err)
	}
	return nil
}

func (h *heap) Instrument(cfg *benchmark.Configuration) string {
	// Relative to the benchmark's working directory on the target.
	p := fmt.Sprintf("mem-%s.prof", util.Randstring(8))
	cfg.MemProfile = p
	return p
}

func (h *heap) Collect(label, remotePath string) (string, error) {
	localPath := path.Join(h.saveDir, label+"-"+path.Base(remotePath))
	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open local profile path for writing: %w", err)
	}
	defer f.Close()
	if err := h.target.CopyFileFrom(remotePath, f); err != nil {
		return "", fmt.Errorf("failed to copy heap profile: %w", err)
	}
	slog.Debug("collected heap profile", slog.String("remote", remotePath), slog.String("local", localPath))
	return localPath, nil
}
