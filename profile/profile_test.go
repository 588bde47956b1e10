package profile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryanleh/crowdsurf/benchmark"
	"github.com/ryanleh/crowdsurf/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfiler(t *testing.T) {
	_, err := NewProfiler(None, target.NewLocalTarget(), t.TempDir())
	require.Error(t, err)

	_, err = NewProfiler("vtune", target.NewLocalTarget(), t.TempDir())
	require.Error(t, err)

	p, err := NewProfiler(Heap, target.NewLocalTarget(), t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, p)

	assert.Equal(t, `"heap", "none"`, ExplainProfilers())
}

func TestHeapProfiler(t *testing.T) {
	saveDir := filepath.Join(t.TempDir(), "profiles")
	p := NewHeap(target.NewLocalTarget(), saveDir)
	require.NoError(t, p.SetUp(context.Background()))

	cfg := benchmark.Configuration{Kind: benchmark.Query, Packing: benchmark.PackingBalanced}
	remote := p.Instrument(&cfg)
	assert.Equal(t, remote, cfg.MemProfile)
	assert.True(t, strings.HasSuffix(remote, ".prof"))

	// The local target reads the "remote" path directly.
	benchDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(benchDir, remote), []byte("heap"), 0o644))

	local, err := p.Collect("query-q32", filepath.Join(benchDir, remote))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(saveDir, "query-q32-"+remote), local)
	buf, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "heap", string(buf))

	_, err = p.Collect("missing", filepath.Join(benchDir, "nope.prof"))
	require.Error(t, err)
}
