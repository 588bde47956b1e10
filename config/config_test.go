package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	w, ok := cfg.Width(32)
	require.True(t, ok)
	assert.Len(t, w.Points, 6)
	assert.Equal(t, uint64(1186), w.Points[0].P)
	assert.True(t, cfg.Excluded(3))
	assert.False(t, cfg.Excluded(4))
	assert.True(t, cfg.Sampled(0.25))

	full, err := cfg.Shard(Full)
	require.NoError(t, err)
	assert.Equal(t, 16, full.PIRShards)

	assert.Equal(t, 3.1, cfg.Prices()[GPU])
}

func TestLoadFromBuf(t *testing.T) {
	t.Run("overlay", func(t *testing.T) {
		yaml := `
widths:
  - log_q: 32
    points:
      - {size_gb: 0.25, p: 1186, sqrt_n: 14331}
      - {size_gb: 0.5, p: 997, sqrt_n: 20519}
preprocessing:
  excluded_sizes_gb: []
  historical:
    - log_q: 32
      points:
        - {size_gb: 0.25, throughput_gbps: 0.002}
        - {size_gb: 0.5, throughput_gbps: 0.001}
cost:
  correlation_weight: 0.5
`
		cfg, err := LoadFromBuf([]byte(yaml))
		require.NoError(t, err)
		require.Len(t, cfg.Widths, 1)
		assert.Len(t, cfg.Widths[0].Points, 2)
		assert.Empty(t, cfg.Preprocessing.ExcludedSizesGB)
		assert.Equal(t, 0.5, cfg.Cost.CorrelationWeight)
		// untouched sections keep their defaults
		assert.Equal(t, 5, cfg.Query.HybridIters)
		assert.Len(t, cfg.Cost.Shards, 3)
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := LoadFromBuf([]byte(`{"batching": {"batch_sizes": [8, 16]}}`))
		require.NoError(t, err)
		assert.Equal(t, []int{8, 16}, cfg.Batching.BatchSizes)
	})

	t.Run("weight out of range", func(t *testing.T) {
		_, err := LoadFromBuf([]byte("cost:\n  correlation_weight: 1.5\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "correlation weight")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadFromBuf([]byte("widthz: []\n"))
		require.Error(t, err)
	})

	t.Run("historical must cover swept sizes", func(t *testing.T) {
		_, err := LoadFromBuf([]byte("preprocessing:\n  excluded_sizes_gb: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "historical throughput")
	})

	t.Run("every width needs a baseline sample", func(t *testing.T) {
		_, err := LoadFromBuf([]byte("preprocessing:\n  baseline_sample_sizes_gb: [3]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "baseline sample")
	})

	t.Run("descending sizes", func(t *testing.T) {
		yaml := `
widths:
  - log_q: 64
    points:
      - {size_gb: 1, p: 65378890, sqrt_n: 18190}
      - {size_gb: 0.5, p: 77749042, sqrt_n: 12650}
`
		_, err := LoadFromBuf([]byte(yaml))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ascending")
	})

	t.Run("missing shard", func(t *testing.T) {
		yaml := `
cost:
  shards:
    - {type: popular, queries_per_client: 8, rows: 8, cols: 164408, p: 593, hint_shards: 1, pir_shards: 1}
`
		_, err := LoadFromBuf([]byte(yaml))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown shard type")
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query:\n  hybrid_iters: 3\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Query.HybridIters)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
