package cost

import (
	"testing"

	"github.com/ryanleh/crowdsurf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() *Model {
	return NewModelFromConfig(config.Default())
}

func TestPerShard(t *testing.T) {
	m := testModel()

	t.Run("baseline numbers", func(t *testing.T) {
		e, err := m.PerShard(config.Baseline, 21, 529, config.CPU)
		require.NoError(t, err)
		assert.InDelta(t, 3.174, e.HintSeconds, 1e-12)
		assert.InDelta(t, 0.03174, e.HintCost, 1e-12)
		assert.InDelta(t, 0.529*24/10.5, e.PIRSeconds, 1e-12)
		assert.InDelta(t, 0.529*24/10.5/36*0.36, e.PIRCost, 1e-12)
		assert.InDelta(t, e.HintCost+e.PIRCost, e.TotalCost, 1e-15)

		assert.Equal(t, Estimate{
			HintSeconds: 3.174,
			HintCost:    0.032,
			PIRSeconds:  1.209,
			PIRCost:     0.012,
			TotalCost:   0.044,
		}, e.Round(3))
	})

	t.Run("gpu pricing only applies to pir", func(t *testing.T) {
		cpu, err := m.PerShard(config.Popular, 1300, 526, config.CPU)
		require.NoError(t, err)
		gpu, err := m.PerShard(config.Popular, 1300, 526, config.GPU)
		require.NoError(t, err)
		assert.Equal(t, cpu.HintCost, gpu.HintCost)
		assert.InDelta(t, cpu.PIRCost*3.1/0.36, gpu.PIRCost, 1e-15)
	})

	t.Run("monotonic in hint latency", func(t *testing.T) {
		for _, st := range config.AllShardTypes {
			prev, err := m.PerShard(st, 100, 0, config.GPU)
			require.NoError(t, err)
			for ms := 1.0; ms <= 2000; ms *= 1.7 {
				e, err := m.PerShard(st, 100, ms, config.GPU)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, e.HintSeconds, prev.HintSeconds)
				assert.GreaterOrEqual(t, e.HintCost, prev.HintCost)
				assert.GreaterOrEqual(t, e.PIRSeconds, prev.PIRSeconds)
				assert.GreaterOrEqual(t, e.PIRCost, prev.PIRCost)
				assert.GreaterOrEqual(t, e.TotalCost, prev.TotalCost)
				prev = e
			}
		}
	})

	t.Run("zero capacity", func(t *testing.T) {
		_, err := m.PerShard(config.Full, 0, 475, config.GPU)
		var pf *PreconditionFailure
		require.ErrorAs(t, err, &pf)
	})

	t.Run("unknown shard and class", func(t *testing.T) {
		var pf *PreconditionFailure
		_, err := m.PerShard("mystery", 1, 1, config.GPU)
		require.ErrorAs(t, err, &pf)
		_, err = m.PerShard(config.Full, 1, 1, "tpu")
		require.ErrorAs(t, err, &pf)
	})
}

func TestCombine(t *testing.T) {
	popular := Estimate{HintSeconds: 0.5, HintCost: 0.005, PIRSeconds: 0.003, PIRCost: 0.0003, TotalCost: 0.0053}
	full := Estimate{HintSeconds: 1.4, HintCost: 0.014, PIRSeconds: 0.08, PIRCost: 0.007, TotalCost: 0.021}

	t.Run("endpoints", func(t *testing.T) {
		got, err := Combine(popular, full, 0)
		require.NoError(t, err)
		assert.Equal(t, popular, got)

		got, err = Combine(popular, full, 1)
		require.NoError(t, err)
		assert.Equal(t, full, got)
	})

	t.Run("affine", func(t *testing.T) {
		for _, w := range []float64{0.01, 0.25, 0.5, 0.9} {
			got, err := Combine(popular, full, w)
			require.NoError(t, err)
			assert.InDelta(t, popular.TotalCost+w*(full.TotalCost-popular.TotalCost), got.TotalCost, 1e-15)
			assert.InDelta(t, popular.HintSeconds+w*(full.HintSeconds-popular.HintSeconds), got.HintSeconds, 1e-15)
			assert.InDelta(t, popular.PIRCost+w*(full.PIRCost-popular.PIRCost), got.PIRCost, 1e-15)
		}
	})

	t.Run("weight out of range", func(t *testing.T) {
		var pf *PreconditionFailure
		_, err := Combine(popular, full, 1.01)
		require.ErrorAs(t, err, &pf)
		_, err = Combine(popular, full, -0.1)
		require.ErrorAs(t, err, &pf)
	})
}

func TestDeployment(t *testing.T) {
	cfg := config.Default()
	m := NewModelFromConfig(cfg)

	d, err := m.Deployment(Recorded(cfg), cfg.Cost.CorrelationWeight)
	require.NoError(t, err)

	base, err := m.PerShard(config.Baseline, 21, 529, config.CPU)
	require.NoError(t, err)
	assert.Equal(t, base, d.Baseline)

	want, err := Combine(d.Popular, d.Full, 0.01)
	require.NoError(t, err)
	assert.Equal(t, want, d.CrowdSurf)
	assert.Less(t, d.CrowdSurf.TotalCost, d.Baseline.TotalCost)

	t.Run("missing shard", func(t *testing.T) {
		_, err := m.Deployment([]Measurement{{Type: config.Popular, HintLatencyMs: 1, BatchCapacity: 1}}, 0.01)
		var pf *PreconditionFailure
		require.ErrorAs(t, err, &pf)
	})
}
