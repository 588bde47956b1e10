// Package config holds the static tables the harness runs from: the database parameter matrix, shard
// profiles, historical baselines and instance prices. A Config is built once at startup, validated, and
// passed to the components that need it.
package config

import (
	"fmt"
	"slices"
)

type ShardType string

const (
	Popular  ShardType = "popular"
	Full     ShardType = "full"
	Baseline ShardType = "baseline"
)

var AllShardTypes = []ShardType{Popular, Full, Baseline}

type InstanceClass string

const (
	CPU InstanceClass = "cpu"
	GPU InstanceClass = "gpu"
)

// SizePoint is one database size of the sweep matrix for a given modulus width.
type SizePoint struct {
	SizeGB float64 `mapstructure:"size_gb"`
	P      uint64  `mapstructure:"p"`
	SqrtN  uint64  `mapstructure:"sqrt_n"`
}

type Width struct {
	LogQ   int         `mapstructure:"log_q"`
	Points []SizePoint `mapstructure:"points"`
}

type HistoricalPoint struct {
	SizeGB         float64 `mapstructure:"size_gb"`
	ThroughputGBps float64 `mapstructure:"throughput_gbps"`
}

type HistoricalSeries struct {
	LogQ   int               `mapstructure:"log_q"`
	Points []HistoricalPoint `mapstructure:"points"`
}

type QueryConfig struct {
	HybridIters int `mapstructure:"hybrid_iters"`
}

type PreprocessingConfig struct {
	HybridIters int `mapstructure:"hybrid_iters"`
	// Sizes that were never benchmarked and are skipped for every width.
	ExcludedSizesGB []float64 `mapstructure:"excluded_sizes_gb"`
	// Sizes at which the baseline is remeasured unless full remeasurement is forced.
	BaselineSampleSizesGB []float64          `mapstructure:"baseline_sample_sizes_gb"`
	Historical            []HistoricalSeries `mapstructure:"historical"`
}

type BatchingConfig struct {
	BatchSizes []int  `mapstructure:"batch_sizes"`
	Packing    string `mapstructure:"packing"`
}

// ShardProfile describes one shard type of the deployment: the bucket a client queries and how many
// machines serve it.
type ShardProfile struct {
	Type             ShardType `mapstructure:"type"`
	QueriesPerClient uint64    `mapstructure:"queries_per_client"`
	Rows             uint64    `mapstructure:"rows"`
	Cols             uint64    `mapstructure:"cols"`
	P                uint64    `mapstructure:"p"`
	Bits             uint64    `mapstructure:"bits"`
	Buckets          int       `mapstructure:"buckets"`
	HintShards       int       `mapstructure:"hint_shards"`
	PIRShards        int       `mapstructure:"pir_shards"`
}

type Price struct {
	Class        InstanceClass `mapstructure:"class"`
	DollarsPerHr float64       `mapstructure:"dollars_per_hour"`
	// Optional EC2 instance type backing the class, checked by instance_catalog.
	InstanceType string `mapstructure:"instance_type"`
	RequiresGPU  bool   `mapstructure:"requires_gpu"`
}

// Recorded is a set of past e2e measurements for the offline cost table.
type Recorded struct {
	Type          ShardType `mapstructure:"type"`
	HintLatencyMs float64   `mapstructure:"hint_latency_ms"`
	BatchCapacity uint64    `mapstructure:"batch_capacity"`
}

type CostConfig struct {
	CorrelationWeight float64        `mapstructure:"correlation_weight"`
	Shards            []ShardProfile `mapstructure:"shards"`
	Pricing           []Price        `mapstructure:"pricing"`
	Recorded          []Recorded     `mapstructure:"recorded"`
	BaselinePrecision int            `mapstructure:"baseline_precision"`
	ShardPrecision    int            `mapstructure:"shard_precision"`
	CombinedPrecision int            `mapstructure:"combined_precision"`
}

type BuildConfig struct {
	MinGoVersion string `mapstructure:"min_go_version"`
	BenchDir     string `mapstructure:"bench_dir"`
	ClientDir    string `mapstructure:"client_dir"`
	HintDir      string `mapstructure:"hint_dir"`
	HintTarget   string `mapstructure:"hint_target"`
	BinaryName   string `mapstructure:"binary_name"`
}

type E2EConfig struct {
	PIRPort  int `mapstructure:"pir_port"`
	HintPort int `mapstructure:"hint_port"`
}

type Config struct {
	Widths        []Width             `mapstructure:"widths"`
	Query         QueryConfig         `mapstructure:"query"`
	Preprocessing PreprocessingConfig `mapstructure:"preprocessing"`
	Batching      BatchingConfig      `mapstructure:"batching"`
	Cost          CostConfig          `mapstructure:"cost"`
	Build         BuildConfig         `mapstructure:"build"`
	E2E           E2EConfig           `mapstructure:"e2e"`
}

func (c *Config) Width(logQ int) (Width, bool) {
	for _, w := range c.Widths {
		if w.LogQ == logQ {
			return w, true
		}
	}
	return Width{}, false
}

func (c *Config) Shard(t ShardType) (ShardProfile, error) {
	for _, s := range c.Cost.Shards {
		if s.Type == t {
			return s, nil
		}
	}
	return ShardProfile{}, fmt.Errorf("unknown shard type: %s", t)
}

func (c *Config) Price(class InstanceClass) (Price, error) {
	for _, p := range c.Cost.Pricing {
		if p.Class == class {
			return p, nil
		}
	}
	return Price{}, fmt.Errorf("unknown instance class: %s", class)
}

func (c *Config) Historical(logQ int) (HistoricalSeries, bool) {
	for _, h := range c.Preprocessing.Historical {
		if h.LogQ == logQ {
			return h, true
		}
	}
	return HistoricalSeries{}, false
}

// Excluded reports whether the preprocessing sweep skips sizeGB.
func (c *Config) Excluded(sizeGB float64) bool {
	return slices.Contains(c.Preprocessing.ExcludedSizesGB, sizeGB)
}

// Sampled reports whether the preprocessing baseline is remeasured at sizeGB by default.
func (c *Config) Sampled(sizeGB float64) bool {
	return slices.Contains(c.Preprocessing.BaselineSampleSizesGB, sizeGB)
}

// ShardTypes returns the shard profiles keyed by type for the cost model.
func (c *Config) ShardTypes() map[ShardType]ShardProfile {
	out := make(map[ShardType]ShardProfile, len(c.Cost.Shards))
	for _, s := range c.Cost.Shards {
		out[s.Type] = s
	}
	return out
}

// Prices returns the hourly price per instance class for the cost model.
func (c *Config) Prices() map[InstanceClass]float64 {
	out := make(map[InstanceClass]float64, len(c.Cost.Pricing))
	for _, p := range c.Cost.Pricing {
		out[p.Class] = p.DollarsPerHr
	}
	return out
}
