package config

import (
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/hashicorp/go-version"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML (or JSON) file at path onto Default and validates the result. Lists in the
// file replace the default lists wholesale.
func LoadFile(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromBuf(buf)
}

func LoadFromBuf(buf []byte) (*Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		ZeroFields:  true,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("can't convert config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Widths) == 0 {
		return fmt.Errorf("no modulus widths configured")
	}
	seenWidths := []int{}
	for _, w := range c.Widths {
		if w.LogQ != 32 && w.LogQ != 64 {
			return fmt.Errorf("modulus width must be 32 or 64, got %d", w.LogQ)
		}
		if slices.Contains(seenWidths, w.LogQ) {
			return fmt.Errorf("duplicate modulus width: %d", w.LogQ)
		}
		seenWidths = append(seenWidths, w.LogQ)
		if len(w.Points) == 0 {
			return fmt.Errorf("modulus width %d has no sizes", w.LogQ)
		}
		for i, p := range w.Points {
			if p.SizeGB <= 0 || p.P < 2 || p.SqrtN == 0 {
				return fmt.Errorf("modulus width %d: invalid size point %+v", w.LogQ, p)
			}
			if i > 0 && p.SizeGB <= w.Points[i-1].SizeGB {
				return fmt.Errorf("modulus width %d: sizes must be strictly ascending", w.LogQ)
			}
		}
	}
	// Widths run in ascending order.
	if !slices.IsSorted(seenWidths) {
		return fmt.Errorf("modulus widths must be listed in ascending order")
	}

	if c.Query.HybridIters < 0 || c.Preprocessing.HybridIters < 0 {
		return fmt.Errorf("iteration counts must not be negative")
	}
	if err := c.validateHistorical(); err != nil {
		return err
	}

	if len(c.Batching.BatchSizes) == 0 {
		return fmt.Errorf("no batch sizes configured")
	}
	for i, bs := range c.Batching.BatchSizes {
		if bs <= 0 || (i > 0 && bs <= c.Batching.BatchSizes[i-1]) {
			return fmt.Errorf("batch sizes must be positive and strictly ascending")
		}
	}

	if err := c.validateCost(); err != nil {
		return err
	}

	if _, err := version.NewVersion(c.Build.MinGoVersion); err != nil {
		return fmt.Errorf("can't parse minimum go version: %w", err)
	}
	if c.Build.BinaryName == "" || c.Build.HintTarget == "" {
		return fmt.Errorf("binary name and hint target are required")
	}
	if c.E2E.PIRPort <= 0 || c.E2E.HintPort <= 0 {
		return fmt.Errorf("e2e ports must be positive")
	}
	return nil
}

func (c *Config) validateHistorical() error {
	for _, w := range c.Widths {
		h, ok := c.Historical(w.LogQ)
		if !ok {
			return fmt.Errorf("no historical preprocessing throughput for modulus width %d", w.LogQ)
		}
		want := []float64{}
		sampled := false
		for _, p := range w.Points {
			if !c.Excluded(p.SizeGB) {
				want = append(want, p.SizeGB)
				sampled = sampled || c.Sampled(p.SizeGB)
			}
		}
		if !sampled {
			return fmt.Errorf("no baseline sample size for modulus width %d", w.LogQ)
		}
		got := []float64{}
		for _, p := range h.Points {
			if p.ThroughputGBps <= 0 {
				return fmt.Errorf("historical throughput for modulus width %d must be positive", w.LogQ)
			}
			got = append(got, p.SizeGB)
		}
		if !slices.Equal(want, got) {
			return fmt.Errorf("historical throughput for modulus width %d covers sizes %v, want %v", w.LogQ, got, want)
		}
	}
	return nil
}

func (c *Config) validateCost() error {
	w := c.Cost.CorrelationWeight
	if math.IsNaN(w) || w < 0 || w > 1 {
		return fmt.Errorf("correlation weight must lie in [0, 1], got %v", w)
	}
	for _, t := range AllShardTypes {
		s, err := c.Shard(t)
		if err != nil {
			return err
		}
		if s.QueriesPerClient == 0 || s.Rows == 0 || s.Cols == 0 || s.P < 2 || s.HintShards <= 0 || s.PIRShards <= 0 {
			return fmt.Errorf("invalid shard profile %+v", s)
		}
	}
	if len(c.ShardTypes()) != len(c.Cost.Shards) {
		return fmt.Errorf("duplicate shard type")
	}
	for _, class := range []InstanceClass{CPU, GPU} {
		p, err := c.Price(class)
		if err != nil {
			return err
		}
		if p.DollarsPerHr <= 0 {
			return fmt.Errorf("price for %s must be positive", class)
		}
	}
	if len(c.Prices()) != len(c.Cost.Pricing) {
		return fmt.Errorf("duplicate instance class")
	}
	for _, r := range c.Cost.Recorded {
		if _, err := c.Shard(r.Type); err != nil {
			return fmt.Errorf("recorded measurement: %w", err)
		}
	}
	for _, p := range []int{c.Cost.BaselinePrecision, c.Cost.ShardPrecision, c.Cost.CombinedPrecision} {
		if p < 0 || p > 15 {
			return fmt.Errorf("precision must lie in [0, 15], got %d", p)
		}
	}
	return nil
}
