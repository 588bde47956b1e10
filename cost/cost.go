// Package cost turns measured hint latency and PIR batch capacity into per-query cost estimates for the
// CrowdSurf deployment (CPU hint-compression cluster plus GPU PIR cluster) and for the all-CPU baseline.
package cost

import (
	"fmt"
	"math"

	"github.com/ryanleh/crowdsurf/config"
)

// Seconds of one machine divided by secondsPerCent, times an hourly dollar price, gives US cents.
const secondsPerCent = 36.0

// Estimate is derived entirely from a shard profile, the two measurements and the price table.
// Costs are in US cents.
type Estimate struct {
	HintSeconds float64 `json:"hint_seconds"`
	HintCost    float64 `json:"hint_cost"`
	PIRSeconds  float64 `json:"pir_seconds"`
	PIRCost     float64 `json:"pir_cost"`
	TotalCost   float64 `json:"total_cost"`
}

// Round returns a copy with every field rounded to places decimals. Only call it when presenting.
func (e Estimate) Round(places int) Estimate {
	r := func(v float64) float64 {
		p := math.Pow(10, float64(places))
		return math.Round(v*p) / p
	}
	return Estimate{
		HintSeconds: r(e.HintSeconds),
		HintCost:    r(e.HintCost),
		PIRSeconds:  r(e.PIRSeconds),
		PIRCost:     r(e.PIRCost),
		TotalCost:   r(e.TotalCost),
	}
}

// PreconditionFailure is returned when an input the caller must guarantee is invalid.
type PreconditionFailure struct {
	Reason string
}

func (p *PreconditionFailure) Error() string {
	return "cost model precondition violated: " + p.Reason
}

type Model struct {
	shards map[config.ShardType]config.ShardProfile
	prices map[config.InstanceClass]float64
}

func NewModel(shards map[config.ShardType]config.ShardProfile, prices map[config.InstanceClass]float64) *Model {
	return &Model{shards: shards, prices: prices}
}

func NewModelFromConfig(cfg *config.Config) *Model {
	return NewModel(cfg.ShardTypes(), cfg.Prices())
}

// PerShard estimates the cost of one shard type when PIR runs on instanceClass. Hint compression always
// runs on CPU machines.
func (m *Model) PerShard(shardType config.ShardType, batchCapacity uint64, hintLatencyMs float64, instanceClass config.InstanceClass) (Estimate, error) {
	shard, ok := m.shards[shardType]
	if !ok {
		return Estimate{}, &PreconditionFailure{Reason: fmt.Sprintf("unknown shard type %q", shardType)}
	}
	pirPrice, ok := m.prices[instanceClass]
	if !ok {
		return Estimate{}, &PreconditionFailure{Reason: fmt.Sprintf("no price for instance class %q", instanceClass)}
	}
	cpuPrice, ok := m.prices[config.CPU]
	if !ok {
		return Estimate{}, &PreconditionFailure{Reason: "no price for instance class \"cpu\""}
	}
	if batchCapacity == 0 {
		return Estimate{}, &PreconditionFailure{Reason: fmt.Sprintf("batch capacity of %s shard must be positive", shardType)}
	}
	if hintLatencyMs < 0 || math.IsNaN(hintLatencyMs) {
		return Estimate{}, &PreconditionFailure{Reason: fmt.Sprintf("hint latency must not be negative, got %v", hintLatencyMs)}
	}
	if shard.QueriesPerClient == 0 {
		return Estimate{}, &PreconditionFailure{Reason: fmt.Sprintf("%s shard has no queries per client", shardType)}
	}

	hintSeconds := hintLatencyMs / 1000 * float64(shard.HintShards)
	hintCost := hintSeconds / secondsPerCent * cpuPrice

	clientsPerHintRound := float64(batchCapacity) / float64(shard.QueriesPerClient)
	pirSeconds := hintLatencyMs / 1000 * float64(shard.PIRShards) / clientsPerHintRound
	pirCost := pirSeconds / secondsPerCent * pirPrice

	return Estimate{
		HintSeconds: hintSeconds,
		HintCost:    hintCost,
		PIRSeconds:  pirSeconds,
		PIRCost:     pirCost,
		TotalCost:   hintCost + pirCost,
	}, nil
}

// Combine weights the full-database estimate by weight and the popular one by 1 - weight. The weight is
// the worst-case rate at which full-database traffic correlates with popular traffic.
func Combine(popular, full Estimate, weight float64) (Estimate, error) {
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return Estimate{}, &PreconditionFailure{Reason: fmt.Sprintf("correlation weight must lie in [0, 1], got %v", weight)}
	}
	mix := func(p, f float64) float64 {
		return weight*f + (1-weight)*p
	}
	return Estimate{
		HintSeconds: mix(popular.HintSeconds, full.HintSeconds),
		HintCost:    mix(popular.HintCost, full.HintCost),
		PIRSeconds:  mix(popular.PIRSeconds, full.PIRSeconds),
		PIRCost:     mix(popular.PIRCost, full.PIRCost),
		TotalCost:   mix(popular.TotalCost, full.TotalCost),
	}, nil
}
