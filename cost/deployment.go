package cost

import (
	"fmt"

	"github.com/ryanleh/crowdsurf/config"
)

// Measurement is what an e2e run (or a recorded one) reports for a shard type.
type Measurement struct {
	Type          config.ShardType
	HintLatencyMs float64
	BatchCapacity uint64
}

// Deployment compares the all-CPU baseline with CrowdSurf, whose cost is the popular and full shard
// estimates combined under the correlation weight.
type Deployment struct {
	Baseline  Estimate
	Popular   Estimate
	Full      Estimate
	CrowdSurf Estimate
}

// Deployment prices the baseline on CPU machines and the popular and full shards on GPU machines.
func (m *Model) Deployment(measurements []Measurement, weight float64) (*Deployment, error) {
	byType := map[config.ShardType]Measurement{}
	for _, ms := range measurements {
		if _, dup := byType[ms.Type]; dup {
			return nil, &PreconditionFailure{Reason: fmt.Sprintf("duplicate measurement for %s shard", ms.Type)}
		}
		byType[ms.Type] = ms
	}

	estimate := func(t config.ShardType, class config.InstanceClass) (Estimate, error) {
		ms, ok := byType[t]
		if !ok {
			return Estimate{}, &PreconditionFailure{Reason: fmt.Sprintf("no measurement for %s shard", t)}
		}
		return m.PerShard(t, ms.BatchCapacity, ms.HintLatencyMs, class)
	}

	d := &Deployment{}
	var err error
	if d.Baseline, err = estimate(config.Baseline, config.CPU); err != nil {
		return nil, err
	}
	if d.Popular, err = estimate(config.Popular, config.GPU); err != nil {
		return nil, err
	}
	if d.Full, err = estimate(config.Full, config.GPU); err != nil {
		return nil, err
	}
	if d.CrowdSurf, err = Combine(d.Popular, d.Full, weight); err != nil {
		return nil, err
	}
	return d, nil
}

// Recorded converts the recorded measurements of a config into cost model inputs.
func Recorded(cfg *config.Config) []Measurement {
	out := make([]Measurement, 0, len(cfg.Cost.Recorded))
	for _, r := range cfg.Cost.Recorded {
		out = append(out, Measurement{Type: r.Type, HintLatencyMs: r.HintLatencyMs, BatchCapacity: r.BatchCapacity})
	}
	return out
}
