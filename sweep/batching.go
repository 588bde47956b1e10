package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ryanleh/crowdsurf/benchmark"
	"github.com/ryanleh/crowdsurf/parse"
	"github.com/ryanleh/crowdsurf/report"
)

// Variant selects the batching scheme.
type Variant string

const (
	DPIR   Variant = "dpir"
	Hash   Variant = "hash"
	Cuckoo Variant = "cuckoo"
)

var AllVariants = []Variant{DPIR, Hash, Cuckoo}

func (v Variant) Configuration(packing benchmark.Packing) (benchmark.Configuration, error) {
	bc := benchmark.Configuration{Packing: packing}
	switch v {
	case DPIR:
		bc.Kind = benchmark.DPIR
	case Hash:
		bc.Kind = benchmark.PBC
		bc.Hash = benchmark.HashPlain
	case Cuckoo:
		bc.Kind = benchmark.PBC
		bc.Hash = benchmark.HashCuckoo
	default:
		return benchmark.Configuration{}, fmt.Errorf("unknown batching variant %q", v)
	}
	return bc, nil
}

// Batching runs the batching bench of one variant once and returns one row per configured batch size.
func (e *Engine) Batching(ctx context.Context, v Variant) (*report.BatchTable, error) {
	table := &report.BatchTable{Name: fmt.Sprintf("%s batching", v)}
	bc, err := v.Configuration(benchmark.Packing(e.cfg.Batching.Packing))
	if err != nil {
		return table, err
	}
	if err := e.buildBench(ctx); err != nil {
		return table, err
	}

	out, prof, err := e.runBench(ctx, bc, "batching-"+string(v))
	if err != nil {
		return table, err
	}
	points, err := parse.BatchSeries(out, e.cfg.Batching.BatchSizes)
	if err != nil {
		slog.Error("parsing batching output failed", slog.String("variant", string(v)), slog.String("output", out))
		return table, err
	}
	for _, p := range points {
		table.Rows = append(table.Rows, report.BatchRow{
			BatchSize:     p.BatchSize,
			QueriesPerSec: p.QueriesPerSec,
			UploadMB:      p.UploadMB,
			DownloadMB:    p.DownloadMB,
		})
	}
	table.ProfilePath = prof
	slog.Info("measured batching", slog.String("variant", string(v)), slog.Int("rows", len(table.Rows)))
	return table, nil
}
