package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ryanleh/crowdsurf/benchmark"
	"github.com/ryanleh/crowdsurf/calibration"
	"github.com/ryanleh/crowdsurf/config"
	"github.com/ryanleh/crowdsurf/parse"
	"github.com/ryanleh/crowdsurf/report"
)

// LHEResult holds the plain LWE (baseline) and hybrid tables of one LHE sweep. Row i of both tables
// describes the same point.
type LHEResult struct {
	Baseline *report.SweepTable
	Hybrid   *report.SweepTable
}

func point(logQ int, sp config.SizePoint, mode benchmark.Mode) report.Point {
	return report.Point{SizeGB: sp.SizeGB, LogQ: logQ, P: sp.P, SqrtN: sp.SqrtN, Mode: string(mode)}
}

func lheConfiguration(kind benchmark.Kind, logQ int, sp config.SizePoint, mode benchmark.Mode, iters int) benchmark.Configuration {
	return benchmark.Configuration{
		Kind:    kind,
		Packing: benchmark.PackingBalanced,
		LogQ:    logQ,
		P:       sp.P,
		SqrtN:   sp.SqrtN,
		Mode:    mode,
		Iters:   iters,
	}
}

func label(kind benchmark.Kind, logQ int, sp config.SizePoint, mode benchmark.Mode) string {
	return fmt.Sprintf("%s-q%d-%gGB-%s", kind, logQ, sp.SizeGB, mode)
}

// measure runs one LHE point and returns its row.
func (e *Engine) measure(ctx context.Context, kind benchmark.Kind, logQ int, sp config.SizePoint, mode benchmark.Mode, iters int) (report.SweepRow, error) {
	name := label(kind, logQ, sp, mode)
	bc := lheConfiguration(kind, logQ, sp, mode, iters)
	out, prof, err := e.runBench(ctx, bc, name)
	if err != nil {
		return report.SweepRow{}, err
	}

	var m parse.Metric
	if kind == benchmark.Query {
		m, err = parse.QueryLatency(out)
	} else {
		m, err = parse.PreprocessingThroughput(out, sp.SizeGB)
	}
	if err != nil {
		slog.Error("parsing bench output failed", slog.String("point", name), slog.String("output", out))
		return report.SweepRow{}, err
	}
	slog.Info("measured point", slog.String("point", name), slog.Float64(string(m.Kind), m.Value))
	return report.SweepRow{Point: point(logQ, sp, mode), Value: m.Value, Source: report.Measured, ProfilePath: prof}, nil
}

// Query measures query latency in hybrid and plain mode at every configured size of every modulus width.
// Hybrid rows carry baseline / hybrid as improvement.
func (e *Engine) Query(ctx context.Context) (*LHEResult, error) {
	res := &LHEResult{
		Baseline: report.NewSweepTable("Plain LWE query", "time (ms)"),
		Hybrid:   report.NewSweepTable("Hybrid query", "time (ms)"),
	}
	if err := e.buildBench(ctx); err != nil {
		return res, err
	}

	total := 0
	for _, w := range e.cfg.Widths {
		total += 2 * len(w.Points)
	}
	bar := e.newBar(total, "query")
	defer bar.Finish()

	for _, w := range e.cfg.Widths {
		for _, sp := range w.Points {
			hybrid, err := e.measure(ctx, benchmark.Query, w.LogQ, sp, benchmark.ModeHybrid, e.cfg.Query.HybridIters)
			if err != nil {
				return res, err
			}
			if err := res.Hybrid.Append(hybrid); err != nil {
				return res, err
			}
			bar.Add(1)

			base, err := e.measure(ctx, benchmark.Query, w.LogQ, sp, benchmark.ModeNone, 0)
			if err != nil {
				return res, err
			}
			if err := res.Baseline.Append(base); err != nil {
				return res, err
			}
			bar.Add(1)

			res.Hybrid.SetImprovement(res.Hybrid.Len()-1, base.Value/hybrid.Value)
		}
	}
	return res, nil
}

// Preprocessing measures preprocessing throughput. The hybrid mode is always measured. The plain mode is
// measured at the configured sample sizes (or everywhere when remeasureAll is set) and the remaining
// sizes are estimated by calibrating the historical series of the same width. Hybrid rows carry
// hybrid / baseline as improvement.
func (e *Engine) Preprocessing(ctx context.Context, remeasureAll bool) (*LHEResult, error) {
	res := &LHEResult{
		Baseline: report.NewSweepTable("Plain LWE preprocessing", "throughput (GB/s)"),
		Hybrid:   report.NewSweepTable("Hybrid preprocessing", "throughput (GB/s)"),
	}
	if err := e.checkPreprocessing(remeasureAll); err != nil {
		return res, err
	}
	if err := e.buildBench(ctx); err != nil {
		return res, err
	}

	total := 0
	for _, w := range e.cfg.Widths {
		for _, sp := range w.Points {
			if e.cfg.Excluded(sp.SizeGB) {
				continue
			}
			total++
			if remeasureAll || e.cfg.Sampled(sp.SizeGB) {
				total++
			}
		}
	}
	bar := e.newBar(total, "preprocessing")
	defer bar.Finish()

	for _, w := range e.cfg.Widths {
		if err := e.preprocessingWidth(ctx, w, remeasureAll, res, bar.Add); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (e *Engine) preprocessingWidth(ctx context.Context, w config.Width, remeasureAll bool, res *LHEResult, step func(int) error) error {
	var points []config.SizePoint
	for _, sp := range w.Points {
		if e.cfg.Excluded(sp.SizeGB) {
			slog.Debug("skipping excluded size", slog.Float64("sizeGB", sp.SizeGB), slog.Int("logQ", w.LogQ))
			continue
		}
		points = append(points, sp)
	}

	// Baseline rows are appended in size order once the width is done, since calibrated rows depend on
	// a sample that may come later in the order.
	baseline := make([]*report.SweepRow, len(points))
	flush := func() error {
		for _, r := range baseline {
			if r == nil {
				continue
			}
			if err := res.Baseline.Append(*r); err != nil {
				return err
			}
		}
		return nil
	}

	for i, sp := range points {
		hybrid, err := e.measure(ctx, benchmark.Preprocessing, w.LogQ, sp, benchmark.ModeHybrid, e.cfg.Preprocessing.HybridIters)
		if err != nil {
			return errors.Join(err, flush())
		}
		if err := res.Hybrid.Append(hybrid); err != nil {
			return err
		}
		step(1)
		if remeasureAll || e.cfg.Sampled(sp.SizeGB) {
			base, err := e.measure(ctx, benchmark.Preprocessing, w.LogQ, sp, benchmark.ModeNone, 0)
			if err != nil {
				return errors.Join(err, flush())
			}
			baseline[i] = &base
			step(1)
		}
	}

	if !remeasureAll {
		if err := e.calibrateWidth(w.LogQ, points, baseline); err != nil {
			return errors.Join(err, flush())
		}
	}
	if err := flush(); err != nil {
		return err
	}

	for i, r := range res.Hybrid.Rows() {
		if r.Point.LogQ != w.LogQ {
			continue
		}
		base, ok := res.Baseline.Lookup(r.Point.SizeGB, r.Point.LogQ)
		if !ok {
			return fmt.Errorf("no baseline for %g GB at log q %d", r.Point.SizeGB, r.Point.LogQ)
		}
		res.Hybrid.SetImprovement(i, r.Value/base.Value)
	}
	return nil
}

// calibrateWidth fills in the unmeasured baseline rows of one width from its historical series, scaled
// by the first sampled measurement of that width.
func (e *Engine) calibrateWidth(logQ int, points []config.SizePoint, baseline []*report.SweepRow) error {
	hist, ok := e.cfg.Historical(logQ)
	if !ok {
		return fmt.Errorf("no historical preprocessing series for log q %d", logQ)
	}
	historical := make([]float64, len(points))
	anchor := -1
	for i, sp := range points {
		v, ok := historicalAt(hist, sp.SizeGB)
		if !ok {
			return fmt.Errorf("no historical preprocessing value for %g GB at log q %d", sp.SizeGB, logQ)
		}
		historical[i] = v
		if anchor < 0 && baseline[i] != nil {
			anchor = i
		}
	}
	if anchor < 0 {
		return fmt.Errorf("no baseline sample measured for log q %d", logQ)
	}
	estimates, err := calibration.Calibrate(historical, anchor, baseline[anchor].Value)
	if err != nil {
		return fmt.Errorf("calibrating log q %d: %w", logQ, err)
	}
	slog.Info("calibrated preprocessing baseline",
		slog.Int("logQ", logQ),
		slog.Float64("anchorGB", points[anchor].SizeGB),
		slog.Float64("factor", baseline[anchor].Value/historical[anchor]))

	for i, sp := range points {
		if baseline[i] != nil {
			continue
		}
		baseline[i] = &report.SweepRow{Point: point(logQ, sp, benchmark.ModeNone), Value: estimates[i], Source: report.Calibrated}
	}
	return nil
}

func (e *Engine) checkPreprocessing(remeasureAll bool) error {
	if remeasureAll {
		return nil
	}
	for _, w := range e.cfg.Widths {
		if _, ok := e.cfg.Historical(w.LogQ); !ok {
			return fmt.Errorf("no historical preprocessing series for log q %d", w.LogQ)
		}
	}
	return nil
}

func historicalAt(s config.HistoricalSeries, sizeGB float64) (float64, bool) {
	for _, p := range s.Points {
		if p.SizeGB == sizeGB {
			return p.ThroughputGBps, true
		}
	}
	return 0, false
}
