package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/ryanleh/crowdsurf/benchmark"
	"github.com/ryanleh/crowdsurf/config"
	"github.com/ryanleh/crowdsurf/cost"
	"github.com/ryanleh/crowdsurf/driver"
	"github.com/ryanleh/crowdsurf/parse"
	"github.com/ryanleh/crowdsurf/report"
	"github.com/ryanleh/crowdsurf/target"
)

const clientBinary = "crowdsurf-client.out"

var ErrPeerUnreachable = errors.New("peer unreachable")

// Peers are the hosts of the externally running servers. Ports come from the config.
type Peers struct {
	PIRGPU string
	PIRCPU string
	Hint   string
}

type E2EResult struct {
	Rows []report.E2ERow
	// Cost model inputs. Every shard is priced with the hint latency of the popular shard.
	Measurements []cost.Measurement
}

// E2E runs the popular, full and baseline shards against live servers, each paired with a background
// hint client. The popular run fixes the hint latency that the other two runs reuse.
func (e *Engine) E2E(ctx context.Context, peers Peers) (*E2EResult, error) {
	res := &E2EResult{}
	if err := e.preflight(ctx, peers); err != nil {
		return res, err
	}
	if err := e.buildE2E(ctx); err != nil {
		return res, err
	}

	bar := e.newBar(len(config.AllShardTypes), "e2e")
	defer bar.Finish()

	runs := []struct {
		shard config.ShardType
		pir   string
	}{
		{config.Popular, peers.PIRGPU},
		{config.Full, peers.PIRGPU},
		{config.Baseline, peers.PIRCPU},
	}
	var hintMs float64
	for _, r := range runs {
		m, err := e.runShard(ctx, r.shard, r.pir, peers.Hint, hintMs)
		if err != nil {
			return res, fmt.Errorf("e2e %s shard: %w", r.shard, err)
		}
		if r.shard == config.Popular {
			hintMs = m.HintMs
		}
		res.Rows = append(res.Rows, report.E2ERow{
			Shard:         string(r.shard),
			AnswerMs:      m.AnswerMs,
			PIRMs:         m.PIRMs,
			HintMs:        m.HintMs,
			BatchCapacity: m.BatchCapacity,
		})
		res.Measurements = append(res.Measurements, cost.Measurement{
			Type:          r.shard,
			HintLatencyMs: hintMs,
			BatchCapacity: m.BatchCapacity,
		})
		bar.Add(1)
	}
	return res, nil
}

func (e *Engine) runShard(ctx context.Context, shardType config.ShardType, pirHost, hintHost string, hintMs float64) (parse.E2EMeasurement, error) {
	shard, err := e.cfg.Shard(shardType)
	if err != nil {
		return parse.E2EMeasurement{}, err
	}
	cc := benchmark.ClientConfiguration{
		Rows:      shard.Rows,
		Cols:      shard.Cols,
		BatchSize: shard.QueriesPerClient,
		P:         shard.P,
		PIRAddr:   pirHost,
		HintAddr:  hintHost,
		HintMs:    hintMs,
		Bits:      shard.Bits,
	}
	fg, err := cc.Command("./"+clientBinary, e.cfg.Build.ClientDir)
	if err != nil {
		return parse.E2EMeasurement{}, err
	}

	out, err := e.exec.RunWithBackground(ctx, e.hintClient(), fg)
	if err != nil {
		return parse.E2EMeasurement{}, err
	}
	// The client reports through the log package, which writes to stderr.
	m, err := parse.E2E(out.Stderr)
	if err != nil {
		slog.Error("parsing e2e output failed", slog.String("shard", string(shardType)), slog.String("stderr", out.Stderr))
		return parse.E2EMeasurement{}, err
	}
	slog.Info("measured e2e shard",
		slog.String("shard", string(shardType)),
		slog.Float64("answerMs", m.AnswerMs),
		slog.Float64("hintMs", m.HintMs),
		slog.Uint64("batchCapacity", m.BatchCapacity))
	return m, nil
}

func (e *Engine) hintClient() target.Command {
	return target.Command{
		Name: "bazel",
		Args: []string{"run", "-c", "opt", e.cfg.Build.HintTarget},
		Dir:  e.cfg.Build.HintDir,
	}
}

func (e *Engine) buildE2E(ctx context.Context) error {
	err := e.exec.Build(ctx, driver.BuildTarget{
		Name: "hint client",
		Command: target.Command{
			Name: "bazel",
			Args: []string{"build", "-c", "opt", e.cfg.Build.HintTarget},
			Dir:  e.cfg.Build.HintDir,
		},
	})
	if err != nil {
		return err
	}
	if err := e.exec.CheckToolchain(ctx, e.cfg.Build.MinGoVersion); err != nil {
		return err
	}
	return e.exec.Build(ctx, driver.BuildTarget{
		Name: "e2e client",
		Command: target.Command{
			Name: "go",
			Args: []string{"build", "-o", clientBinary, "."},
			Dir:  e.cfg.Build.ClientDir,
		},
	})
}

// preflight dials every distinct peer once so that a missing server fails before anything is built.
func (e *Engine) preflight(ctx context.Context, peers Peers) error {
	pirPort := strconv.Itoa(e.cfg.E2E.PIRPort)
	hintPort := strconv.Itoa(e.cfg.E2E.HintPort)
	addrs := []string{
		net.JoinHostPort(peers.PIRGPU, pirPort),
		net.JoinHostPort(peers.PIRCPU, pirPort),
		net.JoinHostPort(peers.Hint, hintPort),
	}
	seen := map[string]bool{}
	for _, addr := range addrs {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		conn, err := e.dial(ctx, "tcp", addr)
		if err != nil {
			slog.Error("peer unreachable", slog.String("addr", addr), slog.String("error", err.Error()))
			return fmt.Errorf("%w: %s: %w", ErrPeerUnreachable, addr, err)
		}
		conn.Close()
		slog.Debug("peer reachable", slog.String("addr", addr))
	}
	return nil
}
