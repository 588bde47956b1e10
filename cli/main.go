package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/ryanleh/crowdsurf/config"
	"github.com/ryanleh/crowdsurf/cost"
	"github.com/ryanleh/crowdsurf/driver"
	instancecatalog "github.com/ryanleh/crowdsurf/instance_catalog"
	"github.com/ryanleh/crowdsurf/profile"
	"github.com/ryanleh/crowdsurf/report"
	resultstore "github.com/ryanleh/crowdsurf/result_store"
	"github.com/ryanleh/crowdsurf/sweep"
	"github.com/ryanleh/crowdsurf/target"
	"github.com/ryanleh/crowdsurf/util"
	"golang.org/x/crypto/ssh"
)

// options is recorded in the report as the run's input.
type options struct {
	Batching        bool
	Preprocessing   bool
	Query           bool
	RerunLWE        bool
	E2E             bool
	Costs           bool
	PIRGPU          string
	PIRCPU          string
	Hint            string
	ConfigPath      string
	Target          string
	SSHHost         string
	SSHUser         string
	SSHPort         int
	SSHKey          string
	Profiler        string
	ProfileDir      string
	ResultDir       string
	ReportBucket    string
	VerifyInstances bool
}

func main() {
	opts := options{}
	flag.BoolVar(&opts.Batching, "batching", false, "Run the DPIR, hash and cuckoo batching benchmarks.")
	flag.BoolVar(&opts.Preprocessing, "preprocessing", false, "Run the LWE preprocessing benchmarks.")
	flag.BoolVar(&opts.Query, "query", false, "Run the LHE query benchmarks.")
	flag.BoolVar(&opts.RerunLWE, "rerun-lwe", false, "Remeasure the plain LWE preprocessing baseline at every size instead of calibrating historical numbers (very slow).")
	flag.BoolVar(&opts.E2E, "e2e", false, "Run the end-to-end shard benchmarks against running PIR and hint servers and print their costs.")
	flag.BoolVar(&opts.Costs, "costs", false, "Print the cost table for the recorded e2e measurements. Runs nothing.")
	flag.StringVar(&opts.PIRGPU, "pir-gpu", "0.0.0.0", "PIR (GPU) server host.")
	flag.StringVar(&opts.PIRCPU, "pir-cpu", "0.0.0.0", "PIR (CPU) server host.")
	flag.StringVar(&opts.Hint, "hint", "0.0.0.0", "Hint compression server host.")
	flag.StringVar(&opts.ConfigPath, "config", "", "A YAML or JSON file overriding the built-in parameters.")
	flag.StringVar(&opts.Target, "target", "local", "Where to build and run the benchmarks. Must be one of: \"local\", \"ssh\".")
	flag.StringVar(&opts.SSHHost, "ssh-host", "", "The host of the ssh target.")
	flag.StringVar(&opts.SSHUser, "ssh-user", "root", "The user of the ssh target.")
	flag.IntVar(&opts.SSHPort, "ssh-port", 22, "The port of the ssh target.")
	flag.StringVar(&opts.SSHKey, "ssh-key", "", "A private key file used to log into the ssh target.")
	flag.StringVar(&opts.Profiler, "profiler", string(profile.None), fmt.Sprintf("The type of profiler to use. No profiler is used by default. Must be one of: %s.", profile.ExplainProfilers()))
	flag.StringVar(&opts.ProfileDir, "profile-dir", path.Join("results", "profiles"), "Save profiling results into this directory.")
	flag.StringVar(&opts.ResultDir, "result-dir", "results", "Write report.json into this directory.")
	flag.StringVar(&opts.ReportBucket, "report-bucket", "", "Upload the result directory to this S3 bucket. Nothing is uploaded by default.")
	flag.BoolVar(&opts.VerifyInstances, "verify-instances", false, "Check the EC2 instance types of the pricing classes before running anything.")
	debug := flag.Bool("debug", false, "Log at debug level.")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = config.LoadFile(opts.ConfigPath)
		if err != nil {
			panic(err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if !opts.Batching && !opts.Preprocessing && !opts.Query && !opts.E2E && !opts.Costs {
		opts.Batching, opts.Preprocessing, opts.Query = true, true, true
	}
	runsBenchmarks := opts.Batching || opts.Preprocessing || opts.Query || opts.E2E

	var t target.Target = target.NewLocalTarget()
	if runsBenchmarks {
		var err error
		t, err = newTarget(&opts)
		if err != nil {
			panic(err)
		}
	}
	rep := report.New(t.Name(), util.StructMap(&opts))

	var store resultstore.ResultStore
	if opts.VerifyInstances || opts.ReportBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			panic(err)
		}
		if opts.VerifyInstances {
			infos, err := instancecatalog.New(awsCfg).Verify(ctx, cfg.Cost.Pricing)
			if err != nil {
				panic(err)
			}
			for _, info := range infos {
				rep.Metadata = append(rep.Metadata, info)
			}
		}
		if opts.ReportBucket != "" {
			store = resultstore.NewS3ResultStore(&resultstore.S3ResultStoreInput{
				AwsConfig:         awsCfg,
				Bucket:            opts.ReportBucket,
				UploadConcurrency: 8,
			})
			if err := store.SetUp(); err != nil {
				panic(err)
			}
		}
	}

	model := cost.NewModelFromConfig(cfg)
	if opts.Costs {
		d, err := model.Deployment(cost.Recorded(cfg), cfg.Cost.CorrelationWeight)
		if err != nil {
			panic(err)
		}
		rep.Costs = append(rep.Costs, deploymentTable("Recorded e2e costs", d, cfg))
	}

	if runsBenchmarks {
		engine, err := newEngine(ctx, &opts, cfg, t)
		if err != nil {
			panic(err)
		}
		runFamilies(ctx, &opts, engine, model, cfg, rep)
	}

	if err := rep.WriteText(os.Stdout); err != nil {
		panic(err)
	}
	p, err := rep.WriteJSON(opts.ResultDir)
	if err != nil {
		panic(err)
	}
	slog.Info("wrote report", slog.String("path", p), slog.String("runID", rep.RunID.String()))

	if store != nil {
		files, err := resultstore.CollectFiles(opts.ResultDir, rep.RunID)
		if err != nil {
			panic(err)
		}
		keys, err := store.Upload(files)
		if err != nil {
			panic(err)
		}
		slog.Info("uploaded results", slog.String("bucket", store.GetBucket()), slog.String("prefix", resultstore.KeyPrefix(rep.RunID)), slog.Int("files", len(keys)))
	}

	if len(rep.Errors) > 0 {
		cancel()
		os.Exit(1)
	}
}

func newTarget(opts *options) (target.Target, error) {
	switch opts.Target {
	case "local":
		return target.NewLocalTarget(), nil
	case "ssh":
		if opts.SSHHost == "" || opts.SSHKey == "" {
			return nil, fmt.Errorf("ssh target requires -ssh-host and -ssh-key")
		}
		key, err := os.ReadFile(opts.SSHKey)
		if err != nil {
			return nil, err
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing ssh key failed: %w", err)
		}
		return &target.SSHTarget{
			User:    opts.SSHUser,
			IP:      opts.SSHHost,
			SSHPort: opts.SSHPort,
			Auths:   []ssh.AuthMethod{ssh.PublicKeys(signer)},
		}, nil
	default:
		return nil, fmt.Errorf("unknown target: %s", opts.Target)
	}
}

func newEngine(ctx context.Context, opts *options, cfg *config.Config, t target.Target) (*sweep.Engine, error) {
	in := &sweep.EngineInput{
		Executor: driver.New(t),
		Config:   cfg,
		Progress: os.Stderr,
	}
	if kind := profile.ProfilerKind(opts.Profiler); kind != profile.None {
		prof, err := profile.NewProfiler(kind, t, opts.ProfileDir)
		if err != nil {
			return nil, fmt.Errorf("creating profiler failed: %w", err)
		}
		if err := prof.SetUp(ctx); err != nil {
			return nil, fmt.Errorf("setting up profiler failed: %w", err)
		}
		in.Profiler = prof
	}
	return sweep.NewEngine(in), nil
}

// fatal reports whether err must stop every remaining family rather than only its own.
func fatal(err error) bool {
	var pf *cost.PreconditionFailure
	return errors.As(err, &pf) || errors.Is(err, sweep.ErrPeerUnreachable) || errors.Is(err, context.Canceled)
}

// runFamilies runs the selected families in a fixed order. A failed family keeps its partial tables.
func runFamilies(ctx context.Context, opts *options, engine *sweep.Engine, model *cost.Model, cfg *config.Config, rep *report.Report) {
	record := func(family string, err error) bool {
		if err == nil {
			return true
		}
		slog.Error("benchmark family failed", slog.String("family", family), slog.String("error", err.Error()))
		rep.AddError(family, err)
		return !fatal(err)
	}

	if opts.Batching {
		for _, v := range sweep.AllVariants {
			tbl, err := engine.Batching(ctx, v)
			if len(tbl.Rows) > 0 {
				rep.Batches = append(rep.Batches, tbl)
			}
			if !record("batching "+string(v), err) {
				return
			}
		}
	}
	if opts.Preprocessing {
		res, err := engine.Preprocessing(ctx, opts.RerunLWE)
		rep.Sweeps = append(rep.Sweeps, res.Baseline, res.Hybrid)
		if !record("preprocessing", err) {
			return
		}
	}
	if opts.Query {
		res, err := engine.Query(ctx)
		rep.Sweeps = append(rep.Sweeps, res.Baseline, res.Hybrid)
		if !record("query", err) {
			return
		}
	}
	if opts.E2E {
		res, err := engine.E2E(ctx, sweep.Peers{PIRGPU: opts.PIRGPU, PIRCPU: opts.PIRCPU, Hint: opts.Hint})
		rep.E2E = append(rep.E2E, res.Rows...)
		if !record("e2e", err) {
			return
		}
		d, err := model.Deployment(res.Measurements, cfg.Cost.CorrelationWeight)
		if !record("e2e costs", err) {
			return
		}
		rep.Costs = append(rep.Costs, deploymentTable("E2E costs", d, cfg))
	}
}

func deploymentTable(name string, d *cost.Deployment, cfg *config.Config) *report.CostTable {
	return &report.CostTable{Name: name, Rows: []report.CostRow{
		{Name: "baseline", Estimate: d.Baseline, Precision: cfg.Cost.BaselinePrecision},
		{Name: "popular", Estimate: d.Popular, Precision: cfg.Cost.ShardPrecision},
		{Name: "full", Estimate: d.Full, Precision: cfg.Cost.ShardPrecision},
		{Name: "crowdsurf", Estimate: d.CrowdSurf, Precision: cfg.Cost.CombinedPrecision},
	}}
}
