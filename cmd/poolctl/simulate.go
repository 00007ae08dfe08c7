package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/objpool/internal/workload"
	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/logger"
	"github.com/ajitpratap0/objpool/pkg/metrics"
	"github.com/ajitpratap0/objpool/pkg/observability"
	"github.com/ajitpratap0/objpool/pkg/performance"
	"github.com/ajitpratap0/objpool/pkg/pool"
)

type simulateOptions struct {
	run       workload.Config
	lifetime  time.Duration
	output    string
	logLevel  string
	metrics   string
	resources bool
	settle    time.Duration
	profile   string
	types     string
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{run: workload.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "simulate <file>",
		Short: "Run a simulated workload against the pools of a configuration file",
		Long: `Run a simulated workload against the pools of a configuration file.
Workers acquire instances at random positions and release them after a random
hold. Instances of special-lifecycle pools end on their own and return through
their lifecycle hook.

Example:
  poolctl simulate pools.yaml --workers 16 --duration 10s --rate 5000 --output pretty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulate(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.run.Workers, "workers", opts.run.Workers, "Number of concurrent workers")
	f.DurationVar(&opts.run.Duration, "duration", opts.run.Duration, "Length of the run")
	f.Float64Var(&opts.run.Rate, "rate", opts.run.Rate, "Acquisitions per second across all workers, 0 for unlimited")
	f.IntVar(&opts.run.Burst, "burst", opts.run.Burst, "Rate limiter burst, defaults to the number of workers")
	f.DurationVar(&opts.run.HoldMin, "hold-min", opts.run.HoldMin, "Minimum time a worker holds an instance")
	f.DurationVar(&opts.run.HoldMax, "hold-max", opts.run.HoldMax, "Maximum time a worker holds an instance")
	f.DurationVar(&opts.run.ReportInterval, "report-interval", opts.run.ReportInterval, "Period of throughput logs, 0 to disable")
	f.Float64Var(&opts.run.TargetThroughput, "target-throughput", opts.run.TargetThroughput, "Expected acquisitions per second")
	f.DurationVar(&opts.run.LatencyBudget, "latency-budget", opts.run.LatencyBudget, "Expected p99 acquire latency")
	f.Int64Var(&opts.run.Seed, "seed", opts.run.Seed, "Random seed")
	f.DurationVar(&opts.lifetime, "lifetime", workload.DefaultLifetime, "Lifetime of special-lifecycle instances")
	f.DurationVar(&opts.settle, "settle", 500*time.Millisecond, "Time to wait for self-releasing instances before reporting")
	f.StringVarP(&opts.output, "output", "o", outputJSON, "Report format (json, pretty, jsonl, table)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides the configuration file")
	f.StringVar(&opts.metrics, "metrics-address", "", "Serve Prometheus metrics on this address, overrides the configuration file")
	f.BoolVar(&opts.resources, "resources", true, "Include process resource usage in the report")
	f.StringVar(&opts.profile, "profile-dir", "", "Write pprof profiles of the run to this directory")
	f.StringVar(&opts.types, "profile-types", "cpu,memory", "Profile types (cpu,memory,block,mutex,goroutine,all)")
	return cmd
}

func runSimulate(ctx context.Context, out, errOut io.Writer, path string, opts simulateOptions) error {
	switch opts.output {
	case outputJSON, outputPretty, outputJSONL, outputTable:
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	level := cfg.Observability.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if err := logger.Init(logger.Config{Level: level, Encoding: "console", OutputPaths: []string{"stderr"}}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get().With(zap.String("component", "poolctl"), zap.String("config", path))

	reg := prometheus.NewRegistry()
	collector := metrics.NewPoolCollector(reg)

	metricsAddr := cfg.Observability.MetricsAddress
	if opts.metrics != "" {
		metricsAddr = opts.metrics
	}
	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Observability.EnableTracing {
		tc := observability.TracingFromConfig(cfg.Observability, version)
		tc.Writer = errOut
		tp, err := observability.InitTracing(tc)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if err := observability.Shutdown(context.Background(), tp); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		}()
	}

	templates := workload.Templates(cfg, opts.lifetime)
	m, err := pool.NewManager(*cfg, workload.Catalog(templates).Definitions(*cfg), pool.WithMetrics(collector))
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch m.Mode() {
	case config.InitModeDeferred:
		m.Ready()
	case config.InitModeManual:
		m.Initialize()
	}

	var monitor *performance.ResourceMonitor
	if opts.resources {
		if monitor, err = performance.NewResourceMonitor(); err != nil {
			log.Warn("resource usage unavailable", zap.Error(err))
		}
	}

	runner, err := workload.NewRunner(m, templates, opts.run, log, collector, monitor)
	if err != nil {
		return err
	}

	log.Info("starting simulation",
		zap.Int("pools", len(m.Pools())),
		zap.Int("workers", opts.run.Workers),
		zap.Duration("duration", opts.run.Duration),
		zap.Float64("rate", opts.run.Rate))

	if opts.profile != "" {
		prof, err := startProfiling(opts.profile, opts.types, log)
		if err != nil {
			return err
		}
		defer prof.stop()
	}

	rep, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	settle(ctx, m, opts.settle)
	rep.Pools = m.Stats()

	log.Info("simulation completed",
		zap.Int64("acquired", rep.Acquired),
		zap.Int64("unpooled", rep.Unpooled),
		zap.Float64("acquires_per_second", rep.Throughput))

	return writeReport(out, simulationReport{Config: path, Mode: m.Mode(), Report: rep}, opts.output)
}

// settle waits until no instance is in use or d elapses.
func settle(ctx context.Context, m *pool.Manager[*workload.Effect], d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for m.Stats().TotalInUse() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("address", addr))
	return srv
}
