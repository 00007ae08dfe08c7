// Package workload drives a pool Manager with concurrent acquire/release
// traffic for the simulator.
package workload

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	poolerrors "github.com/ajitpratap0/objpool/pkg/errors"
	"github.com/ajitpratap0/objpool/pkg/metrics"
	"github.com/ajitpratap0/objpool/pkg/observability"
	"github.com/ajitpratap0/objpool/pkg/performance"
	"github.com/ajitpratap0/objpool/pkg/pool"
)

// Config controls a simulation run.
type Config struct {
	// Workers is the number of concurrent acquirers
	Workers int
	// Duration bounds the run
	Duration time.Duration
	// Rate caps acquisitions per second across all workers, unlimited when 0
	Rate float64
	// Burst is the limiter burst, Workers when 0
	Burst int
	// HoldMin and HoldMax bound how long a worker keeps an instance it
	// releases itself
	HoldMin time.Duration
	HoldMax time.Duration
	// ReportInterval is the period of throughput logs, none when 0
	ReportInterval time.Duration
	// TargetThroughput grades the throughput logs
	TargetThroughput float64
	// LatencyBudget grades the p99 acquire latency logs
	LatencyBudget time.Duration
	// Seed makes template choice and hold times reproducible
	Seed int64
}

// DefaultConfig returns a short, moderate run.
func DefaultConfig() Config {
	return Config{
		Workers:          8,
		Duration:         5 * time.Second,
		Rate:             2000,
		HoldMin:          time.Millisecond,
		HoldMax:          20 * time.Millisecond,
		ReportInterval:   time.Second,
		TargetThroughput: 1000,
		LatencyBudget:    100 * time.Microsecond,
		Seed:             1,
	}
}

// Validate checks the run settings.
func (c Config) Validate() error {
	switch {
	case c.Workers <= 0:
		return poolerrors.New(poolerrors.ErrorTypeConfig, "workers must be positive")
	case c.Duration <= 0:
		return poolerrors.New(poolerrors.ErrorTypeConfig, "duration must be positive")
	case c.Rate < 0:
		return poolerrors.New(poolerrors.ErrorTypeConfig, "rate cannot be negative")
	case c.HoldMin < 0 || c.HoldMax < c.HoldMin:
		return poolerrors.New(poolerrors.ErrorTypeConfig, "hold range is invalid").
			WithDetail("hold_min", c.HoldMin).
			WithDetail("hold_max", c.HoldMax)
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	Duration      time.Duration              `json:"duration"`
	Acquired      int64                      `json:"acquired"`
	Released      int64                      `json:"released"`
	SelfReleasing int64                      `json:"self_releasing"`
	Unpooled      int64                      `json:"unpooled"`
	Throughput    float64                    `json:"throughput_per_second"`
	Latency       performance.Percentiles    `json:"acquire_latency"`
	Pools         pool.Summary               `json:"summary"`
	Resources     *performance.ResourceUsage `json:"resources,omitempty"`
}

// Runner drives one Manager.
type Runner struct {
	manager   *pool.Manager[*Effect]
	templates []*EffectTemplate
	cfg       Config
	perf      *observability.PerformanceLogger
	tracker   *metrics.ThroughputTracker
	latency   *performance.LatencyTracker
	monitor   *performance.ResourceMonitor

	acquired      atomic.Int64
	released      atomic.Int64
	selfReleasing atomic.Int64
	unpooled      atomic.Int64
}

// NewRunner creates a runner acquiring from templates. collector receives the
// run throughput and may be nil. A nil monitor leaves resources out of the
// report.
func NewRunner(
	m *pool.Manager[*Effect],
	templates []*EffectTemplate,
	cfg Config,
	logger *zap.Logger,
	collector *metrics.PoolCollector,
	monitor *performance.ResourceMonitor,
) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig, "no templates to acquire from")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NewPoolCollector(nil)
	}
	return &Runner{
		manager:   m,
		templates: templates,
		cfg:       cfg,
		perf:      observability.NewPerformanceLogger(logger),
		tracker:   collector.NewThroughputTracker("all"),
		latency:   performance.NewLatencyTracker(0),
		monitor:   monitor,
	}, nil
}

// Run generates traffic until the configured duration elapses or ctx is
// cancelled. Instances a worker releases itself are back in their pool when
// Run returns. Effects with a lifetime end on their own schedule.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var limiter *rate.Limiter
	if r.cfg.Rate > 0 {
		burst := r.cfg.Burst
		if burst <= 0 {
			burst = r.cfg.Workers
		}
		limiter = rate.NewLimiter(rate.Limit(r.cfg.Rate), burst)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.cfg.Workers; w++ {
		rng := rand.New(rand.NewSource(r.cfg.Seed + int64(w))) //nolint:gosec // simulation only
		g.Go(func() error {
			return r.work(gctx, rng, limiter)
		})
	}
	if r.cfg.ReportInterval > 0 {
		g.Go(func() error {
			r.report(gctx)
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = nil
	}
	elapsed := time.Since(start)

	rep := Report{
		Duration:      elapsed,
		Acquired:      r.acquired.Load(),
		Released:      r.released.Load(),
		SelfReleasing: r.selfReleasing.Load(),
		Unpooled:      r.unpooled.Load(),
		Latency:       r.latency.Percentiles(),
		Pools:         r.manager.Stats(),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		rep.Throughput = float64(rep.Acquired) / secs
	}
	if r.monitor != nil {
		usage := r.monitor.Usage()
		rep.Resources = &usage
	}
	return rep, err
}

func (r *Runner) work(ctx context.Context, rng *rand.Rand, limiter *rate.Limiter) error {
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		tmpl := r.templates[rng.Intn(len(r.templates))]
		pos := pool.Vec3{X: rng.Float64() * 100, Y: rng.Float64() * 100}

		began := time.Now()
		obj := r.manager.Acquire(tmpl, pool.At(pos))
		r.latency.Record(time.Since(began))
		r.acquired.Add(1)
		r.tracker.Increment(1)
		obj.Drain()

		if _, pooled := r.manager.PoolOf(obj); !pooled {
			r.unpooled.Add(1)
		}

		// Hooked effects return to their pool when their lifetime ends.
		if _, hooked := r.manager.HookOf(obj); hooked && tmpl.Lifetime() > 0 {
			r.selfReleasing.Add(1)
			continue
		}

		hold := r.cfg.HoldMin
		if spread := r.cfg.HoldMax - r.cfg.HoldMin; spread > 0 {
			hold += time.Duration(rng.Int63n(int64(spread)))
		}
		if hold > 0 {
			timer := time.NewTimer(hold)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}

		r.manager.Release(obj)
		r.released.Add(1)
	}
}

func (r *Runner) report(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.perf.LogThroughput("acquire", r.tracker.GetAndReset(), r.cfg.TargetThroughput)
			r.perf.LogLatency("acquire", r.latency.Percentiles().P99, r.cfg.LatencyBudget)
			for _, ps := range r.manager.Stats().Pools {
				r.perf.LogReserve(ps.Name, ps.InReserve, ps.Threshold)
			}
		}
	}
}
