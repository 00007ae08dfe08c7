package workload

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/objpool/pkg/config"
	poolerrors "github.com/ajitpratap0/objpool/pkg/errors"
	"github.com/ajitpratap0/objpool/pkg/metrics"
	"github.com/ajitpratap0/objpool/pkg/pool"
	"github.com/ajitpratap0/objpool/pkg/testutil"
)

func testConfig() *config.ManagerConfig {
	cfg := config.NewManagerConfig()
	cfg.WatchInterval = 5 * time.Millisecond

	spark := config.DefaultPoolConfig("spark")
	spark.InitialCount = 10
	spark.MaxInstances = 20

	flash := config.DefaultPoolConfig("flash")
	flash.InitialCount = 10
	flash.MaxInstances = 40
	flash.IsSpecialLifecycle = true
	flash.AutoGrow = true
	flash.GrowThresholdPercent = 50
	flash.GrowCoefficient = 0.5

	cfg.Pools = []config.PoolConfig{spark, flash}
	return cfg
}

func newManager(t *testing.T, cfg *config.ManagerConfig, templates []*EffectTemplate) *pool.Manager[*Effect] {
	t.Helper()
	defs := Catalog(templates).Definitions(*cfg)
	m, err := pool.NewManager(*cfg, defs,
		pool.WithLogger(testutil.TestLogger(t)),
		pool.WithMetrics(metrics.NewPoolCollector(prometheus.NewRegistry())),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		// Lifetime timers may still be running.
		testutil.AssertEventually(t, func() bool { return m.Stats().TotalInUse() == 0 }, 2*time.Second, "instances still in use")
		_ = m.Close()
	})
	return m
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"default", func(*Config) {}, ""},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers must be positive"},
		{"no duration", func(c *Config) { c.Duration = 0 }, "duration must be positive"},
		{"negative rate", func(c *Config) { c.Rate = -1 }, "rate cannot be negative"},
		{"inverted hold", func(c *Config) { c.HoldMin, c.HoldMax = time.Second, time.Millisecond }, "hold range is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeConfig))
		})
	}
}

func TestTemplates(t *testing.T) {
	cfg := testConfig()
	cfg.Pools = append(cfg.Pools, config.DefaultPoolConfig("spark"), config.PoolConfig{})

	templates := Templates(cfg, 0)
	require.Len(t, templates, 2)
	assert.Equal(t, "spark", templates[0].Name())
	assert.Zero(t, templates[0].Lifetime())
	assert.Equal(t, "flash", templates[1].Name())
	assert.Equal(t, DefaultLifetime, templates[1].Lifetime())

	assert.Equal(t, []string{"flash", "spark"}, Catalog(templates).Names())
}

func TestEffectLifetime(t *testing.T) {
	tmpl := NewEffectTemplate("flash", 5*time.Millisecond)
	e := tmpl.New()
	assert.Equal(t, "flash", e.Kind)

	var ended atomic.Int64
	e.NotifyOnEnd(func() { ended.Add(1) })

	e.SetActive(true)
	testutil.AssertEventually(t, func() bool { return ended.Load() == 1 }, time.Second, "lifetime did not end")

	// A deactivated effect does not end.
	e.SetActive(true)
	e.SetActive(false)
	assert.Never(t, func() bool { return ended.Load() > 1 }, 30*time.Millisecond, 5*time.Millisecond)

	e.Destroy()
	assert.True(t, e.Destroyed())
}

func TestEffectCharge(t *testing.T) {
	e := NewEffectTemplate("spark", 0).New()
	restore := e.SnapshotState()

	for i := 0; i < 5; i++ {
		e.Drain()
	}
	assert.Zero(t, e.Charge())

	restore()
	assert.Equal(t, 3, e.Charge())
}

func TestNewRunnerRejects(t *testing.T) {
	cfg := testConfig()
	m := newManager(t, cfg, Templates(cfg, 0))

	_, err := NewRunner(m, nil, DefaultConfig(), nil, nil, nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.Workers = 0
	_, err = NewRunner(m, Templates(cfg, 0), bad, nil, nil, nil)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	cfg := testConfig()
	templates := Templates(cfg, 0)
	m := newManager(t, cfg, templates)

	runCfg := Config{
		Workers:        4,
		Duration:       150 * time.Millisecond,
		Rate:           2000,
		HoldMax:        time.Millisecond,
		ReportInterval: 20 * time.Millisecond,
		Seed:           3,
	}
	r, err := NewRunner(m, templates, runCfg, testutil.TestLogger(t), nil, nil)
	require.NoError(t, err)

	rep, err := r.Run(testutil.TestContext(t))
	require.NoError(t, err)

	assert.Positive(t, rep.Acquired)
	assert.Equal(t, rep.Acquired, rep.Released+rep.SelfReleasing)
	assert.Positive(t, rep.SelfReleasing)
	assert.Equal(t, rep.Acquired, rep.Latency.Count)
	assert.Positive(t, rep.Throughput)
	assert.Nil(t, rep.Resources)
	require.Len(t, rep.Pools.Pools, 2)

	// Lifetime-bound effects come back on their own.
	testutil.AssertEventually(t, func() bool {
		return m.Stats().TotalInUse() == 0
	}, 2*time.Second, "instances still in use")

	for _, ps := range m.Stats().Pools {
		assert.Equal(t, ps.Total, ps.InReserve, ps.Name)
		assert.LessOrEqual(t, ps.Total, ps.Max, ps.Name)
	}
}

func TestRunRateLimited(t *testing.T) {
	cfg := testConfig()
	templates := Templates(cfg, 0)
	m := newManager(t, cfg, templates)

	runCfg := Config{
		Workers:  2,
		Duration: 100 * time.Millisecond,
		Rate:     100,
		Burst:    1,
	}
	r, err := NewRunner(m, templates, runCfg, nil, nil, nil)
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	// 100/s for 100ms plus the initial burst.
	assert.LessOrEqual(t, rep.Acquired, int64(15))
	assert.Positive(t, rep.Acquired)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig()
	templates := Templates(cfg, 0)
	m := newManager(t, cfg, templates)

	runCfg := DefaultConfig()
	runCfg.Duration = time.Minute
	r, err := NewRunner(m, templates, runCfg, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	started := time.Now()
	_, err = r.Run(ctx)
	assert.NoError(t, err)
	assert.Less(t, time.Since(started), 10*time.Second)
}
