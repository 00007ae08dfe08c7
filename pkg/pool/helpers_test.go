package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/metrics"
	"github.com/ajitpratap0/objpool/pkg/testutil"
)

// sprite implements every optional capability.
type sprite struct {
	mu        sync.Mutex
	id        int64
	active    bool
	parent    Parent
	placement Placement
	destroyed bool
	colour    string
	onEnd     func()
}

var spriteIDs atomic.Int64

func newSprite() *sprite {
	return &sprite{id: spriteIDs.Add(1), colour: "white"}
}

func (s *sprite) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *sprite) SetParent(p Parent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parent = p
}

func (s *sprite) Place(p Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placement = p
}

func (s *sprite) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

func (s *sprite) NotifyOnEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = fn
}

func (s *sprite) SnapshotState() func() {
	s.mu.Lock()
	colour := s.colour
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.colour = colour
	}
}

func (s *sprite) setColour(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colour = c
}

// finish raises the end-of-use signal like a timed effect running out.
func (s *sprite) finish() {
	s.mu.Lock()
	fn := s.onEnd
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type spriteView struct {
	id        int64
	active    bool
	parent    Parent
	placement Placement
	destroyed bool
	colour    string
}

func (s *sprite) view() spriteView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return spriteView{
		id:        s.id,
		active:    s.active,
		parent:    s.parent,
		placement: s.placement,
		destroyed: s.destroyed,
		colour:    s.colour,
	}
}

// crate only implements SetActive.
type crate struct {
	active bool
}

func (c *crate) SetActive(active bool) {
	c.active = active
}

// yieldCounter counts watcher yields and can fail after a number of calls.
type yieldCounter struct {
	calls   atomic.Int64
	failAt  int64
	failErr error
}

func (y *yieldCounter) yield(ctx context.Context) error {
	n := y.calls.Add(1)
	if y.failAt > 0 && n >= y.failAt {
		return y.failErr
	}
	return ctx.Err()
}

type harness[T Object] struct {
	manager  *Manager[T]
	registry *prometheus.Registry
	logs     *observer.ObservedLogs
	yields   *yieldCounter
}

type harnessOption func(*config.ManagerConfig)

func manual() harnessOption {
	return func(c *config.ManagerConfig) { c.InitMode = config.InitModeManual }
}

func withMode(mode config.InitMode) harnessOption {
	return func(c *config.ManagerConfig) { c.InitMode = mode }
}

func newHarness[T Object](t *testing.T, defs []Definition[T], opts ...harnessOption) *harness[T] {
	t.Helper()

	cfg := config.NewManagerConfig()
	cfg.WatchInterval = 10 * time.Millisecond
	for _, opt := range opts {
		opt(cfg)
	}

	log, logs := testutil.ObservedLogger(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	yields := &yieldCounter{}

	m, err := NewManager(*cfg, defs,
		WithLogger(log),
		WithMetrics(metrics.NewPoolCollector(reg)),
		WithYield(yields.yield),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return &harness[T]{manager: m, registry: reg, logs: logs, yields: yields}
}

func poolConfig(key string, count, max int) config.PoolConfig {
	c := config.DefaultPoolConfig(key)
	c.InitialCount = count
	c.MaxInstances = max
	return c
}

func growingPoolConfig(key string, count, percent int, coefficient float64, max int) config.PoolConfig {
	c := poolConfig(key, count, max)
	c.AutoGrow = true
	c.GrowThresholdPercent = percent
	c.GrowCoefficient = coefficient
	return c
}

func spriteTemplate(name string) *TemplateFunc[*sprite] {
	return NewTemplate(name, newSprite)
}

func mustCount(t *testing.T, fn func(Template[*sprite]) (int, error), tmpl Template[*sprite]) int {
	t.Helper()
	n, err := fn(tmpl)
	require.NoError(t, err)
	return n
}

func acquireN(m *Manager[*sprite], tmpl Template[*sprite], n int) []*sprite {
	out := make([]*sprite, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, m.Acquire(tmpl))
	}
	return out
}
