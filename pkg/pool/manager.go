package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/objpool/pkg/config"
	poolerrors "github.com/ajitpratap0/objpool/pkg/errors"
	"github.com/ajitpratap0/objpool/pkg/logger"
	"github.com/ajitpratap0/objpool/pkg/metrics"
)

// TracerName identifies the spans and instruments of the watcher.
const TracerName = "github.com/ajitpratap0/objpool/pkg/pool"

// Definition pairs a template with the settings of its pool.
type Definition[T Object] struct {
	Template Template[T]
	Config   config.PoolConfig
}

// YieldFunc hands control back to the scheduler between two instance
// creations of the watcher. A non-nil error stops the watcher.
type YieldFunc func(ctx context.Context) error

// Option configures a Manager.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	metrics  *metrics.PoolCollector
	tracer   trace.Tracer
	meter    metric.Meter
	yield    YieldFunc
	interval time.Duration
}

// WithLogger sets the base logger. Messages are still dropped unless the
// manager config allows logs.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics publishes pool metrics to collector.
func WithMetrics(collector *metrics.PoolCollector) Option {
	return func(o *options) {
		o.metrics = collector
	}
}

// WithTracer sets the tracer used for watcher spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithMeter sets the meter of the watcher growth counter.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithYield replaces the cooperative yield of the watcher.
func WithYield(fn YieldFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.yield = fn
		}
	}
}

// WithWatchInterval overrides the watcher period from the config.
func WithWatchInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// Yield is the default YieldFunc: it lets other goroutines run and stops
// once ctx is done.
func Yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// Manager owns the pools of every registered object kind, maps templates to
// pools and instances back to their pool, and runs the auto-increase watcher.
//
// A Manager is an explicit value: construct it once and pass it to the code
// that acquires and releases instances. All methods are safe for concurrent
// use. Object callbacks (SetActive, SetParent, Place, New) run while the
// owning pool is locked and must not call back into the Manager.
type Manager[T Object] struct {
	mode        config.InitMode
	definitions []Definition[T]

	logger   *zap.Logger
	metrics  *metrics.PoolCollector
	tracer   trace.Tracer
	grown    metric.Int64Counter
	yield    YieldFunc
	interval time.Duration

	state atomic.Int32

	// mu guards pools and order. It is never held while taking a pool lock.
	mu    sync.RWMutex
	pools map[Template[T]]*Pool[T]
	order []*Pool[T]

	// ownersMu guards owners and hooks. Taken after a pool lock.
	ownersMu sync.RWMutex
	owners   map[T]*Pool[T]
	hooks    map[T]*Hook[T]

	watchMu  sync.Mutex
	watching bool
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager creates a Manager for cfg. defs are the pools registered on
// initialization. In immediate mode the Manager is initialized before
// NewManager returns.
func NewManager[T Object](cfg config.ManagerConfig, defs []Definition[T], opts ...Option) (*Manager[T], error) {
	mode, err := config.ParseInitMode(string(cfg.InitMode))
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, "invalid init mode")
	}

	o := options{
		interval: cfg.WatchInterval,
		yield:    Yield,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.interval <= 0 {
		o.interval = config.DefaultWatchInterval
	}
	if o.metrics == nil {
		o.metrics = metrics.NewPoolCollector(nil)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}
	if o.meter == nil {
		o.meter = otel.Meter(TracerName)
	}
	grown, err := o.meter.Int64Counter("objpool.pool.grown",
		metric.WithDescription("Instances created by the auto-increase watcher"),
		metric.WithUnit("{instance}"))
	if err != nil {
		grown = noop.Int64Counter{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager[T]{
		mode:        mode,
		definitions: append([]Definition[T](nil), defs...),
		logger:      logger.ForManager(cfg.AllowLogs, o.logger),
		metrics:     o.metrics,
		tracer:      o.tracer,
		grown:       grown,
		yield:       o.yield,
		interval:    o.interval,
		pools:       make(map[Template[T]]*Pool[T]),
		owners:      make(map[T]*Pool[T]),
		hooks:       make(map[T]*Hook[T]),
		ctx:         ctx,
		cancel:      cancel,
	}

	if mode == config.InitModeImmediate {
		m.Initialize()
	}
	return m, nil
}

// RegisterPool creates the pool for tmpl, pre-populates settings.InitialCount
// instances and, if settings.AutoGrow is set, puts it under the watcher.
//
// A nil template, an already registered template or invalid settings leave
// the Manager unchanged; the returned config error has already been logged.
// An empty settings.Key defaults to the template name.
func (m *Manager[T]) RegisterPool(tmpl Template[T], settings config.PoolConfig) error {
	if tmpl == nil {
		err := poolerrors.New(poolerrors.ErrorTypeConfig, "pool key is nil").
			WithDetail("pool", settings.Key)
		m.logger.Warn("skipped initialization: template is nil",
			zap.String("pool", settings.Key),
			zap.Error(err))
		m.metrics.Event(settings.Key, string(poolerrors.ErrorTypeConfig))
		return err
	}
	if settings.Key == "" {
		settings.Key = tmpl.Name()
	}
	if err := settings.Validate(); err != nil {
		err = poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, "invalid pool settings").
			WithDetail("pool", settings.Key)
		m.logger.Warn("skipped initialization: invalid settings",
			zap.String("pool", settings.Key),
			zap.Error(err))
		m.metrics.Event(settings.Key, string(poolerrors.ErrorTypeConfig))
		return err
	}

	p := newPool(tmpl, settings)

	// Hold the new pool's lock until it is populated so that concurrent
	// acquirers wait for the initial instances.
	p.mu.Lock()
	m.mu.Lock()
	if _, exists := m.pools[tmpl]; exists {
		m.mu.Unlock()
		p.mu.Unlock()
		err := poolerrors.Newf(poolerrors.ErrorTypeConfig, "pool already registered for %s", tmpl.Name()).
			WithDetail("pool", settings.Key)
		m.logger.Warn("skipped initialization: there is already an object pool for this template",
			zap.String("pool", settings.Key),
			zap.Error(err))
		m.metrics.Event(settings.Key, string(poolerrors.ErrorTypeConfig))
		return err
	}
	m.pools[tmpl] = p
	m.order = append(m.order, p)
	m.mu.Unlock()

	m.populate(p, settings.InitialCount, metrics.ReasonInitial)
	p.recomputeGrowthParameters()
	p.mu.Unlock()

	m.logger.Info("initialized object pool",
		zap.String("pool", p.name),
		zap.Int("count", settings.InitialCount),
		zap.Bool("auto_grow", settings.AutoGrow))

	if p.autoGrow && m.IsInitialized() {
		m.startWatcher()
	}
	return nil
}

// populate creates count instances in p and publishes the new population.
// Requires p.mu.
func (m *Manager[T]) populate(p *Pool[T], count int, reason string) int {
	created := p.populate(count, m.track)
	m.metrics.Created(p.name, reason, created)
	m.observe(p)
	return created
}

// track records the owner of a new instance and attaches its lifecycle hook.
// Requires p.mu.
func (m *Manager[T]) track(p *Pool[T], obj T) bool {
	m.ownersMu.Lock()
	if _, exists := m.owners[obj]; exists {
		m.ownersMu.Unlock()
		err := poolerrors.New(poolerrors.ErrorTypeInternal, "duplicate instance").WithDetail("pool", p.name)
		m.report(p.name, "template returned an instance that is already pooled", err,
			zap.String("pool", p.name))
		return false
	}
	m.owners[obj] = p
	m.ownersMu.Unlock()

	if !p.specialLifecycle {
		return true
	}

	hook, ok := attachHook(m, obj)
	if !ok {
		p.specialLifecycle = false
		m.logger.Warn("lifecycle hooks disabled: instances cannot report the end of their use",
			zap.String("pool", p.name))
		return true
	}

	m.ownersMu.Lock()
	m.hooks[obj] = hook
	m.ownersMu.Unlock()
	return true
}

// report logs a condition the engine worked around and counts it by type.
// Conditions it absorbs by design log at warn level, the others at error level.
func (m *Manager[T]) report(pool, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if poolerrors.IsRecoverable(err) {
		m.logger.Warn(msg, fields...)
	} else {
		m.logger.Error(msg, fields...)
	}
	m.metrics.Event(pool, string(poolerrors.TypeOf(err)))
}

// observe requires p.mu.
func (m *Manager[T]) observe(p *Pool[T]) {
	m.metrics.ObservePool(p.name, len(p.reserve), len(p.inUse), p.targetCount)
}

func (m *Manager[T]) lookup(tmpl Template[T]) *Pool[T] {
	if tmpl == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pools[tmpl]
}

func (m *Manager[T]) ownerOf(obj T) *Pool[T] {
	m.ownersMu.RLock()
	defer m.ownersMu.RUnlock()
	return m.owners[obj]
}

// Pool returns the pool registered for tmpl.
func (m *Manager[T]) Pool(tmpl Template[T]) (*Pool[T], bool) {
	p := m.lookup(tmpl)
	return p, p != nil
}

// PoolOf returns the pool owning obj.
func (m *Manager[T]) PoolOf(obj T) (*Pool[T], bool) {
	p := m.ownerOf(obj)
	return p, p != nil
}

// Pools returns every pool in registration order.
func (m *Manager[T]) Pools() []*Pool[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Pool[T](nil), m.order...)
}

// HookOf returns the lifecycle hook attached to obj.
func (m *Manager[T]) HookOf(obj T) (*Hook[T], bool) {
	m.ownersMu.RLock()
	defer m.ownersMu.RUnlock()
	h, ok := m.hooks[obj]
	return h, ok
}

// Stats returns a summary of the Manager and all of its pools.
func (m *Manager[T]) Stats() Summary {
	pools := m.Pools()
	summary := Summary{
		State:    m.State(),
		Mode:     m.mode,
		Watching: m.Watching(),
		Pools:    make([]PoolStats, 0, len(pools)),
	}
	for _, p := range pools {
		summary.Pools = append(summary.Pools, p.Stats())
	}
	m.ownersMu.RLock()
	summary.Tracked = len(m.owners)
	m.ownersMu.RUnlock()
	return summary
}

// Close stops the watcher and waits for it to exit. Pools stay usable.
func (m *Manager[T]) Close() error {
	m.watchMu.Lock()
	if m.closed {
		m.watchMu.Unlock()
		return nil
	}
	m.closed = true
	m.cancel()
	m.watchMu.Unlock()

	m.wg.Wait()
	m.logger.Debug("object pool manager closed")
	return nil
}
