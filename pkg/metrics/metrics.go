// Package metrics provides Prometheus instrumentation for objpool managers.
//
// # Overview
//
// A PoolCollector owns one set of pool metrics registered against a caller
// supplied prometheus.Registerer, so several managers (or tests) never fight
// over the default registry:
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewPoolCollector(reg)
//	mgr, _ := pool.NewManager(cfg, defs, pool.WithMetrics(collector))
//
// # Metric Types
//
// Gauges track the reserve, in-use, total and target population per pool.
// Counters track acquisitions by source, releases by outcome, instances
// created by reason and recovered error events by type.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "objpool"

// Acquisition sources.
const (
	SourceReserve   = "reserve"
	SourceUnderflow = "underflow"
	SourceUnpooled  = "unpooled"
)

// Release outcomes.
const (
	OutcomeRecycled  = "recycled"
	OutcomeDestroyed = "destroyed"
)

// Creation reasons.
const (
	ReasonInitial   = "initial"
	ReasonUnderflow = "underflow"
	ReasonGrowth    = "growth"
)

// PoolCollector records pool population and events.
type PoolCollector struct {
	reserve    *prometheus.GaugeVec     // Instances idle in reserve
	inUse      *prometheus.GaugeVec     // Instances checked out
	total      *prometheus.GaugeVec     // Instances owned by the pool
	target     *prometheus.GaugeVec     // Desired population
	acquires   *prometheus.CounterVec   // Acquisitions by source
	releases   *prometheus.CounterVec   // Releases by outcome
	created    *prometheus.CounterVec   // Instances created by reason
	events     *prometheus.CounterVec   // Recovered conditions by type
	growthSize *prometheus.HistogramVec // Instances created per growth step
	throughput *prometheus.GaugeVec     // Acquisitions per second
}

// NewPoolCollector creates and registers the pool metrics. A nil registerer
// uses a fresh private registry.
func NewPoolCollector(reg prometheus.Registerer) *PoolCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &PoolCollector{
		reserve: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "pool",
			Name:      "reserve",
			Help:      "Number of instances idle in reserve",
		}, []string{"pool"}),
		inUse: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "pool",
			Name:      "in_use",
			Help:      "Number of instances checked out",
		}, []string{"pool"}),
		total: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "pool",
			Name:      "total",
			Help:      "Number of instances owned by the pool",
		}, []string{"pool"}),
		target: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "pool",
			Name:      "target",
			Help:      "Desired population of the pool",
		}, []string{"pool"}),
		acquires: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "acquires_total",
			Help:      "Total number of acquisitions",
		}, []string{"pool", "source"}),
		releases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "releases_total",
			Help:      "Total number of releases",
		}, []string{"pool", "outcome"}),
		created: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "instances_created_total",
			Help:      "Total number of pooled instances created",
		}, []string{"pool", "reason"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Total number of recovered pool conditions",
		}, []string{"pool", "type"}),
		growthSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "watcher",
			Name:      "growth_instances",
			Help:      "Instances created per auto-increase step",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"pool"}),
		throughput: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "throughput_acquires_per_second",
			Help:      "Current acquisition throughput",
		}, []string{"pool"}),
	}
}

// ObservePool publishes the current population of a pool
func (c *PoolCollector) ObservePool(pool string, reserve, inUse, target int) {
	c.reserve.WithLabelValues(pool).Set(float64(reserve))
	c.inUse.WithLabelValues(pool).Set(float64(inUse))
	c.total.WithLabelValues(pool).Set(float64(reserve + inUse))
	c.target.WithLabelValues(pool).Set(float64(target))
}

// Acquired counts one acquisition
func (c *PoolCollector) Acquired(pool, source string) {
	c.acquires.WithLabelValues(pool, source).Inc()
}

// Released counts one release
func (c *PoolCollector) Released(pool, outcome string) {
	c.releases.WithLabelValues(pool, outcome).Inc()
}

// Created counts n new pooled instances
func (c *PoolCollector) Created(pool, reason string, n int) {
	if n <= 0 {
		return
	}
	c.created.WithLabelValues(pool, reason).Add(float64(n))
}

// Event counts a recovered condition such as an underflow
func (c *PoolCollector) Event(pool, eventType string) {
	c.events.WithLabelValues(pool, eventType).Inc()
}

// Grew records one auto-increase step
func (c *PoolCollector) Grew(pool string, n int) {
	c.growthSize.WithLabelValues(pool).Observe(float64(n))
}

// ThroughputTracker tracks acquisitions per second over time windows.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Acquisitions since last reset
	lastReset time.Time // Time of last reset
	pool      string
	gauge     *prometheus.GaugeVec
}

// NewThroughputTracker creates a tracker publishing to the collector's
// throughput gauge for pool.
func (c *PoolCollector) NewThroughputTracker(pool string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		pool:      pool,
		gauge:     c.throughput,
	}
}

// Increment adds n to the count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput, updates the gauge, resets
// the counter and returns the calculated value. Safe for concurrent use.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	// Reset for next period
	t.count = 0
	t.lastReset = time.Now()

	t.gauge.WithLabelValues(t.pool).Set(throughput)

	return throughput
}
