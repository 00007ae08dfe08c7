package pool

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/objpool/pkg/metrics"
)

// startWatcher launches the auto-increase goroutine once the Manager is
// initialized and at least one pool grows automatically. Calls while it is
// already running are no-ops.
func (m *Manager[T]) startWatcher() {
	if !m.IsInitialized() || !m.hasAutoGrow() {
		return
	}

	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	if m.closed || m.watching {
		return
	}
	m.watching = true
	m.wg.Add(1)
	go m.watch(m.ctx)

	m.logger.Debug("auto-increase watcher started", zap.Duration("interval", m.interval))
}

func (m *Manager[T]) hasAutoGrow() bool {
	for _, p := range m.Pools() {
		if p.autoGrow {
			return true
		}
	}
	return false
}

// Watching reports whether the auto-increase watcher is running.
func (m *Manager[T]) Watching() bool {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	return m.watching
}

func (m *Manager[T]) watch(ctx context.Context) {
	defer m.wg.Done()
	defer func() {
		m.watchMu.Lock()
		m.watching = false
		m.watchMu.Unlock()
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.WatchOnce(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				m.logger.Error("auto-increase watcher stopped", zap.Error(err))
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WatchOnce runs a single watcher tick over every auto-growing pool in
// registration order. It returns the first error of the yield function.
//
// A pool whose reserve is above its threshold, or whose target already
// reached the maximum, keeps its target, but instances left missing by an
// interrupted tick are still created.
func (m *Manager[T]) WatchOnce(ctx context.Context) error {
	for _, p := range m.Pools() {
		if !p.autoGrow {
			continue
		}
		if err := m.growPool(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// growPool raises the target of p by one batch when its reserve fell below
// the threshold, then creates the missing instances one at a time, yielding
// between creations. Instances missing after an interrupted step are created
// on the next tick even when the target already reached the maximum.
func (m *Manager[T]) growPool(ctx context.Context, p *Pool[T]) error {
	p.mu.Lock()
	p.recomputeGrowthParameters()
	reserve := len(p.reserve)
	previous := p.targetCount
	if p.targetCount < p.maxInstances && reserve < p.thresholdCount {
		p.targetCount = min(p.targetCount+p.growBatchSize, p.maxInstances)
		p.recomputeGrowthParameters()
	}
	deficit := p.targetCount - p.total()
	target := p.targetCount
	p.mu.Unlock()

	if deficit < 1 {
		return nil
	}

	m.logger.Info("object pool below threshold, growing",
		zap.String("pool", p.name),
		zap.Int("reserve", reserve),
		zap.Int("create", deficit),
		zap.Int("target", target))

	ctx, span := m.tracer.Start(ctx, "pool.grow", trace.WithAttributes(
		attribute.String("pool.name", p.name),
		attribute.Int("pool.reserve", reserve),
		attribute.Int("pool.target.previous", previous),
		attribute.Int("pool.target", target),
		attribute.Int("pool.deficit", deficit),
	))
	defer span.End()

	created := 0
	var err error
	for i := 0; i < deficit; i++ {
		p.mu.Lock()
		if p.total() >= p.maxInstances {
			p.mu.Unlock()
			break
		}
		created += m.populate(p, 1, metrics.ReasonGrowth)
		p.mu.Unlock()

		if err = m.yield(ctx); err != nil {
			break
		}
	}

	m.metrics.Grew(p.name, created)
	m.grown.Add(ctx, int64(created), metric.WithAttributes(attribute.String("pool.name", p.name)))
	span.SetAttributes(attribute.Int("pool.created", created))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "growth interrupted")
		return err
	}
	return nil
}
