package pool

import (
	"go.uber.org/zap"

	poolerrors "github.com/ajitpratap0/objpool/pkg/errors"
	"github.com/ajitpratap0/objpool/pkg/metrics"
)

// untrackedLabel is the metrics pool label of instances no pool owns.
const untrackedLabel = "untracked"

// Acquire hands out an active instance of tmpl, placed according to opts.
//
// The instance comes from the reserve of the pool registered for tmpl. An
// empty reserve grows the pool by one instance and retries once. When the
// pool cannot grow, or tmpl has no pool, Acquire builds an unpooled instance
// that Release will destroy. A nil tmpl yields the zero value.
//
// A pool at its maximum never grows past it: an empty reserve there yields an
// unpooled instance rather than one more pooled instance.
func (m *Manager[T]) Acquire(tmpl Template[T], opts ...PlaceOption) T {
	placement := newPlacement(opts)

	if tmpl == nil {
		err := poolerrors.New(poolerrors.ErrorTypeConfig, "acquire with a nil template")
		m.report("", "cannot acquire from a nil template", err)
		var zero T
		return zero
	}

	p := m.lookup(tmpl)
	if p == nil {
		err := poolerrors.New(poolerrors.ErrorTypeUnregistered, "no pool registered for template").
			WithDetail("template", tmpl.Name())
		m.report(tmpl.Name(), "no object pool for template, creating an unpooled instance", err,
			zap.String("template", tmpl.Name()))
		return m.unpooled(tmpl, tmpl.Name(), placement)
	}

	p.mu.Lock()
	source := metrics.SourceReserve
	obj, ok := p.takeFromReserve()
	if !ok {
		if p.total() >= p.maxInstances {
			stats := p.stats()
			p.mu.Unlock()

			err := poolerrors.New(poolerrors.ErrorTypeExhausted, "pool is at its maximum population").
				WithDetail("pool", stats.Name).
				WithDetail("max", stats.Max)
			m.report(stats.Name, "object pool exhausted, creating an unpooled instance", err,
				zap.String("pool", stats.Name),
				zap.Int("in_use", stats.InUse),
				zap.Int("max", stats.Max))
			return m.unpooled(tmpl, stats.Name, placement)
		}

		err := poolerrors.New(poolerrors.ErrorTypeUnderflow, "reserve is empty").
			WithDetail("pool", p.name)
		m.report(p.name, "object pool underflow, adding one instance", err,
			zap.String("pool", p.name),
			zap.Int("in_use", len(p.inUse)))

		m.populate(p, 1, metrics.ReasonUnderflow)
		source = metrics.SourceUnderflow
		obj, ok = p.takeFromReserve()
		if !ok {
			name := p.name
			p.mu.Unlock()
			return m.unpooled(tmpl, name, placement)
		}
	}

	activate(obj, placement)
	m.observe(p)
	p.mu.Unlock()

	m.metrics.Acquired(p.name, source)
	return obj
}

func (m *Manager[T]) unpooled(tmpl Template[T], label string, placement Placement) T {
	obj := tmpl.New()
	activate(obj, placement)
	m.metrics.Acquired(label, metrics.SourceUnpooled)
	return obj
}

// Release returns obj to the reserve of its pool and deactivates it.
// Releasing an instance that is already in reserve changes nothing. An
// instance no pool owns is destroyed.
func (m *Manager[T]) Release(obj T) {
	var zero T
	if obj == zero {
		m.logger.Warn("ignored release of a zero instance")
		return
	}

	p := m.ownerOf(obj)
	if p == nil {
		err := poolerrors.New(poolerrors.ErrorTypeUntracked, "instance is not owned by any pool")
		destroyed := destroy(obj)
		if !destroyed {
			obj.SetActive(false)
		}
		m.report(untrackedLabel, "released an instance that is not pooled, destroying it", err,
			zap.Bool("destroyed", destroyed))
		m.metrics.Released(untrackedLabel, metrics.OutcomeDestroyed)
		return
	}

	p.mu.Lock()
	p.returnToReserve(obj)
	m.observe(p)
	p.mu.Unlock()

	m.metrics.Released(p.name, metrics.OutcomeRecycled)
}

// CountInUse returns the number of checked-out instances of tmpl's pool.
func (m *Manager[T]) CountInUse(tmpl Template[T]) (int, error) {
	s, err := m.poolStats(tmpl)
	return s.InUse, err
}

// CountInReserve returns the number of idle instances of tmpl's pool.
func (m *Manager[T]) CountInReserve(tmpl Template[T]) (int, error) {
	s, err := m.poolStats(tmpl)
	return s.InReserve, err
}

// CountTotal returns the number of instances owned by tmpl's pool.
func (m *Manager[T]) CountTotal(tmpl Template[T]) (int, error) {
	s, err := m.poolStats(tmpl)
	return s.Total, err
}

func (m *Manager[T]) poolStats(tmpl Template[T]) (PoolStats, error) {
	p := m.lookup(tmpl)
	if p == nil {
		name := ""
		if tmpl != nil {
			name = tmpl.Name()
		}
		return PoolStats{}, poolerrors.New(poolerrors.ErrorTypeNotFound, "no pool registered for template").
			WithDetail("template", name)
	}
	return p.Stats(), nil
}

// StateOf reports whether obj is in reserve or in use. ok is false for
// instances no pool owns.
func (m *Manager[T]) StateOf(obj T) (state InstanceState, ok bool) {
	p := m.ownerOf(obj)
	if p == nil {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateOf(obj), true
}

// IsInReserve reports whether obj is pooled and idle.
func (m *Manager[T]) IsInReserve(obj T) bool {
	state, ok := m.StateOf(obj)
	return ok && state == InReserve
}

// UpdateGrowth changes the growth settings of tmpl's pool at runtime. The
// threshold and batch size are recomputed immediately.
func (m *Manager[T]) UpdateGrowth(tmpl Template[T], thresholdPercent int, coefficient float64) error {
	p := m.lookup(tmpl)
	if p == nil {
		return poolerrors.New(poolerrors.ErrorTypeNotFound, "no pool registered for template")
	}

	p.mu.Lock()
	settings := p.settingsLocked()
	settings.GrowThresholdPercent = thresholdPercent
	settings.GrowCoefficient = coefficient
	if err := settings.Validate(); err != nil {
		p.mu.Unlock()
		return poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, "invalid growth settings").
			WithDetail("pool", settings.Key)
	}
	p.growThresholdPercent = thresholdPercent
	p.growCoefficient = coefficient
	p.recomputeGrowthParameters()
	stats := p.stats()
	p.mu.Unlock()

	m.logger.Info("updated object pool growth settings",
		zap.String("pool", stats.Name),
		zap.Int("threshold", stats.Threshold),
		zap.Int("grow_batch", stats.GrowBatch))
	return nil
}
