package pool

import (
	"sync"

	"github.com/ajitpratap0/objpool/pkg/config"
)

// InstanceState is the position of an owned instance inside its pool.
type InstanceState int

const (
	// InReserve instances are idle and available for acquisition
	InReserve InstanceState = iota
	// InUse instances are checked out to a caller
	InUse
)

// String implements fmt.Stringer
func (s InstanceState) String() string {
	switch s {
	case InReserve:
		return "in_reserve"
	case InUse:
		return "in_use"
	default:
		return "unknown"
	}
}

// Pool owns the reserve/in-use partition of the instances of one object kind.
// Every owned instance is in exactly one of the two sets. A pool only grows:
// no operation removes an instance from it.
//
// Pools are created by Manager.RegisterPool and live as long as the Manager.
type Pool[T Object] struct {
	mu sync.Mutex

	key    Template[T]
	name   string
	holder *HoldingArea

	// reserve pops from the tail; reserveSet mirrors it for O(1) membership.
	reserve    []T
	reserveSet map[T]struct{}
	inUse      map[T]struct{}

	targetCount          int
	maxInstances         int
	autoGrow             bool
	growThresholdPercent int
	growCoefficient      float64
	specialLifecycle     bool

	// derived from targetCount by recomputeGrowthParameters
	thresholdCount int
	growBatchSize  int
}

func newPool[T Object](key Template[T], settings config.PoolConfig) *Pool[T] {
	p := &Pool[T]{
		key:                  key,
		name:                 settings.Key,
		holder:               &HoldingArea{name: settings.Key + " Pool"},
		reserve:              make([]T, 0, settings.InitialCount),
		reserveSet:           make(map[T]struct{}, settings.InitialCount),
		inUse:                make(map[T]struct{}, settings.InitialCount),
		targetCount:          settings.InitialCount,
		maxInstances:         settings.MaxInstances,
		autoGrow:             settings.AutoGrow,
		growThresholdPercent: settings.GrowThresholdPercent,
		growCoefficient:      settings.GrowCoefficient,
		specialLifecycle:     settings.IsSpecialLifecycle,
	}
	p.recomputeGrowthParameters()
	return p
}

// Key returns the template the pool was registered with.
func (p *Pool[T]) Key() Template[T] {
	return p.key
}

// Name returns the pool name.
func (p *Pool[T]) Name() string {
	return p.name
}

// Holder returns the holding area idle instances are parented to.
func (p *Pool[T]) Holder() Parent {
	return p.holder
}

// AutoGrow reports whether the watcher may raise the target population.
func (p *Pool[T]) AutoGrow() bool {
	return p.autoGrow
}

// Settings returns the current settings of the pool, with InitialCount
// reporting the current target population.
func (p *Pool[T]) Settings() config.PoolConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settingsLocked()
}

// settingsLocked requires p.mu.
func (p *Pool[T]) settingsLocked() config.PoolConfig {
	return config.PoolConfig{
		Key:                  p.name,
		InitialCount:         p.targetCount,
		IsSpecialLifecycle:   p.specialLifecycle,
		AutoGrow:             p.autoGrow,
		GrowThresholdPercent: p.growThresholdPercent,
		GrowCoefficient:      p.growCoefficient,
		MaxInstances:         p.maxInstances,
	}
}

// Stats returns a consistent snapshot of the pool.
func (p *Pool[T]) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats()
}

// stats requires p.mu.
func (p *Pool[T]) stats() PoolStats {
	return PoolStats{
		Name:             p.name,
		InReserve:        len(p.reserve),
		InUse:            len(p.inUse),
		Total:            p.total(),
		Target:           p.targetCount,
		Max:              p.maxInstances,
		Threshold:        p.thresholdCount,
		GrowBatch:        p.growBatchSize,
		AutoGrow:         p.autoGrow,
		SpecialLifecycle: p.specialLifecycle,
	}
}

// recomputeGrowthParameters derives thresholdCount and growBatchSize from
// targetCount. It must run after every change to targetCount,
// growThresholdPercent or growCoefficient. Requires p.mu once the pool is
// shared.
func (p *Pool[T]) recomputeGrowthParameters() {
	p.thresholdCount = int(float64(p.targetCount) * float64(p.growThresholdPercent) / 100)
	p.growBatchSize = int(float64(p.targetCount) * p.growCoefficient)
	// A zero batch would leave a small pool below its threshold forever.
	if p.growBatchSize < 1 && p.targetCount < p.maxInstances {
		p.growBatchSize = 1
	}
}

// total requires p.mu.
func (p *Pool[T]) total() int {
	return len(p.reserve) + len(p.inUse)
}

// populate creates count instances into the reserve. register is called for
// every new instance before it becomes visible in the reserve and reports
// whether the instance was accepted. Requires p.mu.
func (p *Pool[T]) populate(count int, register func(*Pool[T], T) bool) int {
	created := 0
	for i := 0; i < count; i++ {
		obj := p.key.New()
		if !register(p, obj) {
			continue
		}
		p.returnToReserve(obj)
		created++
	}
	return created
}

// takeFromReserve moves the instance at the tail of the reserve to the
// in-use set. Requires p.mu.
func (p *Pool[T]) takeFromReserve() (T, bool) {
	n := len(p.reserve)
	if n == 0 {
		var zero T
		return zero, false
	}
	obj := p.reserve[n-1]
	var zero T
	p.reserve[n-1] = zero
	p.reserve = p.reserve[:n-1]
	delete(p.reserveSet, obj)
	p.inUse[obj] = struct{}{}
	return obj, true
}

// returnToReserve moves obj out of the in-use set and parks it in the
// reserve unless it is already there. Requires p.mu.
func (p *Pool[T]) returnToReserve(obj T) bool {
	delete(p.inUse, obj)
	park(obj, p.holder)
	if _, ok := p.reserveSet[obj]; ok {
		return false
	}
	p.reserve = append(p.reserve, obj)
	p.reserveSet[obj] = struct{}{}
	return true
}

// stateOf requires p.mu.
func (p *Pool[T]) stateOf(obj T) InstanceState {
	if _, ok := p.reserveSet[obj]; ok {
		return InReserve
	}
	return InUse
}
