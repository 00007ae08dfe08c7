package workload

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/objpool/pkg/pool"
)

var effectIDs atomic.Int64

// Effect is the object kind driven by the simulator. An effect with a
// lifetime reports the end of its use once the lifetime elapses after
// activation, like a timed visual effect running out.
type Effect struct {
	mu sync.Mutex

	ID       int64
	Kind     string
	lifetime time.Duration

	active    bool
	parent    pool.Parent
	placement pool.Placement
	charge    int
	destroyed bool

	onEnd func()
	timer *time.Timer
	// use increments on every activation so a stale timer cannot end a
	// later use
	use uint64
}

// SetActive arms the lifetime timer on activation and disarms it on
// deactivation.
func (e *Effect) SetActive(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.active = active
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if active {
		e.use++
		if e.lifetime > 0 && e.onEnd != nil {
			use := e.use
			e.timer = time.AfterFunc(e.lifetime, func() { e.expire(use) })
		}
	}
}

func (e *Effect) expire(use uint64) {
	e.mu.Lock()
	fn := e.onEnd
	live := e.active && e.use == use
	e.mu.Unlock()
	if live && fn != nil {
		fn()
	}
}

// SetParent implements pool.Parentable.
func (e *Effect) SetParent(p pool.Parent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parent = p
}

// Place implements pool.Placeable.
func (e *Effect) Place(p pool.Placement) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.placement = p
}

// Destroy implements pool.Destroyer.
func (e *Effect) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// NotifyOnEnd implements pool.EndNotifier.
func (e *Effect) NotifyOnEnd(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnd = fn
}

// SnapshotState implements pool.StateSnapshotter. The charge is restored on
// every end of use.
func (e *Effect) SnapshotState() func() {
	e.mu.Lock()
	charge := e.charge
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.charge = charge
	}
}

// Drain spends one unit of charge, the one-time state of an effect.
func (e *Effect) Drain() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.charge > 0 {
		e.charge--
	}
}

// Active reports whether the effect is in use.
func (e *Effect) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Destroyed reports whether the effect was destroyed.
func (e *Effect) Destroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

// Charge returns the remaining charge.
func (e *Effect) Charge() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.charge
}

// EffectTemplate builds the effects of one kind.
type EffectTemplate struct {
	name     string
	lifetime time.Duration
	charge   int
}

// NewEffectTemplate returns a template for kind. A positive lifetime makes
// its effects end on their own.
func NewEffectTemplate(kind string, lifetime time.Duration) *EffectTemplate {
	return &EffectTemplate{name: kind, lifetime: lifetime, charge: 3}
}

// Name implements pool.Template.
func (t *EffectTemplate) Name() string {
	return t.name
}

// New implements pool.Template.
func (t *EffectTemplate) New() *Effect {
	return &Effect{
		ID:       effectIDs.Add(1),
		Kind:     t.name,
		lifetime: t.lifetime,
		charge:   t.charge,
	}
}

// Lifetime returns the lifetime of the effects of the template.
func (t *EffectTemplate) Lifetime() time.Duration {
	return t.lifetime
}
