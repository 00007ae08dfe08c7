package pool

// Object is the constraint satisfied by pooled instances. Instances are used
// as map keys, so they are normally pointer types.
type Object interface {
	comparable
	SetActive(active bool)
}

// Template creates the instances of one object kind and identifies its pool.
// Implementations must be comparable; pointer receivers are the norm.
type Template[T Object] interface {
	Name() string
	New() T
}

// Parent is something an instance can be attached to.
type Parent interface {
	Name() string
}

// Placeable is implemented by objects that accept placement overrides on
// acquisition.
type Placeable interface {
	Place(Placement)
}

// Parentable is implemented by objects that can be re-parented. Released
// instances are attached to their pool's holding area.
type Parentable interface {
	SetParent(Parent)
}

// Destroyer is implemented by objects that hold resources to free when they
// cannot be pooled.
type Destroyer interface {
	Destroy()
}

// EndNotifier is implemented by objects that can report the natural end of
// their use, such as a timed effect finishing. fn may be called from any
// goroutine and at most once per use.
type EndNotifier interface {
	NotifyOnEnd(fn func())
}

// StateSnapshotter is implemented by objects that need one-time reset state
// restored before reuse. SnapshotState is called once, when the lifecycle
// hook is attached, and the returned func on every end of use.
type StateSnapshotter interface {
	SnapshotState() (restore func())
}

// HoldingArea is the parent of the idle instances of one pool.
type HoldingArea struct {
	name string
}

// Name returns "<pool> Pool".
func (h *HoldingArea) Name() string {
	return h.name
}

// TemplateFunc adapts a name and a constructor into a Template.
type TemplateFunc[T Object] struct {
	name  string
	newFn func() T
}

// NewTemplate returns a Template named name that builds instances with newFn.
func NewTemplate[T Object](name string, newFn func() T) *TemplateFunc[T] {
	return &TemplateFunc[T]{name: name, newFn: newFn}
}

// Name returns the template name.
func (t *TemplateFunc[T]) Name() string {
	return t.name
}

// New builds one instance.
func (t *TemplateFunc[T]) New() T {
	return t.newFn()
}

func activate[T Object](obj T, placement Placement) {
	obj.SetActive(true)
	if p, ok := any(obj).(Parentable); ok {
		p.SetParent(placement.Parent)
	}
	if p, ok := any(obj).(Placeable); ok {
		p.Place(placement)
	}
}

func park[T Object](obj T, holder *HoldingArea) {
	if p, ok := any(obj).(Parentable); ok {
		p.SetParent(holder)
	}
	obj.SetActive(false)
}

func destroy[T Object](obj T) bool {
	if d, ok := any(obj).(Destroyer); ok {
		d.Destroy()
		return true
	}
	return false
}
