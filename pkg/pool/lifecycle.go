package pool

import "sync/atomic"

// Hook returns an instance to its pool when the instance reports the natural
// end of its use, restoring its one-time reset state first.
//
// Hooks are attached to the instances of pools registered with
// IsSpecialLifecycle. The end signal must not be raised from inside
// SetActive, SetParent or Place.
type Hook[T Object] struct {
	manager *Manager[T]
	obj     T
	restore func()
	fired   atomic.Int64
}

// attachHook subscribes a new Hook to the end signal of obj. ok is false if
// obj cannot report the end of its use.
func attachHook[T Object](m *Manager[T], obj T) (*Hook[T], bool) {
	notifier, ok := any(obj).(EndNotifier)
	if !ok {
		return nil, false
	}
	h := &Hook[T]{manager: m, obj: obj}
	if s, ok := any(obj).(StateSnapshotter); ok {
		h.restore = s.SnapshotState()
	}
	notifier.NotifyOnEnd(h.onEnd)
	return h, true
}

func (h *Hook[T]) onEnd() {
	if h.restore != nil {
		h.restore()
	}
	h.fired.Add(1)
	h.manager.Release(h.obj)
}

// Object returns the instance the hook is attached to.
func (h *Hook[T]) Object() T {
	return h.obj
}

// Fired returns how many times the instance reported the end of its use.
func (h *Hook[T]) Fired() int64 {
	return h.fired.Load()
}
