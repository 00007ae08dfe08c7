package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/objpool/pkg/config"
	poolerrors "github.com/ajitpratap0/objpool/pkg/errors"
)

// InitState is the initialization state of a Manager.
type InitState int32

const (
	// StateUninitialized is the state of a new Manager in deferred or manual mode
	StateUninitialized InitState = iota
	// StateInitializing is held while configured pools are populated
	StateInitializing
	// StateInitialized is terminal
	StateInitialized
)

// String implements fmt.Stringer
func (s InitState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s InitState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Initialize registers and populates every configured pool, then starts the
// auto-increase watcher if any pool grows automatically. It runs at most once;
// later calls only log a diagnostic.
func (m *Manager[T]) Initialize() {
	if !m.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		err := poolerrors.New(poolerrors.ErrorTypeState, "pool manager is already initialized").
			WithDetail("state", m.State().String())
		m.logger.Info("object pool manager is already initialized",
			zap.Stringer("state", m.State()),
			zap.Error(err))
		m.metrics.Event("", string(poolerrors.ErrorTypeState))
		return
	}

	for _, def := range m.definitions {
		// Failures are logged by RegisterPool and leave the other pools intact.
		_ = m.RegisterPool(def.Template, def.Config)
	}

	m.state.Store(int32(StateInitialized))
	m.startWatcher()

	m.logger.Info("object pool manager initialized",
		zap.String("mode", string(m.mode)),
		zap.Int("pools", len(m.Pools())))
}

// Ready is the external readiness signal. It initializes a Manager in
// deferred mode and is ignored in the other modes.
func (m *Manager[T]) Ready() {
	if m.mode != config.InitModeDeferred {
		m.logger.Debug("readiness signal ignored", zap.String("mode", string(m.mode)))
		return
	}
	m.Initialize()
}

// IsInitialized reports whether initialization has completed.
func (m *Manager[T]) IsInitialized() bool {
	return m.State() == StateInitialized
}

// State returns the current initialization state.
func (m *Manager[T]) State() InitState {
	return InitState(m.state.Load())
}

// Mode returns the initialization mode chosen at construction.
func (m *Manager[T]) Mode() config.InitMode {
	return m.mode
}
