// Package objpool is a keyed object pooling engine. It pre-creates
// instances of expensive-to-build objects, hands them out on request,
// takes them back on release, and grows each pool on its own before the
// reserve runs dry.
//
// # Architecture
//
// The engine lives in pkg/pool:
//
//   - Manager[T] is the registry mapping each Template to one Pool and every
//     pooled instance back to its owner. It serves Acquire and Release.
//   - Pool[T] keeps the reserve and in-use sets of one object kind together
//     with its growth parameters.
//   - The auto-increase watcher raises the target population of growing
//     pools when their reserve falls below a threshold, creating one instance
//     at a time and yielding between creations.
//   - Lifecycle hooks return instances to their pool when their use ends on
//     its own, restoring their one-time state first.
//
// Supporting packages follow the usual layout: pkg/config loads YAML
// configuration through viper, pkg/logger wraps zap, pkg/metrics publishes
// Prometheus collectors, pkg/observability sets up OpenTelemetry tracing,
// and pkg/errors carries typed errors.
//
// # Quick Start
//
//	cfg := config.NewManagerConfig()
//	cfg.Pools = []config.PoolConfig{config.DefaultPoolConfig("bullet")}
//
//	bullets := pool.NewTemplate("bullet", newBullet)
//	m, err := pool.NewManager(*cfg, pool.NewCatalog[*Bullet](bullets).Definitions(*cfg))
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	b := m.Acquire(bullets, pool.At(pool.Vec3{X: 1}))
//	defer m.Release(b)
//
// # Command Line
//
// cmd/poolctl validates configuration files and runs simulated workloads:
//
//	poolctl init pools.yaml --pool spark --pool smoke
//	poolctl validate pools.yaml
//	poolctl simulate pools.yaml --workers 16 --duration 10s --output pretty
package objpool
