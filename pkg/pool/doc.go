// Package pool implements an object pooling engine for expensive-to-create
// objects. It pre-allocates instances per object kind, hands them out on
// demand, takes them back when their use ends, and grows pools in the
// background when their reserve runs low.
//
// Architecture
//
// A Manager owns one Pool per Template. Every pooled instance belongs to
// exactly one pool for its whole life and is either in reserve (idle,
// inactive, parented to the pool's holding area) or in use (active, placed
// by the caller). Pools only grow.
//
// Core Types:
//
//   - Object: constraint for pooled values, normally pointer types
//   - Template[T]: names an object kind and builds its instances
//   - Manager[T]: registry, acquire/release, watcher and initialization
//   - Hook[T]: returns instances that report the end of their use
//   - Catalog[T]: resolves template names used in configuration files
//
// Usage
//
//	tmpl := pool.NewTemplate("Spark", NewSpark)
//	cfg := config.NewManagerConfig()
//	cfg.Pools = []config.PoolConfig{config.DefaultPoolConfig("Spark")}
//
//	m, err := pool.NewManager(*cfg, pool.NewCatalog[*Spark](tmpl).Definitions(*cfg))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	spark := m.Acquire(tmpl, pool.At(pool.Vec3{X: 1}))
//	// ...
//	m.Release(spark)
//
// Recovery
//
// Acquire never fails. An empty reserve grows the pool by one instance; a
// pool at its maximum population, or a template without a pool, yields an
// unpooled instance. Releasing an instance no pool owns destroys it. Each of
// these conditions is logged through zap and counted in the Prometheus
// collector.
//
// Auto-Increase
//
// Pools registered with AutoGrow are inspected by a watcher goroutine once the
// Manager is initialized, immediately and then every watch interval. A pool
// whose reserve is below GrowThresholdPercent of its target raises the target
// by GrowCoefficient of itself, capped at MaxInstances, and creates the
// missing instances one at a time, yielding between creations.
//
// Concurrency
//
// Each pool has its own lock. Object callbacks run under that lock and must
// not call back into the Manager.
package pool
