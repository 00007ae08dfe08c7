package pool

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/metrics"
)

func newBenchManager(b *testing.B, defs ...Definition[*sprite]) *Manager[*sprite] {
	b.Helper()
	cfg := config.NewManagerConfig()
	cfg.AllowLogs = false

	m, err := NewManager(*cfg, defs, WithMetrics(metrics.NewPoolCollector(prometheus.NewRegistry())))
	require.NoError(b, err)
	b.Cleanup(func() { _ = m.Close() })
	return m
}

// BenchmarkAcquireRelease measures one checkout round trip on a warm pool.
func BenchmarkAcquireRelease(b *testing.B) {
	tmpl := spriteTemplate("Spark")
	m := newBenchManager(b, Definition[*sprite]{Template: tmpl, Config: poolConfig("Spark", 64, 64)})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Release(m.Acquire(tmpl))
	}
}

func BenchmarkAcquireReleaseParallel(b *testing.B) {
	tmpl := spriteTemplate("Spark")
	m := newBenchManager(b, Definition[*sprite]{Template: tmpl, Config: poolConfig("Spark", 256, 256)})

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Release(m.Acquire(tmpl, At(Vec3{X: 1})))
		}
	})
}

// BenchmarkAcquireUnpooled measures the fallback path for a kind with no pool.
func BenchmarkAcquireUnpooled(b *testing.B) {
	m := newBenchManager(b)
	tmpl := spriteTemplate("Loose")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Release(m.Acquire(tmpl))
	}
}

func BenchmarkWatchOnce(b *testing.B) {
	tmpl := spriteTemplate("Spark")
	m := newBenchManager(b, Definition[*sprite]{Template: tmpl, Config: growingPoolConfig("Spark", 100, 25, 0.5, 100)})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.WatchOnce(ctx); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(m.Stats().Pools[0].Total), "instances")
}
