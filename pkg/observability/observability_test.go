package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/testutil"
)

func TestInitTracingExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Writer = &buf
	cfg.PrettyPrint = false
	cfg.BatchTimeout = 10 * time.Millisecond

	tp, err := InitTracing(cfg)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "pool.grow")
	span.End()

	require.NoError(t, Shutdown(context.Background(), tp))
	assert.Contains(t, buf.String(), "pool.grow")
	assert.Contains(t, buf.String(), "objpool")
}

func TestTracingFromConfig(t *testing.T) {
	obs := config.NewManagerConfig().Observability
	obs.TracingSampleRate = 0.25

	tc := TracingFromConfig(obs, "v1.2.3")
	assert.Equal(t, 0.25, tc.SamplingRate)
	assert.Equal(t, "v1.2.3", tc.ServiceVersion)
	assert.Equal(t, "objpool", tc.ServiceName)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), Sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(1.5).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.5).Description(), Sampler(0.5).Description())
}

func TestShutdownNil(t *testing.T) {
	assert.NoError(t, Shutdown(context.Background(), nil))
}

func TestPerformanceLogger(t *testing.T) {
	log, logs := testutil.ObservedLogger(zapcore.DebugLevel)
	pl := NewPerformanceLogger(log)

	statuses := []Status{
		pl.LogThroughput("acquire", 1000, 1000),
		pl.LogThroughput("acquire", 700, 1000),
		pl.LogThroughput("acquire", 100, 1000),
		pl.LogThroughput("acquire", 1, 0),
		pl.LogLatency("acquire", time.Millisecond, 2*time.Millisecond),
		pl.LogLatency("acquire", 3*time.Millisecond, 2*time.Millisecond),
		pl.LogLatency("acquire", 5*time.Millisecond, 2*time.Millisecond),
		pl.LogReserve("spark", 40, 30),
		pl.LogReserve("spark", 10, 30),
		pl.LogReserve("spark", 0, 30),
	}
	assert.Equal(t, []Status{
		StatusNormal, StatusDegraded, StatusCritical, StatusNormal,
		StatusNormal, StatusDegraded, StatusCritical,
		StatusNormal, StatusDegraded, StatusCritical,
	}, statuses)

	entries := logs.All()
	require.Len(t, entries, len(statuses))
	for i, e := range entries {
		assert.Equal(t, statuses[i].level(), e.Level)
		assert.Equal(t, "performance", e.ContextMap()["component"])
	}
	assert.Equal(t, "spark", entries[9].ContextMap()["pool"])
}
