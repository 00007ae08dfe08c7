package observability

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Status grades a measurement against its budget.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

func (s Status) level() zapcore.Level {
	switch s {
	case StatusCritical:
		return zapcore.ErrorLevel
	case StatusDegraded:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// PerformanceLogger logs simulator measurements at a level chosen by how far
// they are from their budget.
type PerformanceLogger struct {
	logger *zap.Logger
}

// NewPerformanceLogger creates a new performance logger
func NewPerformanceLogger(base *zap.Logger) *PerformanceLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &PerformanceLogger{
		logger: base.With(zap.String("component", "performance")),
	}
}

// LogThroughput logs an operations-per-second measurement. Below 80% of
// target is degraded, below 50% critical. A zero target always logs normal.
func (pl *PerformanceLogger) LogThroughput(operation string, perSecond, target float64) Status {
	status := StatusNormal
	switch {
	case target <= 0:
	case perSecond < target*0.5:
		status = StatusCritical
	case perSecond < target*0.8:
		status = StatusDegraded
	}

	pl.logger.Log(status.level(), "throughput measurement",
		zap.String("operation", operation),
		zap.Float64("ops_per_second", perSecond),
		zap.Float64("target", target),
		zap.String("status", string(status)),
		zap.Float64("target_ratio", ratio(perSecond, target)),
	)
	return status
}

// LogLatency logs a latency measurement. Above budget is degraded, above
// twice the budget critical. A zero budget always logs normal.
func (pl *PerformanceLogger) LogLatency(operation string, latency, budget time.Duration) Status {
	status := StatusNormal
	switch {
	case budget <= 0:
	case latency > budget*2:
		status = StatusCritical
	case latency > budget:
		status = StatusDegraded
	}

	pl.logger.Log(status.level(), "latency measurement",
		zap.String("operation", operation),
		zap.Duration("latency", latency),
		zap.Duration("budget", budget),
		zap.String("status", string(status)),
	)
	return status
}

// LogReserve logs the idle reserve of a pool. A reserve under the growth
// threshold is degraded and an empty one critical, since the next acquire
// falls back to an underflow or an unpooled instance.
func (pl *PerformanceLogger) LogReserve(pool string, reserve, threshold int) Status {
	status := StatusNormal
	switch {
	case reserve == 0:
		status = StatusCritical
	case reserve < threshold:
		status = StatusDegraded
	}

	pl.logger.Log(status.level(), "pool reserve",
		zap.String("pool", pool),
		zap.Int("reserve", reserve),
		zap.Int("threshold", threshold),
		zap.String("status", string(status)),
	)
	return status
}

func ratio(v, target float64) float64 {
	if target == 0 {
		return 0
	}
	return v / target
}
