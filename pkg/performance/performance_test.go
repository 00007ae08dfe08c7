package performance

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyTracker(t *testing.T) {
	lt := NewLatencyTracker(0)
	assert.Equal(t, Percentiles{}, lt.Percentiles())

	for i := 100; i >= 1; i-- {
		lt.Record(time.Duration(i) * time.Millisecond)
	}

	p := lt.Percentiles()
	assert.EqualValues(t, 100, p.Count)
	assert.Equal(t, 51*time.Millisecond, p.P50)
	assert.Equal(t, 96*time.Millisecond, p.P95)
	assert.Equal(t, 100*time.Millisecond, p.P99)
	assert.Equal(t, 100*time.Millisecond, p.Max)
}

func TestLatencyTrackerWindow(t *testing.T) {
	lt := NewLatencyTracker(10)
	for i := 1; i <= 50; i++ {
		lt.Record(time.Duration(i))
	}

	p := lt.Percentiles()
	assert.EqualValues(t, 50, p.Count)
	assert.Equal(t, time.Duration(46), p.P50)
	assert.Equal(t, time.Duration(50), p.Max)
}

func TestLatencyTrackerConcurrent(t *testing.T) {
	lt := NewLatencyTracker(100)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				lt.Record(time.Microsecond)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1000, lt.Percentiles().Count)
}

func TestResourceMonitor(t *testing.T) {
	rm, err := NewResourceMonitor()
	require.NoError(t, err)

	usage := rm.Usage()
	assert.Positive(t, usage.GoroutineCount)
	assert.Positive(t, usage.HeapAlloc)
	assert.GreaterOrEqual(t, usage.CPUPercent, 0.0)
}
