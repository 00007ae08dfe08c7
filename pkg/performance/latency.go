package performance

import (
	"sort"
	"sync"
	"time"
)

// DefaultLatencyWindow is the number of samples a LatencyTracker keeps.
const DefaultLatencyWindow = 10000

// LatencyTracker keeps a sliding window of latency samples.
type LatencyTracker struct {
	samples []time.Duration
	window  int
	count   int64
	mu      sync.Mutex
}

// NewLatencyTracker creates a tracker keeping the last window samples.
func NewLatencyTracker(window int) *LatencyTracker {
	if window <= 0 {
		window = DefaultLatencyWindow
	}
	return &LatencyTracker{
		samples: make([]time.Duration, 0, window),
		window:  window,
	}
}

// Record records a latency sample
func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.count++
	lt.samples = append(lt.samples, d)
	if len(lt.samples) > lt.window {
		lt.samples = lt.samples[len(lt.samples)-lt.window:]
	}
}

// Percentiles summarizes the samples of a LatencyTracker.
type Percentiles struct {
	Count int64         `json:"count"`
	Max   time.Duration `json:"max"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// Percentiles returns percentiles over the current window.
func (lt *LatencyTracker) Percentiles() Percentiles {
	lt.mu.Lock()
	sorted := make([]time.Duration, len(lt.samples))
	copy(sorted, lt.samples)
	count := lt.count
	lt.mu.Unlock()

	if len(sorted) == 0 {
		return Percentiles{Count: count}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return Percentiles{
		Count: count,
		Max:   sorted[len(sorted)-1],
		P50:   sorted[len(sorted)*50/100],
		P95:   sorted[len(sorted)*95/100],
		P99:   sorted[len(sorted)*99/100],
	}
}
