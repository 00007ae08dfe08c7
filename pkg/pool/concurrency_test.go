package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentAcquireRelease(t *testing.T) {
	const (
		workers    = 8
		iterations = 500
	)

	a, b := spriteTemplate("A"), spriteTemplate("B")
	h := newHarness(t, []Definition[*sprite]{
		{Template: a, Config: growingPoolConfig("A", 8, 50, 0.5, 64)},
		{Template: b, Config: growingPoolConfig("B", 4, 25, 1.0, 32)},
	})

	var (
		checkedOut sync.Map
		doubles    sync.Map
		wg         sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			tmpl := a
			if w%2 == 1 {
				tmpl = b
			}
			held := make([]*sprite, 0, 4)
			for i := 0; i < iterations; i++ {
				obj := h.manager.Acquire(tmpl)
				if _, loaded := checkedOut.LoadOrStore(obj, w); loaded {
					doubles.Store(obj, w)
				}
				held = append(held, obj)
				if len(held) == cap(held) {
					for _, o := range held {
						checkedOut.Delete(o)
						h.manager.Release(o)
					}
					held = held[:0]
				}
			}
			for _, o := range held {
				checkedOut.Delete(o)
				h.manager.Release(o)
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, h.manager.Close())

	doubled := 0
	doubles.Range(func(_, _ any) bool {
		doubled++
		return true
	})
	assert.Zero(t, doubled, "an instance was handed to two callers")

	for _, stats := range h.manager.Stats().Pools {
		assert.Zero(t, stats.InUse, stats.Name)
		assert.Equal(t, stats.Total, stats.InReserve, stats.Name)
		assert.LessOrEqual(t, stats.Total, stats.Max, stats.Name)
	}
}
