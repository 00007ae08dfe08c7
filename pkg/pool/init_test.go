package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/testutil"
)

func TestInitModes(t *testing.T) {
	tmpl := spriteTemplate("Spark")
	defs := []Definition[*sprite]{{Template: tmpl, Config: poolConfig("Spark", 3, 6)}}

	t.Run("immediate", func(t *testing.T) {
		h := newHarness(t, defs, withMode(config.InitModeImmediate))
		assert.Equal(t, StateInitialized, h.manager.State())
		assert.Equal(t, 3, mustCount(t, h.manager.CountTotal, tmpl))
	})

	t.Run("deferred", func(t *testing.T) {
		h := newHarness(t, defs, withMode(config.InitModeDeferred))
		assert.Equal(t, StateUninitialized, h.manager.State())
		assert.Empty(t, h.manager.Pools())

		h.manager.Ready()
		assert.True(t, h.manager.IsInitialized())
		assert.Equal(t, 3, mustCount(t, h.manager.CountTotal, tmpl))
	})

	t.Run("manual", func(t *testing.T) {
		h := newHarness(t, defs, manual())
		h.manager.Ready()
		assert.Equal(t, StateUninitialized, h.manager.State())

		h.manager.Initialize()
		assert.True(t, h.manager.IsInitialized())
		assert.Equal(t, config.InitModeManual, h.manager.Mode())
	})
}

func TestInitializeTwice(t *testing.T) {
	tmpl := spriteTemplate("Spark")
	h := newHarness(t, []Definition[*sprite]{{Template: tmpl, Config: poolConfig("Spark", 3, 6)}})

	h.manager.Initialize()
	h.manager.Ready()

	assert.Len(t, h.manager.Pools(), 1)
	assert.Equal(t, 3, mustCount(t, h.manager.CountTotal, tmpl))
	assert.Contains(t, testutil.Messages(h.logs, zapcore.InfoLevel), "object pool manager is already initialized")
}

func TestInitializeConcurrently(t *testing.T) {
	tmpl := spriteTemplate("Spark")
	h := newHarness(t, []Definition[*sprite]{{Template: tmpl, Config: poolConfig("Spark", 5, 10)}}, manual())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.manager.Initialize()
		}()
	}
	wg.Wait()

	assert.True(t, h.manager.IsInitialized())
	assert.Equal(t, 5, mustCount(t, h.manager.CountTotal, tmpl))
}

func TestInitializeSkipsInvalidDefinitions(t *testing.T) {
	good := spriteTemplate("Good")
	catalog := NewCatalog[*sprite](good)

	cfg := config.NewManagerConfig()
	cfg.Pools = []config.PoolConfig{
		poolConfig("Missing", 2, 4),
		poolConfig("Good", 2, 4),
	}
	h := newHarness(t, catalog.Definitions(*cfg))

	assert.True(t, h.manager.IsInitialized())
	require.Len(t, h.manager.Pools(), 1)
	assert.Equal(t, "Good", h.manager.Pools()[0].Name())
	assert.Contains(t, testutil.Messages(h.logs, zapcore.WarnLevel), "skipped initialization: template is nil")
}

func TestInitStateText(t *testing.T) {
	for state, want := range map[InitState]string{
		StateUninitialized: "uninitialized",
		StateInitializing:  "initializing",
		StateInitialized:   "initialized",
		InitState(9):       "unknown",
	} {
		text, err := state.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, want, string(text))
	}
}
