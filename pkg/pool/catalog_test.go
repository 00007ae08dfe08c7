package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/objpool/pkg/config"
)

func TestCatalog(t *testing.T) {
	spark, bullet := spriteTemplate("Spark"), spriteTemplate("Bullet")
	c := NewCatalog[*sprite](spark, nil, bullet)

	assert.Equal(t, []string{"Bullet", "Spark"}, c.Names())

	got, ok := c.Lookup("Spark")
	require.True(t, ok)
	assert.Equal(t, Template[*sprite](spark), got)

	_, ok = c.Lookup("Ghost")
	assert.False(t, ok)

	replacement := spriteTemplate("Spark")
	c.Add(replacement)
	got, _ = c.Lookup("Spark")
	assert.Equal(t, Template[*sprite](replacement), got)
}

func TestCatalogDefinitions(t *testing.T) {
	spark := spriteTemplate("Spark")
	c := NewCatalog[*sprite](spark)

	cfg := config.NewManagerConfig()
	cfg.Pools = []config.PoolConfig{
		poolConfig("Spark", 1, 2),
		poolConfig("Ghost", 1, 2),
	}

	defs := c.Definitions(*cfg)
	require.Len(t, defs, 2)
	assert.Equal(t, Template[*sprite](spark), defs[0].Template)
	assert.Equal(t, "Spark", defs[0].Config.Key)
	assert.Nil(t, defs[1].Template)
	assert.Equal(t, "Ghost", defs[1].Config.Key)
}
