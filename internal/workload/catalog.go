package workload

import (
	"time"

	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/pool"
)

// DefaultLifetime is the lifetime of the effects of special-lifecycle pools.
const DefaultLifetime = 5 * time.Millisecond

// Templates builds one effect template per configured pool, in file order.
// Effects of special-lifecycle pools get lifetime so they end on their own.
func Templates(cfg *config.ManagerConfig, lifetime time.Duration) []*EffectTemplate {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	templates := make([]*EffectTemplate, 0, len(cfg.Pools))
	seen := make(map[string]bool, len(cfg.Pools))
	for _, pc := range cfg.Pools {
		if pc.Key == "" || seen[pc.Key] {
			continue
		}
		seen[pc.Key] = true

		var d time.Duration
		if pc.IsSpecialLifecycle {
			d = lifetime
		}
		templates = append(templates, NewEffectTemplate(pc.Key, d))
	}
	return templates
}

// Catalog indexes templates for pool.Catalog.Definitions.
func Catalog(templates []*EffectTemplate) *pool.Catalog[*Effect] {
	c := pool.NewCatalog[*Effect]()
	for _, t := range templates {
		c.Add(t)
	}
	return c
}
