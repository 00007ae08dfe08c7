package pool

import (
	"sort"
	"sync"

	"github.com/ajitpratap0/objpool/pkg/config"
)

// Catalog resolves the template names used in configuration files.
type Catalog[T Object] struct {
	mu        sync.RWMutex
	templates map[string]Template[T]
}

// NewCatalog returns a catalog holding templates, indexed by name.
func NewCatalog[T Object](templates ...Template[T]) *Catalog[T] {
	c := &Catalog[T]{templates: make(map[string]Template[T], len(templates))}
	for _, t := range templates {
		c.Add(t)
	}
	return c
}

// Add indexes tmpl by its name, replacing any template with the same name.
func (c *Catalog[T]) Add(tmpl Template[T]) {
	if tmpl == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[tmpl.Name()] = tmpl
}

// Lookup returns the template named name.
func (c *Catalog[T]) Lookup(name string) (Template[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[name]
	return t, ok
}

// Names returns the indexed template names in lexical order.
func (c *Catalog[T]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions turns the pools of cfg into Manager definitions, in file order.
// A key with no template yields a definition with a nil Template, which the
// Manager reports as a configuration error and skips.
func (c *Catalog[T]) Definitions(cfg config.ManagerConfig) []Definition[T] {
	defs := make([]Definition[T], 0, len(cfg.Pools))
	for _, pc := range cfg.Pools {
		tmpl, _ := c.Lookup(pc.Key)
		defs = append(defs, Definition[T]{Template: tmpl, Config: pc})
	}
	return defs
}
