package pool_test

import (
	"fmt"

	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/pool"
)

type bullet struct {
	active   bool
	position pool.Vec3
}

func (b *bullet) SetActive(active bool) { b.active = active }

func (b *bullet) Place(p pool.Placement) { b.position = p.Position }

// Example shows a pool configured from a catalog, then one acquire and
// release.
func Example() {
	tmpl := pool.NewTemplate("Bullet", func() *bullet { return &bullet{} })

	cfg := config.NewManagerConfig()
	cfg.AllowLogs = false
	entry := config.DefaultPoolConfig("Bullet")
	entry.InitialCount = 10
	cfg.Pools = []config.PoolConfig{entry}

	m, err := pool.NewManager(*cfg, pool.NewCatalog[*bullet](tmpl).Definitions(*cfg))
	if err != nil {
		panic(err)
	}
	defer m.Close()

	b := m.Acquire(tmpl, pool.At(pool.Vec3{X: 3}))
	inUse, _ := m.CountInUse(tmpl)
	fmt.Println(b.active, b.position.X, inUse)

	m.Release(b)
	reserve, _ := m.CountInReserve(tmpl)
	fmt.Println(b.active, reserve)

	// Output:
	// true 3 1
	// false 10
}

// ExampleManager_Ready shows deferred initialization.
func ExampleManager_Ready() {
	tmpl := pool.NewTemplate("Bullet", func() *bullet { return &bullet{} })

	cfg := config.NewManagerConfig()
	cfg.AllowLogs = false
	cfg.InitMode = config.InitModeDeferred

	m, _ := pool.NewManager(*cfg, []pool.Definition[*bullet]{
		{Template: tmpl, Config: config.DefaultPoolConfig("Bullet")},
	})
	defer m.Close()

	fmt.Println(m.State())
	m.Ready()
	total, _ := m.CountTotal(tmpl)
	fmt.Println(m.State(), total)

	// Output:
	// uninitialized
	// initialized 50
}

// ExampleManager_Acquire_unregistered shows the fallback for a kind without a
// pool.
func ExampleManager_Acquire_unregistered() {
	cfg := config.NewManagerConfig()
	cfg.AllowLogs = false

	m, _ := pool.NewManager[*bullet](*cfg, nil)
	defer m.Close()

	ghost := pool.NewTemplate("Ghost", func() *bullet { return &bullet{} })
	b := m.Acquire(ghost)
	_, pooled := m.PoolOf(b)
	fmt.Println(b.active, pooled)

	// Output:
	// true false
}
