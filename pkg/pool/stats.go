package pool

import "github.com/ajitpratap0/objpool/pkg/config"

// PoolStats is a point-in-time view of one pool.
type PoolStats struct {
	Name             string `json:"name"`
	InReserve        int    `json:"in_reserve"`
	InUse            int    `json:"in_use"`
	Total            int    `json:"total"`
	Target           int    `json:"target"`
	Max              int    `json:"max"`
	Threshold        int    `json:"threshold"`
	GrowBatch        int    `json:"grow_batch"`
	AutoGrow         bool   `json:"auto_grow"`
	SpecialLifecycle bool   `json:"special_lifecycle"`
}

// Summary is a point-in-time view of a Manager and all of its pools, in
// registration order.
type Summary struct {
	State    InitState       `json:"state"`
	Mode     config.InitMode `json:"mode"`
	Watching bool            `json:"watching"`
	Tracked  int             `json:"tracked_instances"`
	Pools    []PoolStats     `json:"pools"`
}

// TotalInUse sums the in-use counts of every pool.
func (s Summary) TotalInUse() int {
	n := 0
	for _, p := range s.Pools {
		n += p.InUse
	}
	return n
}

// TotalInReserve sums the reserve counts of every pool.
func (s Summary) TotalInReserve() int {
	n := 0
	for _, p := range s.Pools {
		n += p.InReserve
	}
	return n
}
