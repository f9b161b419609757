package metrics

import "time"

// InstanceSnapshot is the minimal per-instance state the collector
// needs to update gauges; it deliberately avoids importing pkg/instance
// so that package can depend on pkg/metrics without a cycle.
type InstanceSnapshot struct {
	InstanceID     string
	StateVersion   uint64
	CacheOccupancy int
}

// Lister is satisfied by the instance registry.
type Lister interface {
	ListInstanceSnapshots() []InstanceSnapshot
}

// Collector periodically samples every live instance and updates the
// per-instance gauges (stateVersion, idempotency cache occupancy,
// instance count).
type Collector struct {
	lister Lister
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over lister.
func NewCollector(lister Lister) *Collector {
	return &Collector{
		lister: lister,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds, in a dedicated
// goroutine, until Stop is called.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	snapshots := c.lister.ListInstanceSnapshots()

	InstancesTotal.Set(float64(len(snapshots)))
	for _, s := range snapshots {
		StateVersion.WithLabelValues(s.InstanceID).Set(float64(s.StateVersion))
		IdempotencyCacheOccupancy.WithLabelValues(s.InstanceID).Set(float64(s.CacheOccupancy))
	}
}
