package snmp

import (
	"context"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

// Collector polls every host in turn once per cycle.
type Collector struct {
	hosts []*Host
}

func NewCollector(hosts []*Host) *Collector {
	return &Collector{hosts: hosts}
}

// Collect returns one result per host. A host that fails is reported in its result and does not stop the others.
func (c *Collector) Collect(ctx context.Context) []arpmonitor.CycleResult {
	results := make([]arpmonitor.CycleResult, 0, len(c.hosts))
	for _, host := range c.hosts {
		if ctx.Err() != nil {
			break
		}

		bindings, err := host.Poll(ctx)
		results = append(results, arpmonitor.CycleResult{
			Source:   host.Address,
			Bindings: bindings,
			Err:      err,
		})
	}
	return results
}

// Close closes every host session.
func (c *Collector) Close() error {
	var first error
	for _, host := range c.hosts {
		if err := host.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
