package dispatcher

import (
	"sync/atomic"

	"github.com/crossingguard/autopilot/pkg/core"
)

// CommandStats counts what happened to the events of one command.
type CommandStats struct {
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
	Queued    int    `json:"queued"`
}

type counters struct {
	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// counted wraps the user handler so every completed call is counted,
// whether it ran inline or on a lane worker.
func (d *Dispatcher) counted(command string, c *counters, h HandlerFunc) HandlerFunc {
	return func(e core.Event) (any, error) {
		result, err := h(e)
		c.processed.Add(1)
		if err != nil {
			c.failed.Add(1)
		}
		d.metrics.process(command, err)
		return result, err
	}
}

// Stats returns a per-command snapshot of the counters.
func (d *Dispatcher) Stats() map[string]CommandStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]CommandStats, len(d.routes))
	for name, r := range d.routes {
		s := CommandStats{
			Processed: r.stats.processed.Load(),
			Failed:    r.stats.failed.Load(),
			Dropped:   r.stats.dropped.Load(),
		}
		if r.lane != nil {
			s.Queued = r.lane.depth()
		}
		out[name] = s
	}
	return out
}

// Dropped is the number of events lost to full queues across all commands.
func (d *Dispatcher) Dropped() uint64 {
	var n uint64
	for _, s := range d.Stats() {
		n += s.Dropped
	}
	return n
}
