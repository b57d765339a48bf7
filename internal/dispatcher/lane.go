package dispatcher

import (
	"fmt"

	"github.com/crossingguard/autopilot/pkg/core"
)

// lane is the queue and worker goroutine behind a Buffered handler.
type lane struct {
	d        *Dispatcher
	command  string
	queue    chan core.Event
	blocking bool
	stats    *counters
}

func (d *Dispatcher) startLane(command string, size int, blocking bool, r *route) *lane {
	l := &lane{
		d:        d,
		command:  command,
		queue:    make(chan core.Event, size),
		blocking: blocking,
		stats:    r.stats,
	}
	handle := r.handle

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range l.queue {
			if _, err := handle(e); err != nil {
				d.logger.Error("buffered handler failed", "command", command, "error", err)
			}
		}
	}()
	return l
}

// enqueue hands the event to the worker. Non-blocking lanes drop the event
// and return ErrQueueFull when the queue is at capacity.
func (l *lane) enqueue(e core.Event) (any, error) {
	l.d.mu.RLock()
	defer l.d.mu.RUnlock()
	if l.d.closed {
		return nil, ErrClosed
	}

	if l.blocking {
		l.queue <- e
		return "queued", nil
	}

	select {
	case l.queue <- e:
		return "queued", nil
	default:
		l.stats.dropped.Add(1)
		l.d.metrics.drop(l.command)
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, l.command)
	}
}

func (l *lane) depth() int {
	return len(l.queue)
}
