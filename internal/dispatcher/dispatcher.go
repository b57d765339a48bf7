package dispatcher

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/crossingguard/autopilot/pkg/core"
)

var (
	// ErrQueueFull is returned when a non-blocking buffered handler drops an event.
	ErrQueueFull = errors.New("queue full")
	// ErrUnknownCommand is returned for commands with no registered handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(core.Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on its own goroutine behind a queue of the given size.
func Buffered(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// Blocking makes a buffered handler wait for queue space instead of dropping.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// Logged adds debug logging around each event.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

type route struct {
	handle HandlerFunc
	stats  *counters
	lane   *lane // nil for synchronous handlers
}

// Dispatcher routes agent events (ticks, transitions, maneuvers) to
// registered handlers, typically recorder sinks.
type Dispatcher struct {
	logger  Logger
	metrics *instruments

	mu      sync.RWMutex
	closed  bool
	routes  map[string]*route
	workers sync.WaitGroup
}

// New creates a Dispatcher. Metrics go to the global OTel meter provider,
// which is a no-op until one is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		logger: logger,
		routes: make(map[string]*route),
	}
	m, err := newInstruments(d)
	if err != nil {
		return nil, err
	}
	d.metrics = m
	return d, nil
}

// Register adds a handler for the given command. All registration must
// happen before the first Dispatch.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &route{stats: &counters{}}
	r.handle = d.counted(command, r.stats, h)

	if o.bufferSize > 0 {
		r.lane = d.startLane(command, o.bufferSize, o.blocking, r)
		r.handle = r.lane.enqueue
	}
	if o.logged {
		r.handle = d.withLogging(command, r.handle)
	}

	d.mu.Lock()
	d.routes[command] = r
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler, stamping it with the
// current time when the caller left Timestamp unset.
func (d *Dispatcher) Dispatch(e core.Event) (any, error) {
	d.mu.RLock()
	r, ok := d.routes[e.Command]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return r.handle(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	names := make([]string, 0, len(d.routes))
	for name := range d.routes {
		names = append(names, name)
	}
	d.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Close stops accepting buffered events and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, r := range d.routes {
		if r.lane != nil {
			close(r.lane.queue)
		}
	}
	d.mu.Unlock()

	d.workers.Wait()
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e core.Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "payload", fmt.Sprintf("%T", e.Payload))

		result, err := h(e)
		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
			return result, err
		}
		d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		return result, nil
	}
}
