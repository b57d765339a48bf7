package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/crossingguard/autopilot/internal/dispatcher"

type instruments struct {
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter
}

func newInstruments(d *Dispatcher) (*instruments, error) {
	m := otel.Meter(instrumentationName)
	ins := &instruments{}

	var err error
	ins.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events waiting in a command queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for cmd, r := range d.routes {
			if r.lane == nil {
				continue
			}
			o.ObserveInt64(ins.queueSize, int64(r.lane.depth()),
				metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, ins.queueSize)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	if ins.processed, err = m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Events handled, including failures")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if ins.failed, err = m.Int64Counter("dispatcher.events.failed",
		metric.WithDescription("Events whose handler returned an error")); err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	if ins.dropped, err = m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Events dropped due to a full queue")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return ins, nil
}

func (i *instruments) process(command string, err error) {
	attrs := metric.WithAttributes(attribute.String("command", command))
	i.processed.Add(context.Background(), 1, attrs)
	if err != nil {
		i.failed.Add(context.Background(), 1, attrs)
	}
}

func (i *instruments) drop(command string) {
	i.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}
