package agent

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/crossingguard/autopilot/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	ticks       metric.Int64Counter
	transitions metric.Int64Counter
	maneuvers   metric.Int64Counter
	confidence  metric.Float64Histogram
	tracked     metric.Int64ObservableGauge

	trackedNow atomic.Int64
}

func newInstruments() (*instruments, error) {
	m := meter()
	in := &instruments{}

	var err error

	in.ticks, err = m.Int64Counter(
		"agent.ticks",
		metric.WithDescription("Decision ticks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	in.transitions, err = m.Int64Counter(
		"agent.mode.transitions",
		metric.WithDescription("Driving mode changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	in.maneuvers, err = m.Int64Counter(
		"agent.maneuvers",
		metric.WithDescription("Bypass maneuvers planned, by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating maneuvers counter: %w", err)
	}

	in.confidence, err = m.Float64Histogram(
		"agent.confidence",
		metric.WithDescription("Motion confidence of evaluated obstacles"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating confidence histogram: %w", err)
	}

	in.tracked, err = m.Int64ObservableGauge(
		"agent.obstacles.tracked",
		metric.WithDescription("Obstacles currently tracked by the scanner"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracked gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(in.tracked, in.trackedNow.Load())
			return nil
		},
		in.tracked,
	)
	if err != nil {
		return nil, fmt.Errorf("registering tracked callback: %w", err)
	}

	return in, nil
}

func (in *instruments) record(ctx context.Context, tracked int, confidences []float64, tr *core.ModeTransition, mv *core.Maneuver) {
	in.ticks.Add(ctx, 1)
	in.trackedNow.Store(int64(tracked))

	for _, c := range confidences {
		in.confidence.Record(ctx, c)
	}

	if tr != nil {
		in.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", tr.From.String()),
			attribute.String("to", tr.To.String()),
		))
	}

	if mv != nil {
		result := "planned"
		if mv.Aborted {
			result = "empty"
		}
		in.maneuvers.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}
