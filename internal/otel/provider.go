package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds OTel configuration
type Config struct {
	Enabled     bool
	ServiceName string
}

type flusher interface {
	ForceFlush(ctx context.Context) error
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Provider owns the meter provider the agent and dispatcher report to.
// When disabled, every instrument is a no-op.
type Provider struct {
	config Config
	meters metric.MeterProvider
}

// New creates a provider. mp is the exporter-backed meter provider built by
// the host; it is ignored when cfg.Enabled is false. Enabled without a meter
// provider is a configuration error.
func New(cfg Config, mp metric.MeterProvider) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{config: cfg, meters: noop.NewMeterProvider()}, nil
	}
	if mp == nil {
		return nil, fmt.Errorf("otel enabled for %q but no meter provider configured", cfg.ServiceName)
	}
	return &Provider{config: cfg, meters: mp}, nil
}

// Install registers the provider as the global meter provider so that
// package-level meter() helpers pick it up.
func (p *Provider) Install() {
	otel.SetMeterProvider(p.meters)
}

// MeterProvider returns the underlying meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meters
}

// Meter returns a named meter from the provider.
func (p *Provider) Meter(name string) metric.Meter {
	return p.meters.Meter(name)
}

// Flush forces export of pending measurements when the provider supports it.
func (p *Provider) Flush(ctx context.Context) error {
	if f, ok := p.meters.(flusher); ok {
		if err := f.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metric flush failed: %w", err)
		}
	}
	return nil
}

// Shutdown flushes and stops the provider when it supports it.
func (p *Provider) Shutdown(ctx context.Context) error {
	if s, ok := p.meters.(shutdowner); ok {
		if err := s.Shutdown(ctx); err != nil {
			return fmt.Errorf("metric shutdown failed: %w", err)
		}
	}
	return nil
}

// Enabled returns whether OTel is enabled
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}
