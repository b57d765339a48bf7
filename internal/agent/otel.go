package agent

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/crossingguard/autopilot/internal/agent"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
