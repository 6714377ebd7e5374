package workflow

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "planmark/internal/workflow"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
