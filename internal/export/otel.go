package export

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "dentalceph/internal/export"

type metrics struct {
	completed metric.Int64Counter
	aborted   metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	completed, err := m.Int64Counter(
		"export.completed",
		metric.WithDescription("Exports written to a destination"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}

	aborted, err := m.Int64Counter(
		"export.aborted",
		metric.WithDescription("Exports that produced no output"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aborted counter: %w", err)
	}

	return &metrics{completed: completed, aborted: aborted}, nil
}

func (m *metrics) done(f Format) {
	m.completed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("format", f.String())))
}

func (m *metrics) abort(reason string) {
	m.aborted.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}
