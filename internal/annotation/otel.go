package annotation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "dentalceph/internal/annotation"

type metrics struct {
	actions metric.Int64Counter
	purged  metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	actions, err := m.Int64Counter(
		"annotation.history.actions",
		metric.WithDescription("History operations applied, by operation and element kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating actions counter: %w", err)
	}

	purged, err := m.Int64Counter(
		"annotation.history.purged",
		metric.WithDescription("Volatile elements removed by clear"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating purged counter: %w", err)
	}

	return &metrics{actions: actions, purged: purged}, nil
}

func (m *metrics) action(op string, kind Kind) {
	m.actions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("kind", kind.String()),
	))
}

func (m *metrics) purge(n int) {
	m.purged.Add(context.Background(), int64(n))
}
