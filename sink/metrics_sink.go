package sink

import (
	"context"

	"ephemeral-chat/contract"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/observability"
)

// MetricsSink is a permanent sink: it sees every published domain event.
type MetricsSink struct {
	metrics *observability.Metrics
}

var _ contract.EventSink = MetricsSink{}

func NewMetricsSink(metrics *observability.Metrics) MetricsSink {
	return MetricsSink{metrics: metrics}
}

func (m MetricsSink) Consume(_ context.Context, e event.Event) error {
	m.metrics.EventsPublished.WithLabelValues(string(e.Name())).Inc()
	switch e.(type) {
	case event.NewMessage:
		m.metrics.MessagesSent.Inc()
	}
	return nil
}
