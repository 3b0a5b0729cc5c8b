package observability

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ephemeral_chat"

// Metrics owns its own registry so that several servers (and tests) can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	MessagesSent     prometheus.Counter
	MessagesExpired  prometheus.Counter
	ReaperRuns       *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	EventsDropped    prometheus.Counter
	CommandDuration  *prometheus.HistogramVec
	RejectedInbound  *prometheus.CounterVec
	ConnectedStreams prometheus.Gauge
	QueueLength      *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages persisted and broadcast.",
		}),
		MessagesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_expired_total",
			Help:      "Messages removed by the expiry reaper.",
		}),
		ReaperRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_runs_total",
			Help:      "Expiry sweeps by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the fanout, by event name.",
		}, []string{"event"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a session buffer was full or a sink timed out.",
		}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent handling a command in its conversation worker.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		RejectedInbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_rejected_total",
			Help:      "Inbound realtime events refused before dispatch, by reason.",
		}, []string{"reason"}),
		ConnectedStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_streams",
			Help:      "Open realtime streams, authenticated or not.",
		}),
		QueueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Items waiting in an internal queue, sampled periodically.",
		}, []string{"queue"}),
	}
	m.registry.MustRegister(
		m.MessagesSent,
		m.MessagesExpired,
		m.ReaperRuns,
		m.EventsPublished,
		m.EventsDropped,
		m.CommandDuration,
		m.RejectedInbound,
		m.ConnectedStreams,
		m.QueueLength,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Number of goroutines.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),
	)
	return m
}

// WatchSessions exposes the number of live sessions, read on every scrape.
func (m *Metrics) WatchSessions(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Authenticated sessions currently attached.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
