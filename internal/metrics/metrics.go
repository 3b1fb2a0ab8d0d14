package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxline_relay"

// Metrics holds the relay collectors on a private registry. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	connections     prometheus.Gauge
	inboundEvents   *prometheus.CounterVec
	outboundDropped *prometheus.CounterVec
	callTransitions *prometheus.CounterVec
	callDuration    prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live socket connections currently registered.",
		}),
		inboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Inbound socket events by event name.",
		}, []string{"event"}),
		outboundDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_dropped_total",
			Help:      "Outbound events not delivered because the recipient queue was full or closed.",
		}, []string{"event"}),
		callTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_transitions_total",
			Help:      "Call records moved into a status.",
		}, []string{"status"}),
		callDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of completed calls.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connections,
		m.inboundEvents,
		m.outboundDropped,
		m.callTransitions,
		m.callDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) InboundEvent(event string) {
	if m != nil {
		m.inboundEvents.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) OutboundDropped(event string) {
	if m != nil {
		m.outboundDropped.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) CallTransition(status string) {
	if m != nil {
		m.callTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) CallCompleted(seconds int) {
	if m != nil {
		m.callDuration.Observe(float64(seconds))
	}
}
