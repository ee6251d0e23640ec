package ws

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// Metrics holds the daemon's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	publishes         *prometheus.CounterVec
	permissionSignals prometheus.Counter
	notifications     *prometheus.CounterVec
	clients           prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netinfo",
			Name:      "publishes_total",
			Help:      "Connectivity descriptors published, by connection type.",
		}, []string{"type"}),
		permissionSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netinfo",
			Name:      "permission_unavailable_total",
			Help:      "Host queries that failed for lack of permission.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netinfo",
			Name:      "notifications_total",
			Help:      "Notifications accepted by the bus, by kind.",
		}, []string{"kind"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netinfo",
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
	}
	m.registry.MustRegister(m.publishes, m.permissionSignals, m.notifications, m.clients)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observePublish(t netinfo.ConnectionType) {
	if m != nil {
		m.publishes.WithLabelValues(string(t)).Inc()
	}
}

func (m *Metrics) observePermissionSignal() {
	if m != nil {
		m.permissionSignals.Inc()
	}
}

// ObserveNotification counts a notification by kind. Suitable as
// host.Bus.OnNotify.
func (m *Metrics) ObserveNotification(kind string) {
	if m != nil {
		m.notifications.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) setClients(n int) {
	if m != nil {
		m.clients.Set(float64(n))
	}
}
