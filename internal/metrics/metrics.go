// Package metrics exposes Prometheus collectors for comments, moderation,
// webhooks and realtime fan-out.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "easycomment"

// Metrics holds every collector of the server. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	InstancesCreated  prometheus.Counter
	InstancesDeleted  prometheus.Counter
	CommentsCreated   prometheus.Counter
	Moderations       *prometheus.CounterVec
	WebhooksReceived  prometheus.Counter
	SettingsUpdates   prometheus.Counter
	ClientsConnected  *prometheus.GaugeVec
	EventsDelivered   *prometheus.CounterVec
	EventsDropped     *prometheus.CounterVec
	JoinsTotal        *prometheus.CounterVec
	PersistenceErrors prometheus.Counter
}

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// New creates and registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		InstancesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "instances",
			Name:      "created_total",
			Help:      "Total number of instances created.",
		}),
		InstancesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "instances",
			Name:      "deleted_total",
			Help:      "Total number of instances deleted.",
		}),
		CommentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "created_total",
			Help:      "Total number of comments posted.",
		}),
		Moderations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "moderations_total",
			Help:      "Total hide/show operations by action.",
		}, []string{"action"}),
		WebhooksReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhooks",
			Name:      "received_total",
			Help:      "Total number of inbound webhook bodies relayed.",
		}),
		SettingsUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "updates_total",
			Help:      "Total number of settings replacements.",
		}),
		ClientsConnected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "clients_connected",
			Help:      "Currently connected realtime clients by transport.",
		}, []string{"transport"}),
		EventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_delivered_total",
			Help:      "Events queued to clients by event type.",
		}, []string{"event"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Events that found a full client buffer, by event type.",
		}, []string{"event"}),
		JoinsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "joins_total",
			Help:      "Room join requests by role and result.",
		}, []string{"role", "result"}),
		PersistenceErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_errors_total",
			Help:      "Mutations rejected because the durable write failed.",
		}),
	}
}

// RegisterStoreStats exposes the store's instance and comment totals as gauges.
func (m *Metrics) RegisterStoreStats(stats func() (instances, comments int)) {
	if m == nil {
		return
	}
	factory := promauto.With(m.registry)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "instances",
		Help:      "Instances currently held.",
	}, func() float64 {
		n, _ := stats()
		return float64(n)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "comments",
		Help:      "Comments currently held across all instances.",
	}, func() float64 {
		_, n := stats()
		return float64(n)
	})
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ClientConnected implements room.Recorder.
func (m *Metrics) ClientConnected(transport string) {
	if m == nil {
		return
	}
	m.ClientsConnected.WithLabelValues(transport).Inc()
}

// ClientDisconnected implements room.Recorder.
func (m *Metrics) ClientDisconnected(transport string) {
	if m == nil {
		return
	}
	m.ClientsConnected.WithLabelValues(transport).Dec()
}

// EventDelivered implements room.Recorder.
func (m *Metrics) EventDelivered(event string, clients int) {
	if m == nil || clients == 0 {
		return
	}
	m.EventsDelivered.WithLabelValues(event).Add(float64(clients))
}

// EventDropped implements room.Recorder.
func (m *Metrics) EventDropped(event string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(event).Inc()
}

// InstanceCreated counts a created instance.
func (m *Metrics) InstanceCreated() {
	if m != nil {
		m.InstancesCreated.Inc()
	}
}

// InstanceDeleted counts a deleted instance.
func (m *Metrics) InstanceDeleted() {
	if m != nil {
		m.InstancesDeleted.Inc()
	}
}

// CommentCreated counts a posted comment.
func (m *Metrics) CommentCreated() {
	if m != nil {
		m.CommentsCreated.Inc()
	}
}

// CommentModerated counts a hide or show.
func (m *Metrics) CommentModerated(action string) {
	if m != nil {
		m.Moderations.WithLabelValues(action).Inc()
	}
}

// WebhookReceived counts a relayed webhook.
func (m *Metrics) WebhookReceived() {
	if m != nil {
		m.WebhooksReceived.Inc()
	}
}

// SettingsUpdated counts a settings replacement.
func (m *Metrics) SettingsUpdated() {
	if m != nil {
		m.SettingsUpdates.Inc()
	}
}

// Join counts a join attempt.
func (m *Metrics) Join(role, result string) {
	if m != nil {
		m.JoinsTotal.WithLabelValues(role, result).Inc()
	}
}

// PersistenceError counts a rejected mutation.
func (m *Metrics) PersistenceError() {
	if m != nil {
		m.PersistenceErrors.Inc()
	}
}
